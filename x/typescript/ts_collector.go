package typescript

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/parser"
)

const selfToken = "this"

func init() {
	parser.RegisterLanguage(core.LangTypeScript, sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()))
	parser.RegisterLanguage(core.LangTSX, sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()))

	collector := NewTypeScriptCollector()
	core.RegisterProvider(core.LangTypeScript, collector)
	core.RegisterProvider(core.LangTSX, collector)
	core.RegisterBuiltinTypes(core.LangTypeScript, BuiltinTypes...)
	core.RegisterBuiltinTypes(core.LangTSX, BuiltinTypes...)
}

// Collector 从 TypeScript 语法树中提取顶层类。
// TypeScript 与 TSX 共用同一套节点类型。
type Collector struct{}

func NewTypeScriptCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Collect(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*model.SourceUnit, error) {
	unit := &model.SourceUnit{Path: filePath}
	// 没有自有构造函数的子类: 类下标 -> 基类名
	inherits := make(map[int]string)

	for i := uint(0); i < rootNode.NamedChildCount(); i++ {
		node := rootNode.NamedChild(i)
		exported := false
		// export class X / export default class X
		if node.Kind() == "export_statement" {
			exported = true
			node = node.ChildByFieldName("declaration")
			if node == nil {
				continue
			}
		}
		if !isClassNode(node) {
			continue
		}
		decl, base, ok := c.collectClass(node, exported, filePath, sourceBytes)
		if !ok {
			continue
		}
		if base != "" {
			inherits[len(unit.Classes)] = base
		}
		unit.Classes = append(unit.Classes, decl)
	}

	c.inheritConstructors(unit, inherits)
	return unit, nil
}

// inheritConstructors 子类未声明构造函数时沿用基类的构造参数。
// 基类不在当前文件中时无法得知其参数，标记为无法解析。
func (c *Collector) inheritConstructors(unit *model.SourceUnit, inherits map[int]string) {
	if len(inherits) == 0 {
		return
	}
	index := make(map[string]int, len(unit.Classes))
	for i, decl := range unit.Classes {
		index[decl.Name] = i
	}

	var resolve func(i int, seen map[int]bool) ([]model.Param, bool)
	resolve = func(i int, seen map[int]bool) ([]model.Param, bool) {
		base, ok := inherits[i]
		if !ok {
			return unit.Classes[i].Constructor, !unit.Classes[i].ConstructorUnresolved
		}
		j, found := index[base]
		if !found || seen[j] {
			return nil, false
		}
		seen[i] = true
		return resolve(j, seen)
	}

	for i := range inherits {
		params, ok := resolve(i, map[int]bool{})
		unit.Classes[i].Constructor = params
		unit.Classes[i].ConstructorUnresolved = !ok
	}
}

func isClassNode(n *sitter.Node) bool {
	k := n.Kind()
	return k == "class_declaration" || k == "abstract_class_declaration"
}

// collectClass 返回的 base 非空表示类继承了基类且没有自有构造函数
func (c *Collector) collectClass(node *sitter.Node, exported bool, filePath string, src []byte) (decl model.ClassDecl, base string, ok bool) {
	name := parser.Text(node.ChildByFieldName("name"), src)
	if name == "" {
		return model.ClassDecl{}, "", false
	}
	decl = model.ClassDecl{
		Name:     name,
		Exported: exported,
		Location: parser.LocationOf(node, filePath),
	}
	hasConstructor := false

	for _, m := range parser.NamedChildren(node.ChildByFieldName("body"), "method_definition") {
		methodName := parser.Text(m.ChildByFieldName("name"), src)

		// 1. 构造函数
		if methodName == "constructor" {
			params, resolved := c.extractParams(m.ChildByFieldName("parameters"), src)
			decl.Constructor = params
			decl.ConstructorUnresolved = !resolved
			hasConstructor = true
			continue
		}

		// 2. 普通方法 (get/set 访问器不计入)
		if isAccessor(m) {
			continue
		}
		method := model.MethodDecl{Name: methodName, SelfToken: selfToken}
		method.Calls = c.collectCalls(m.ChildByFieldName("body"), src)
		decl.Methods = append(decl.Methods, method)
	}

	if !hasConstructor {
		base = c.superclass(node, src)
	}
	return decl, base, true
}

// superclass 读取 extends 子句中的基类名，implements 不影响构造函数
func (c *Collector) superclass(node *sitter.Node, src []byte) string {
	for _, heritage := range parser.NamedChildren(node, "class_heritage") {
		for _, ext := range parser.NamedChildren(heritage, "extends_clause") {
			if value := ext.ChildByFieldName("value"); value != nil {
				return parser.SimpleTypeName(parser.Text(value, src))
			}
		}
	}
	return ""
}

// extractParams 解构形参无法得到别名，视为构造函数无法解析。
// 未标注类型的形参按 any 处理。
func (c *Collector) extractParams(params *sitter.Node, src []byte) ([]model.Param, bool) {
	var out []model.Param
	for _, p := range parser.NamedChildren(params, "required_parameter", "optional_parameter") {
		pattern := p.ChildByFieldName("pattern")
		if pattern == nil {
			return nil, false
		}
		switch pattern.Kind() {
		case "this":
			continue
		case "identifier":
		default:
			return nil, false
		}

		typeName := "any"
		if ann := p.ChildByFieldName("type"); ann != nil && ann.NamedChildCount() > 0 {
			typeName = typeText(parser.Text(ann.NamedChild(0), src))
		}
		out = append(out, model.Param{Name: parser.Text(pattern, src), Type: typeName})
	}
	return out, true
}

func (c *Collector) collectCalls(body *sitter.Node, src []byte) []model.CallSite {
	var calls []model.CallSite
	parser.Walk(body, func(n *sitter.Node) bool {
		if n.Kind() == "call_expression" {
			calls = append(calls, parser.CallSiteOf(n, n.ChildByFieldName("arguments"), src))
		}
		return true
	})
	return calls
}

// typeText 保留泛型参数，只做空白归一化：
//
//	Repository<User>  -> Repository<User>
//	ns.Mailer         -> Mailer
//	Array<Water>      -> Water[]
//	Array<A | B>      -> (A | B)[]
func typeText(t string) string {
	t = strings.Join(strings.Fields(t), " ")

	head, rest := t, ""
	if i := strings.IndexByte(t, '<'); i > 0 {
		head, rest = t[:i], t[i:]
	}
	// 只对单纯的限定名去前缀，对象字面量、联合类型等保持原样
	if !strings.ContainsAny(head, " {}()|&[]") {
		if i := strings.LastIndexByte(head, '.'); i >= 0 && i < len(head)-1 {
			head = head[i+1:]
		}
	}
	t = head + rest

	if inner, ok := arrayElement(t); ok {
		inner = typeText(inner)
		if strings.ContainsAny(inner, "|&") || strings.Contains(inner, "=>") {
			inner = "(" + inner + ")"
		}
		return inner + "[]"
	}
	return t
}

// arrayElement 仅当整个类型是 Array<T> 时返回 T
func arrayElement(t string) (string, bool) {
	const prefix = "Array<"
	if !strings.HasPrefix(t, prefix) || !strings.HasSuffix(t, ">") {
		return "", false
	}
	depth := 0
	for i := len(prefix) - 1; i < len(t); i++ {
		switch t[i] {
		case '<':
			depth++
		case '>':
			if i > 0 && t[i-1] == '=' {
				continue
			}
			depth--
			if depth == 0 && i != len(t)-1 {
				return "", false
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return strings.TrimSpace(t[len(prefix) : len(t)-1]), true
}

func isAccessor(m *sitter.Node) bool {
	for i := uint(0); i < m.ChildCount(); i++ {
		child := m.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if k := child.Kind(); k == "get" || k == "set" {
			return true
		}
	}
	return false
}
