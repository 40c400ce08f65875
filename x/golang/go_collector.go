package golang

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/parser"
)

func init() {
	parser.RegisterLanguage(core.LangGo, sitter.NewLanguage(tree_sitter_go.Language()))
	core.RegisterProvider(core.LangGo, NewGoCollector())
	core.RegisterBuiltinTypes(core.LangGo, BuiltinTypes...)
}

// Collector 将 Go 的 struct 视为类：
//   - 构造函数为同文件内的 New<Type>/new<Type>，或返回该类型的 New
//   - 方法为接收者为该类型的方法，接收者名即 self 标记
//
// 没有构造函数的 struct 等同于隐式无参构造。
type Collector struct{}

func NewGoCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Collect(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*model.SourceUnit, error) {
	unit := &model.SourceUnit{Path: filePath}
	index := make(map[string]int)

	// 第一步：收集 struct 声明
	for _, typeDecl := range parser.NamedChildren(rootNode, "type_declaration") {
		for _, spec := range parser.NamedChildren(typeDecl, "type_spec") {
			typeNode := spec.ChildByFieldName("type")
			if typeNode == nil || typeNode.Kind() != "struct_type" {
				continue
			}
			name := parser.Text(spec.ChildByFieldName("name"), sourceBytes)
			index[name] = len(unit.Classes)
			unit.Classes = append(unit.Classes, model.ClassDecl{
				Name:     name,
				Exported: isExported(name),
				Location: parser.LocationOf(spec, filePath),
			})
		}
	}

	// 第二步：构造函数
	for _, fn := range parser.NamedChildren(rootNode, "function_declaration") {
		i, ok := c.constructedType(fn, index, sourceBytes)
		if !ok {
			continue
		}
		decl := &unit.Classes[i]
		params, resolved := c.extractParams(fn.ChildByFieldName("parameters"), sourceBytes)
		// 多个候选时取参数最多的
		if !resolved || len(params) >= len(decl.Constructor) {
			decl.Constructor = params
			decl.ConstructorUnresolved = !resolved
		}
	}

	// 第三步：方法与调用
	for _, m := range parser.NamedChildren(rootNode, "method_declaration") {
		recvName, recvType := c.receiver(m.ChildByFieldName("receiver"), sourceBytes)
		i, ok := index[recvType]
		if !ok {
			continue
		}
		method := model.MethodDecl{
			Name:      parser.Text(m.ChildByFieldName("name"), sourceBytes),
			SelfToken: recvName,
			Calls:     c.collectCalls(m.ChildByFieldName("body"), sourceBytes),
		}
		unit.Classes[i].Methods = append(unit.Classes[i].Methods, method)
	}

	return unit, nil
}

// constructedType 识别 New<T> / new<T>，以及包内唯一构造函数 New 的返回类型
func (c *Collector) constructedType(fn *sitter.Node, index map[string]int, src []byte) (int, bool) {
	name := parser.Text(fn.ChildByFieldName("name"), src)
	switch {
	case name == "New":
		result := fn.ChildByFieldName("result")
		if result == nil {
			return 0, false
		}
		if result.Kind() == "parameter_list" {
			// (T, error)
			first := parser.NamedChildren(result, "parameter_declaration")
			if len(first) == 0 {
				return 0, false
			}
			result = first[0].ChildByFieldName("type")
		}
		i, ok := index[normalizeType(parser.Text(result, src))]
		return i, ok
	case strings.HasPrefix(name, "New"), strings.HasPrefix(name, "new"):
		target := name[3:]
		if i, ok := index[target]; ok {
			return i, true
		}
		// newServer -> server
		if r, size := utf8.DecodeRuneInString(target); size > 0 {
			i, ok := index[string(unicode.ToLower(r))+target[size:]]
			return i, ok
		}
	}
	return 0, false
}

// extractParams 匿名形参无法作为别名，视为无法解析
func (c *Collector) extractParams(list *sitter.Node, src []byte) ([]model.Param, bool) {
	var out []model.Param
	for _, decl := range parser.NamedChildren(list, "parameter_declaration", "variadic_parameter_declaration") {
		typeNode := decl.ChildByFieldName("type")
		if typeNode == nil {
			return nil, false
		}
		typeName := normalizeType(parser.Text(typeNode, src))
		if decl.Kind() == "variadic_parameter_declaration" {
			typeName = "[]" + typeName
		}

		// func NewX(a, b *Y) 多个名字共享同一类型
		names := parser.NamedChildren(decl, "identifier")
		if len(names) == 0 {
			return nil, false
		}
		for _, n := range names {
			out = append(out, model.Param{Name: parser.Text(n, src), Type: typeName})
		}
	}
	return out, true
}

func (c *Collector) receiver(list *sitter.Node, src []byte) (string, string) {
	decls := parser.NamedChildren(list, "parameter_declaration")
	if len(decls) == 0 {
		return "", ""
	}
	recv := decls[0]
	return parser.Text(recv.ChildByFieldName("name"), src), normalizeType(parser.Text(recv.ChildByFieldName("type"), src))
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

// normalizeType 去掉指针与包前缀：*store.Water -> Water
func normalizeType(t string) string {
	return parser.SimpleTypeName(strings.TrimLeft(strings.TrimSpace(t), "*"))
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
