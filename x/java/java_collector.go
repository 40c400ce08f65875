package java

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/parser"
)

const selfToken = "this"

func init() {
	parser.RegisterLanguage(core.LangJava, sitter.NewLanguage(tree_sitter_java.Language()))
	core.RegisterProvider(core.LangJava, NewJavaCollector())
	core.RegisterBuiltinTypes(core.LangJava, BuiltinTypes...)
}

// Collector 从 Java 语法树中提取顶层类、构造参数与方法内调用
type Collector struct{}

func NewJavaCollector() *Collector {
	return &Collector{}
}

// ==========================================
// 1. 核心流程 (Core Workflow)
// ==========================================

func (c *Collector) Collect(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*model.SourceUnit, error) {
	lang, err := parser.GetLanguage(core.LangJava)
	if err != nil {
		return nil, err
	}
	q, qErr := sitter.NewQuery(lang, JavaCallQuery)
	if qErr != nil {
		return nil, fmt.Errorf("query init error: %w", qErr)
	}
	defer q.Close()

	unit := &model.SourceUnit{Path: filePath}
	// 只处理顶层类声明，内部类不作为独立的注入单元
	for _, classNode := range parser.NamedChildren(rootNode, "class_declaration") {
		decl, ok := c.collectClass(classNode, q, filePath, sourceBytes)
		if ok {
			unit.Classes = append(unit.Classes, decl)
		}
	}
	return unit, nil
}

func (c *Collector) collectClass(node *sitter.Node, q *sitter.Query, filePath string, src []byte) (model.ClassDecl, bool) {
	name := parser.Text(node.ChildByFieldName("name"), src)
	if name == "" {
		return model.ClassDecl{}, false
	}
	decl := model.ClassDecl{
		Name:     name,
		Exported: c.hasModifier(node, "public"),
		Location: parser.LocationOf(node, filePath),
	}

	body := node.ChildByFieldName("body")

	// 第一步：构造函数参数
	params, resolved := c.resolveConstructor(body, src)
	decl.Constructor = params
	decl.ConstructorUnresolved = !resolved

	// 第二步：方法体内的调用表达式 (构造函数体不参与归因)
	for _, m := range parser.NamedChildren(body, "method_declaration") {
		method := model.MethodDecl{
			Name:      parser.Text(m.ChildByFieldName("name"), src),
			SelfToken: selfToken,
		}
		if methodBody := m.ChildByFieldName("body"); methodBody != nil {
			method.Calls = c.collectCalls(methodBody, q, src)
		}
		decl.Methods = append(decl.Methods, method)
	}

	return decl, true
}

// ==========================================
// 2. 构造函数解析 (Constructor Resolution)
// ==========================================

// resolveConstructor 多个构造函数时取参数最多的一个 (与 DI 容器的选择一致)。
// 没有显式构造函数时为隐式无参构造，不算解析失败。
func (c *Collector) resolveConstructor(body *sitter.Node, src []byte) ([]model.Param, bool) {
	var best *sitter.Node
	bestCount := -1
	for _, ctor := range parser.NamedChildren(body, "constructor_declaration") {
		n := len(c.parameterNodes(ctor))
		if n > bestCount {
			best, bestCount = ctor, n
		}
	}
	if best == nil {
		return nil, true
	}

	params := make([]model.Param, 0, bestCount)
	for _, p := range c.parameterNodes(best) {
		param, ok := c.extractParam(p, src)
		if !ok {
			return nil, false
		}
		params = append(params, param)
	}
	return params, true
}

func (c *Collector) parameterNodes(ctor *sitter.Node) []*sitter.Node {
	return parser.NamedChildren(ctor.ChildByFieldName("parameters"), "formal_parameter", "spread_parameter")
}

func (c *Collector) extractParam(node *sitter.Node, src []byte) (model.Param, bool) {
	switch node.Kind() {
	case "formal_parameter":
		typeNode := node.ChildByFieldName("type")
		nameNode := node.ChildByFieldName("name")
		if typeNode == nil || nameNode == nil {
			return model.Param{}, false
		}
		return model.Param{Name: parser.Text(nameNode, src), Type: parser.SimpleTypeName(parser.Text(typeNode, src))}, true

	case "spread_parameter":
		// Type... name 视为数组
		var typeText, name string
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "modifiers":
			case "variable_declarator":
				name = parser.Text(child.ChildByFieldName("name"), src)
			default:
				if typeText == "" {
					typeText = parser.Text(child, src)
				}
			}
		}
		if typeText == "" || name == "" {
			return model.Param{}, false
		}
		return model.Param{Name: name, Type: parser.SimpleTypeName(typeText) + "[]"}, true
	}
	return model.Param{}, false
}

// ==========================================
// 3. 调用表达式 (Call Sites)
// ==========================================

func (c *Collector) collectCalls(body *sitter.Node, q *sitter.Query, src []byte) []model.CallSite {
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	var calls []model.CallSite
	matches := qc.Matches(q, body, src)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		call := c.findCapturedNode(q, match, "call")
		if call == nil {
			continue
		}
		calls = append(calls, parser.CallSiteOf(call, c.findCapturedNode(q, match, "args"), src))
	}
	return calls
}

func (c *Collector) findCapturedNode(q *sitter.Query, match *sitter.QueryMatch, name string) *sitter.Node {
	idx, ok := q.CaptureIndexForName(name)
	if !ok {
		return nil
	}
	nodes := match.NodesForCaptureIndex(idx)
	if len(nodes) > 0 {
		return &nodes[0]
	}
	return nil
}

// ==========================================
// 4. 工具方法 (Utilities)
// ==========================================

func (c *Collector) hasModifier(node *sitter.Node, modifier string) bool {
	for _, mods := range parser.NamedChildren(node, "modifiers") {
		for i := uint(0); i < mods.ChildCount(); i++ {
			if child := mods.Child(i); child != nil && child.Kind() == modifier {
				return true
			}
		}
	}
	return false
}
