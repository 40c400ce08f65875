package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/CodMac/coupling-lens/model"
)

// Walk 深度优先遍历，fn 返回 false 时不再进入该节点的子节点
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		Walk(n.Child(i), fn)
	}
}

// NamedChildren 返回指定类型的直接命名子节点
func NamedChildren(n *sitter.Node, kinds ...string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				out = append(out, child)
				break
			}
		}
	}
	return out
}

func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Utf8Text(src))
}

// CallSiteOf 以参数列表为界切分调用表达式：左括号之前为 Callee，之后为 Args
func CallSiteOf(call, args *sitter.Node, src []byte) model.CallSite {
	site := model.CallSite{Line: int(call.StartPosition().Row) + 1}
	if args == nil {
		site.Callee = Text(call, src)
		return site
	}
	site.Callee = strings.TrimSpace(string(src[call.StartByte():args.StartByte()]))
	site.Args = string(src[args.StartByte():call.EndByte()])
	return site
}

func LocationOf(n *sitter.Node, filePath string) *model.Location {
	if n == nil {
		return nil
	}
	return &model.Location{
		FilePath:  filePath,
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
	}
}

// SimpleTypeName 擦除泛型参数并去掉包/命名空间前缀：
//
//	java.util.List<String> -> List
//	*store.Water           -> Water
//	Repo[T]                -> Repo
//	Water[]                -> Water[]
func SimpleTypeName(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '<'); i > 0 {
		t = t[:i]
	}
	if i := strings.IndexByte(t, '['); i > 0 && !strings.HasPrefix(t[i:], "[]") {
		t = t[:i]
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 && i < len(t)-1 {
		t = t[i+1:]
	}
	return strings.TrimSpace(t)
}
