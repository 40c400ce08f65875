package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/CodMac/coupling-lens/model"
)

type NodeKind string

const (
	ClassNode    NodeKind = "class"    // 程序内的类
	ExternalNode NodeKind = "external" // 只作为依赖类型出现
)

func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "(", "_", ")", "_", "[", "_", "]", "_", " ", "_", "@", "at", "<", "_", ">", "_", "/", "_", "\\", "_", "-", "_")
	return "n_" + r.Replace(id)
}

func getNodeShape(kind NodeKind, name string) string {
	switch kind {
	case ExternalNode:
		return fmt.Sprintf("([\"%s <small>(%s)</small>\"])", name, kind)
	default:
		return fmt.Sprintf("[\"%s <small>(%s)</small>\"]", name, kind)
	}
}

// ExportMermaidHTML 输出可直接在浏览器打开的依赖图。
// files 为类名到源文件的映射，非空时按文件分组；返回节点数与边数。
func ExportMermaidHTML(w io.Writer, p *model.Program, files map[string]string) (int, int, error) {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script></head>
<body><div class="mermaid">graph LR
`)

	// 1. 程序内的类，按文件分组
	nodeCount := 0
	groups := model.NewOrderedMap[string, []string]()
	for _, name := range p.Names() {
		file := files[name]
		members, _ := groups.Get(file)
		groups.Set(file, append(members, name))
	}
	groups.Each(func(file string, members []string) {
		if file != "" {
			fmt.Fprintf(&b, "  subgraph %s [📄 %s]\n", safeID(file), file)
		}
		for _, name := range members {
			fmt.Fprintf(&b, "    %s%s\n", safeID(name), getNodeShape(ClassNode, name))
			nodeCount++
		}
		if file != "" {
			b.WriteString("  end\n")
		}
	})

	// 2. 外部依赖类型
	external := model.NewOrderedMap[string, struct{}]()
	p.Each(func(_ string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(_ string, edge *model.DependencyEdge) {
			if !p.Has(edge.TargetType) {
				external.Set(edge.TargetType, struct{}{})
			}
		})
	})
	for _, name := range external.Keys() {
		fmt.Fprintf(&b, "  %s%s\n", safeID(name), getNodeShape(ExternalNode, name))
		nodeCount++
	}

	// 3. 依赖边，标注别名与调用次数
	relCount := 0
	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(alias string, edge *model.DependencyEdge) {
			srcID, tgtID := safeID(name), safeID(edge.TargetType)
			if srcID == tgtID {
				return
			}
			fmt.Fprintf(&b, "  %s -- \"%s (%d)\" --> %s\n", srcID, alias, edge.TotalCalls(), tgtID)
			relCount++
		})
	})

	b.WriteString(`</div><script>mermaid.initialize({startOnLoad:true, maxTextSize:1000000});</script></body></html>
`)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, 0, err
	}
	return nodeCount, relCount, nil
}
