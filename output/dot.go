package output

import (
	"fmt"
	"strings"

	"github.com/CodMac/coupling-lens/model"
)

func startGraphViz(b *strings.Builder, name string) {
	fmt.Fprintf(b, "digraph %s {", name)
	b.WriteString("\n\tgraph [pad=\"0.5\", nodesep=\"1\", ranksep=\"5\"];")
	b.WriteString("\n\tnode[shape = square, color=lightblue2, style=filled];")
	b.WriteString("\n\tsplines=\"true\";")
	b.WriteString("\n\tsize=\"6,6\";")
}

func finishGraphViz(b *strings.Builder) {
	b.WriteString("\n}\n")
}

// RenderDOT 平铺模式：每个 (类, 别名) 输出一条 "类" -> "目标类型" 边，
// 相同目标类型不合并。
func RenderDOT(p *model.Program) string {
	var b strings.Builder
	startGraphViz(&b, "dependencies")

	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(_ string, edge *model.DependencyEdge) {
			fmt.Fprintf(&b, "\n\t%s -> %s", quote(name), quote(edge.TargetType))
		})
	})

	finishGraphViz(&b)
	return b.String()
}

// typeCluster 一个依赖类型及其被调用过的方法，按首次出现去重
type typeCluster struct {
	typeName string
	methods  *model.OrderedMap[string, struct{}]
}

// RenderClusteredDOT 方法级模式：每个目标类型一个 cluster，cluster 内为
// 所有类对该类型调用过的方法。
//
// 该模式不完整：调用点只归属到类，没有记录所在方法，因此不输出
// "调用方方法 -> 被调方法" 的边。
func RenderClusteredDOT(p *model.Program) string {
	clusters := model.NewOrderedMap[string, *typeCluster]()
	p.Each(func(_ string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(_ string, edge *model.DependencyEdge) {
			c, ok := clusters.Get(edge.TargetType)
			if !ok {
				c = &typeCluster{typeName: edge.TargetType, methods: model.NewOrderedMap[string, struct{}]()}
				clusters.Set(edge.TargetType, c)
			}
			for _, method := range edge.MethodCalls.Keys() {
				c.methods.Set(method, struct{}{})
			}
		})
	})

	var b strings.Builder
	startGraphViz(&b, "dependencies_granular")
	clusters.Each(func(_ string, c *typeCluster) {
		fmt.Fprintf(&b, "\n\tsubgraph cluster_%s {", clusterID(c.typeName))
		fmt.Fprintf(&b, "\n\t\tlabel = %s", quote(c.typeName))
		for _, method := range c.methods.Keys() {
			fmt.Fprintf(&b, "\n\t\t%s [label = %s]", quote(c.typeName+"."+method), quote(method))
		}
		b.WriteString("\n\t}")
	})
	finishGraphViz(&b)
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// clusterID 小写，非标识符字符替换为下划线 (如 Water[] -> water__)
func clusterID(typeName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, typeName)
}
