package coupling

import "github.com/CodMac/coupling-lens/model"

// InvertDependents 根据已定型的依赖边填充 dependents。
// 只有 targetType 存在于 Program 中时才添加，重复执行结果不变。
func InvertDependents(p *model.Program) {
	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(_ string, edge *model.DependencyEdge) {
			if target, ok := p.Get(edge.TargetType); ok {
				target.AddDependent(name)
			}
		})
	})
}
