package coupling

import (
	"sort"

	"github.com/CodMac/coupling-lens/model"
)

// RankByDependencies 按依赖数 (出度) 降序
func RankByDependencies(p *model.Program) model.RankedList {
	return rank(p, func(e *model.ClassEntry) int { return e.Dependencies.Len() })
}

// RankByDependents 按被依赖数 (入度) 降序
func RankByDependents(p *model.Program) model.RankedList {
	return rank(p, func(e *model.ClassEntry) int { return e.Dependents.Len() })
}

// 稳定排序，同分保持 Program 的插入顺序，不按名称二次排序
func rank(p *model.Program, count func(*model.ClassEntry) int) model.RankedList {
	list := make(model.RankedList, 0, p.Len())
	p.Each(func(name string, entry *model.ClassEntry) {
		list = append(list, model.RankEntry{Name: name, Count: count(entry)})
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Count > list[j].Count
	})
	return list
}
