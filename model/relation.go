package model

import "encoding/json"

// --- 耦合模型 (Coupling Model) ---

// MethodUsage 导出格式中单个方法的调用统计
type MethodUsage struct {
	TimesCalled int `json:"timesCalled"`
}

// DependencyEdge 一条构造函数注入的依赖关系。
// MethodCalls 中的计数严格为正，从未调用的方法不会出现。
type DependencyEdge struct {
	Alias       string                           // 构造参数名，用于匹配调用点接收者
	TargetType  string                           // 参数类型名，可能不在 Program 中
	MethodCalls *OrderedMap[string, MethodUsage] // 方法名 -> 调用次数 (按首次出现顺序)
}

func NewDependencyEdge(alias, targetType string) *DependencyEdge {
	return &DependencyEdge{
		Alias:       alias,
		TargetType:  targetType,
		MethodCalls: NewOrderedMap[string, MethodUsage](),
	}
}

// RecordCall 方法调用计数 +1，首次出现时初始化为 1
func (e *DependencyEdge) RecordCall(method string) {
	usage, _ := e.MethodCalls.Get(method)
	usage.TimesCalled++
	e.MethodCalls.Set(method, usage)
}

// TimesCalled 未记录的方法返回 0
func (e *DependencyEdge) TimesCalled(method string) int {
	usage, _ := e.MethodCalls.Get(method)
	return usage.TimesCalled
}

// TotalCalls 所有方法调用次数之和
func (e *DependencyEdge) TotalCalls() int {
	total := 0
	e.MethodCalls.Each(func(_ string, u MethodUsage) { total += u.TimesCalled })
	return total
}

func (e *DependencyEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string                           `json:"type"`
		Methods *OrderedMap[string, MethodUsage] `json:"methods"`
	}{Type: e.TargetType, Methods: e.MethodCalls})
}

// ClassEntry 单个类的耦合记录
type ClassEntry struct {
	Dependencies *OrderedMap[string, *DependencyEdge] // alias -> edge，构造参数顺序
	Dependents   *OrderedMap[string, string]          // 依赖本类的类名集合，值恒等于键
}

func NewClassEntry() *ClassEntry {
	return &ClassEntry{
		Dependencies: NewOrderedMap[string, *DependencyEdge](),
		Dependents:   NewOrderedMap[string, string](),
	}
}

// AddDependent 重复添加同名类为空操作
func (c *ClassEntry) AddDependent(name string) {
	c.Dependents.Set(name, name)
}

func (c *ClassEntry) Dependency(alias string) (*DependencyEdge, bool) {
	return c.Dependencies.Get(alias)
}

func (c *ClassEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dependencies *OrderedMap[string, *DependencyEdge] `json:"dependencies"`
		Dependents   *OrderedMap[string, string]          `json:"dependents"`
	}{Dependencies: c.Dependencies, Dependents: c.Dependents})
}

// Program 完整的耦合模型：类名 -> ClassEntry，保持类的创建顺序。
type Program struct {
	classes *OrderedMap[string, *ClassEntry]
}

func NewProgram() *Program {
	return &Program{classes: NewOrderedMap[string, *ClassEntry]()}
}

// Set 同名类后写覆盖先写，位置保持首次出现处。返回是否发生了覆盖。
func (p *Program) Set(name string, entry *ClassEntry) (replaced bool) {
	replaced = p.classes.Has(name)
	p.classes.Set(name, entry)
	return replaced
}

func (p *Program) Get(name string) (*ClassEntry, bool) {
	return p.classes.Get(name)
}

func (p *Program) Has(name string) bool { return p.classes.Has(name) }

func (p *Program) Len() int { return p.classes.Len() }

func (p *Program) Names() []string { return p.classes.Keys() }

func (p *Program) Each(fn func(name string, entry *ClassEntry)) {
	p.classes.Each(fn)
}

func (p *Program) MarshalJSON() ([]byte, error) {
	return p.classes.MarshalJSON()
}

// RankEntry 排名列表中的一项
type RankEntry struct {
	Name  string
	Count int
}

// RankedList 按 Count 降序，同分保持 Program 顺序
type RankedList []RankEntry
