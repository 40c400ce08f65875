package model

// --- 源码模型 (Source Model) ---
// 由语言插件从语法树中提取，耦合分析只消费这些纯数据结构。

// Location 描述了类声明在源码中的位置
type Location struct {
	FilePath  string `json:"FilePath"`
	StartLine int    `json:"StartLine"`
	EndLine   int    `json:"EndLine"`
}

// Param 构造函数的一个形参
type Param struct {
	Name string `json:"Name"` // 形参名 (即依赖别名)
	Type string `json:"Type"` // 解析后的类型名
}

// CallSite 方法体内的一次调用表达式
type CallSite struct {
	Callee string `json:"Callee"`         // 左括号之前的被调用者文本，如 this.water.plant
	Args   string `json:"Args,omitempty"` // 左括号及之后的文本
	Line   int    `json:"Line"`
}

// MethodDecl 类的一个方法声明
type MethodDecl struct {
	Name      string     `json:"Name"`
	SelfToken string     `json:"SelfToken"` // 访问当前实例成员的标记 (this / Go 接收者名)
	Calls     []CallSite `json:"Calls,omitempty"`
}

// ClassDecl 顶层类声明
type ClassDecl struct {
	Name                  string       `json:"Name"`
	Exported              bool         `json:"Exported"`
	ConstructorUnresolved bool         `json:"ConstructorUnresolved,omitempty"` // 无法解析构造函数的类型信息
	Constructor           []Param      `json:"Constructor,omitempty"`
	Methods               []MethodDecl `json:"Methods,omitempty"`
	Location              *Location    `json:"Location,omitempty"`
}

// SourceUnit 单个编译单元 (源文件) 的源码模型
type SourceUnit struct {
	Path     string      `json:"Path"`
	Language string      `json:"Language"`
	Classes  []ClassDecl `json:"Classes"`
}
