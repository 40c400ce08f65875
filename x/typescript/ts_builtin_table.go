package typescript

// BuiltinTypes TypeScript/JavaScript 内置与常见框架类型，LevelBalanced 起不视为领域依赖
var BuiltinTypes = []string{
	// 基础类型
	"string", "number", "boolean", "bigint", "symbol", "any", "unknown",
	"object", "void", "never", "undefined", "null",

	// 包装类与内置对象
	"String", "Number", "Boolean", "Object", "Function", "Symbol",
	"Array", "ReadonlyArray", "Map", "Set", "WeakMap", "WeakSet",
	"Promise", "Date", "RegExp", "Error",

	// 工具类型
	"Record", "Partial", "Readonly", "Required", "Pick", "Omit",

	// rxjs / 事件
	"Observable", "Subject", "BehaviorSubject", "EventEmitter",
}
