package golang

// BuiltinTypes 预声明类型与常见标准库类型 (已去掉包前缀)
var BuiltinTypes = []string{
	"bool", "string", "error", "any", "byte", "rune",
	"int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	"float32", "float64", "complex64", "complex128",

	// context / time / sync / io
	"Context", "Duration", "Time", "Mutex", "RWMutex", "WaitGroup",
	"Reader", "Writer", "ReadCloser", "WriteCloser", "Buffer",
}
