package java

// --- Java 背景类型表 ---
// 构造参数为这些类型时不视为领域依赖 (LevelBalanced 起生效)

var BuiltinTypes = []string{
	// 基础类型
	"int", "long", "short", "byte", "char", "boolean", "float", "double",

	// java.lang
	"String", "Object", "Integer", "Long", "Double", "Float", "Boolean", "Byte",
	"Character", "Short", "Number", "Class", "Thread", "ThreadLocal",
	"StringBuilder", "StringBuffer", "CharSequence", "Runnable", "Iterable",

	// java.util 集合框架
	"Collection", "List", "ArrayList", "LinkedList", "Set", "HashSet", "TreeSet",
	"Map", "HashMap", "TreeMap", "LinkedHashMap", "Iterator", "Optional",
	"UUID", "Date", "Properties",

	// java.util.stream & function
	"Stream", "Function", "BiFunction", "Consumer", "Predicate", "Supplier",

	// java.time
	"LocalDate", "LocalTime", "LocalDateTime", "ZonedDateTime", "Duration", "Instant", "Clock",

	// java.io & java.nio
	"InputStream", "OutputStream", "File", "Path",

	// java.util.concurrent
	"Executor", "ExecutorService", "ScheduledExecutorService", "Future",
	"CompletableFuture", "ConcurrentHashMap", "TimeUnit",
}
