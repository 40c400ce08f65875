package java

// JavaCallQuery 方法体内的方法调用，@args 用于切分被调用者文本与参数
const JavaCallQuery = `
(method_invocation
  arguments: (argument_list) @args) @call
`
