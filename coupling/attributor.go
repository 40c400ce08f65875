package coupling

import (
	"strings"

	"github.com/CodMac/coupling-lens/model"
)

// CallKind 调用表达式的匹配结果类别
type CallKind int

const (
	NoMatch        CallKind = iota // 无法识别的形状，忽略
	SelfCall                       // self.method()
	DependencyCall                 // self.alias.method()
)

func (k CallKind) String() string {
	switch k {
	case SelfCall:
		return "SelfCall"
	case DependencyCall:
		return "DependencyCall"
	}
	return "NoMatch"
}

// CallMatch MatchCall 的结果。Alias 仅对 DependencyCall 有效。
type CallMatch struct {
	Kind   CallKind
	Alias  string
	Method string
}

// MatchCall 取第一个 '(' 之前的文本并按 '.' 切分：
//
//	[self, method]        -> SelfCall
//	[self, alias, method] -> DependencyCall
//
// 其余段数、空段或接收者不是 selfToken 的一律 NoMatch。
// 超过一层的成员链不追踪。
func MatchCall(callee, selfToken string) CallMatch {
	if selfToken == "" {
		return CallMatch{Kind: NoMatch}
	}
	if i := strings.IndexByte(callee, '('); i >= 0 {
		callee = callee[:i]
	}
	segments := strings.Split(strings.TrimSpace(callee), ".")
	for _, s := range segments {
		if s == "" {
			return CallMatch{Kind: NoMatch}
		}
	}
	if segments[0] != selfToken {
		return CallMatch{Kind: NoMatch}
	}

	switch len(segments) {
	case 2:
		return CallMatch{Kind: SelfCall, Method: segments[1]}
	case 3:
		return CallMatch{Kind: DependencyCall, Alias: segments[1], Method: segments[2]}
	}
	return CallMatch{Kind: NoMatch}
}

// AttributeCalls 遍历方法体内的调用表达式，为已存在的依赖边累加方法调用次数。
// 只更新 ExtractDependencies 建立的边，从不新建。返回被归因的调用数。
func AttributeCalls(entry *model.ClassEntry, methods []model.MethodDecl) int {
	attributed := 0
	for _, method := range methods {
		for _, call := range method.Calls {
			m := MatchCall(call.Callee, method.SelfToken)
			if m.Kind != DependencyCall {
				continue
			}
			edge, ok := entry.Dependency(m.Alias)
			if !ok {
				// 未注入的私有成员，如 this.logger.log()
				continue
			}
			edge.RecordCall(m.Method)
			attributed++
		}
	}
	return attributed
}
