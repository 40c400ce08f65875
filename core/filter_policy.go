package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FilterLevel 定义过滤的严苛程度
type FilterLevel int

const (
	LevelRaw      FilterLevel = iota // 只应用配置中的忽略规则
	LevelBalanced                    // 额外过滤语言内置的背景类型 (如 String, Promise, context.Context)
	LevelPure                        // 只保留指向程序内类的依赖 (Source -> Source)
)

func (l FilterLevel) String() string {
	switch l {
	case LevelRaw:
		return "raw"
	case LevelBalanced:
		return "balanced"
	case LevelPure:
		return "pure"
	}
	return fmt.Sprintf("FilterLevel(%d)", int(l))
}

// FilterPolicy 决定类或依赖类型是否被排除在耦合模型之外。所有方法均为纯函数。
type FilterPolicy interface {
	ShouldIgnoreClass(name string) bool
	ShouldIgnoreDependency(typeName string) bool
	ShouldIgnoreByNamingConvention(typeName string) bool
}

// FilterOptions 构造 PatternFilter 所需的配置
type FilterOptions struct {
	IgnoreClasses             []string // 类名精确值或正则
	IgnoreDependencies        []string // 依赖类型名精确值或正则
	IgnoreNonCapitalisedTypes bool     // 首字母小写的类型视为字面量/基础类型
	Level                     FilterLevel
	Language                  Language // LevelBalanced 时用于查找内置类型表
}

// PatternFilter 基于正则列表的 FilterPolicy 实现
type PatternFilter struct {
	classPatterns        []*regexp.Regexp
	dependencyPatterns   []*regexp.Regexp
	builtinTypes         map[string]struct{}
	ignoreNonCapitalised bool
	level                FilterLevel
}

func NewPatternFilter(opts FilterOptions) (*PatternFilter, error) {
	classPatterns, err := compilePatterns(opts.IgnoreClasses)
	if err != nil {
		return nil, fmt.Errorf("ignore classes: %w", err)
	}
	depPatterns, err := compilePatterns(opts.IgnoreDependencies)
	if err != nil {
		return nil, fmt.Errorf("ignore dependencies: %w", err)
	}

	f := &PatternFilter{
		classPatterns:        classPatterns,
		dependencyPatterns:   depPatterns,
		builtinTypes:         make(map[string]struct{}),
		ignoreNonCapitalised: opts.IgnoreNonCapitalisedTypes,
		level:                opts.Level,
	}
	if opts.Level >= LevelBalanced {
		for _, t := range BuiltinTypes(opts.Language) {
			f.builtinTypes[t] = struct{}{}
		}
	}
	return f, nil
}

func (f *PatternFilter) Level() FilterLevel { return f.level }

func (f *PatternFilter) ShouldIgnoreClass(name string) bool {
	return matchAny(f.classPatterns, name)
}

// ShouldIgnoreDependency 配置的模式匹配完整类型文本 (含泛型参数)，
// 内置类型表按泛型擦除后的名字匹配，如 Promise<Water> 命中 Promise。
func (f *PatternFilter) ShouldIgnoreDependency(typeName string) bool {
	if _, ok := f.builtinTypes[typeName]; ok {
		return true
	}
	if i := strings.IndexByte(typeName, '<'); i > 0 {
		if _, ok := f.builtinTypes[typeName[:i]]; ok {
			return true
		}
	}
	return matchAny(f.dependencyPatterns, typeName)
}

func (f *PatternFilter) ShouldIgnoreByNamingConvention(typeName string) bool {
	if !f.ignoreNonCapitalised {
		return false
	}
	r, _ := utf8.DecodeRuneInString(typeName)
	if r == utf8.RuneError {
		return true
	}
	// 非字母开头 (如对象字面量类型) 同样视为非类类型
	return unicode.ToLower(r) == r
}

// 每个模式整体匹配：精确类名本身就是合法的正则
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// --- 语言内置类型表 ---

var builtinTypeMap = make(map[Language][]string)

// RegisterBuiltinTypes 注册语言的背景噪音类型，供 LevelBalanced 过滤
func RegisterBuiltinTypes(lang Language, types ...string) {
	builtinTypeMap[lang] = append(builtinTypeMap[lang], types...)
}

func BuiltinTypes(lang Language) []string {
	return builtinTypeMap[lang]
}
