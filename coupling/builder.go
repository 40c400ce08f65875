package coupling

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
)

// ErrUnresolvedConstructor 源码模型无法给出类的构造函数类型信息
var ErrUnresolvedConstructor = errors.New("unresolved constructor")

// UnresolvedPolicy 构造函数无法解析时的处理方式
type UnresolvedPolicy string

const (
	SkipUnresolved  UnresolvedPolicy = "skip"  // 跳过该类，不写入任何条目
	AbortUnresolved UnresolvedPolicy = "abort" // 终止整个分析
)

// Builder 按固定顺序执行耦合分析：抽取 -> 归因 -> (纯净裁剪) -> 反转。
type Builder struct {
	Policy       core.FilterPolicy
	OnUnresolved UnresolvedPolicy
	PureOnly     bool // 丢弃指向程序外类型的依赖边
	logger       *slog.Logger
}

func NewBuilder(policy core.FilterPolicy, onUnresolved UnresolvedPolicy, pureOnly bool, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if onUnresolved == "" {
		onUnresolved = SkipUnresolved
	}
	return &Builder{Policy: policy, OnUnresolved: onUnresolved, PureOnly: pureOnly, logger: logger}
}

// Build 由源码模型构建 Program。除 AbortUnresolved 外不会返回错误。
func (b *Builder) Build(units []*model.SourceUnit) (*model.Program, error) {
	p := model.NewProgram()
	attributed := 0

	// 1. 抽取依赖边并归因调用
	for _, unit := range units {
		for i := range unit.Classes {
			decl := &unit.Classes[i]
			if b.Policy.ShouldIgnoreClass(decl.Name) {
				b.logger.Debug("ignoring class", slog.String("class", decl.Name), slog.String("file", unit.Path))
				continue
			}
			if decl.ConstructorUnresolved {
				if b.OnUnresolved == AbortUnresolved {
					return nil, fmt.Errorf("%w: class %s in %s", ErrUnresolvedConstructor, decl.Name, unit.Path)
				}
				b.logger.Warn("skipping class with unresolved constructor",
					slog.String("class", decl.Name), slog.String("file", unit.Path))
				continue
			}

			entry := ExtractDependencies(decl, b.Policy, b.logger)
			attributed += AttributeCalls(entry, decl.Methods)
			if p.Set(decl.Name, entry) {
				b.logger.Debug("duplicate class name, later declaration wins",
					slog.String("class", decl.Name), slog.String("file", unit.Path))
			}
		}
	}

	// 2. 纯净模式下裁剪外部依赖
	if b.PureOnly {
		pruneExternal(p, b.logger)
	}

	// 3. 反转得到 dependents
	InvertDependents(p)

	b.logger.Info("coupling model built",
		slog.Int("classes", p.Len()),
		slog.Int("attributed_calls", attributed))
	return p, nil
}

// Admits 被忽略或构造函数无法解析的类不会进入 Program
func (b *Builder) Admits(decl *model.ClassDecl) bool {
	return !b.Policy.ShouldIgnoreClass(decl.Name) && !decl.ConstructorUnresolved
}

// ClassFiles 类名 -> 声明所在文件。只统计进入 Program 的声明，
// 同名类取最后一次被接纳的声明，与 Build 的覆盖规则一致。
func (b *Builder) ClassFiles(units []*model.SourceUnit) map[string]string {
	files := make(map[string]string)
	for _, unit := range units {
		for i := range unit.Classes {
			if b.Admits(&unit.Classes[i]) {
				files[unit.Classes[i].Name] = unit.Path
			}
		}
	}
	return files
}

func pruneExternal(p *model.Program, logger *slog.Logger) {
	p.Each(func(name string, entry *model.ClassEntry) {
		for _, alias := range entry.Dependencies.Keys() {
			edge, _ := entry.Dependencies.Get(alias)
			if !p.Has(edge.TargetType) {
				logger.Debug("dropping external dependency",
					slog.String("class", name), slog.String("type", edge.TargetType))
				entry.Dependencies.Delete(alias)
			}
		}
	})
}
