package coupling

import (
	"log/slog"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
)

// ExtractDependencies 将构造参数转换为依赖边。被过滤的参数不产生任何边，
// 对后续调用归因也不可见。
func ExtractDependencies(decl *model.ClassDecl, policy core.FilterPolicy, logger *slog.Logger) *model.ClassEntry {
	if logger == nil {
		logger = slog.Default()
	}
	entry := model.NewClassEntry()
	for _, param := range decl.Constructor {
		if policy.ShouldIgnoreDependency(param.Type) || policy.ShouldIgnoreByNamingConvention(param.Type) {
			logger.Debug("ignoring dependency",
				slog.String("class", decl.Name),
				slog.String("alias", param.Name),
				slog.String("type", param.Type))
			continue
		}
		entry.Dependencies.Set(param.Name, model.NewDependencyEdge(param.Name, param.Type))
	}
	return entry
}
