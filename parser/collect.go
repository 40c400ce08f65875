package parser

import (
	"fmt"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
)

// CollectSource 解析源码并交给语言插件提取源码模型，语法树在返回前释放
func CollectSource(p Parser, lang core.Language, filePath string, source []byte) (*model.SourceUnit, error) {
	provider, err := core.GetProvider(lang)
	if err != nil {
		return nil, err
	}

	tree, err := p.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	defer tree.Close()

	unit, err := provider.Collect(tree.RootNode(), filePath, source)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", filePath, err)
	}
	unit.Language = string(lang)
	return unit, nil
}
