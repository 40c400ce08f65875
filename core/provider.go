package core

import (
	"errors"
	"fmt"

	"github.com/CodMac/coupling-lens/model"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var ErrNoProvider = errors.New("no source model provider registered")

// SourceModelProvider 从语法树中提取顶层类声明、构造参数、方法及调用表达式。
type SourceModelProvider interface {
	// Collect 遍历 AST，返回该文件的源码模型。返回值不持有任何 AST 节点。
	Collect(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*model.SourceUnit, error)
}

var providerMap = make(map[Language]SourceModelProvider)

// RegisterProvider 注册一个语言与其对应的 SourceModelProvider
func RegisterProvider(lang Language, provider SourceModelProvider) {
	providerMap[lang] = provider
}

// GetProvider 根据语言类型获取对应的 SourceModelProvider 实例。
func GetProvider(lang Language) (SourceModelProvider, error) {
	provider, ok := providerMap[lang]
	if !ok {
		return nil, fmt.Errorf("%w for language: %s", ErrNoProvider, lang)
	}

	return provider, nil
}
