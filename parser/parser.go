package parser

import (
	"errors"
	"fmt"
	"os"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/CodMac/coupling-lens/core"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	languageMu  sync.RWMutex
	languageMap = make(map[core.Language]*sitter.Language)
)

// RegisterLanguage 由语言插件在 init 中注册其 tree-sitter 语法
func RegisterLanguage(lang core.Language, tsLang *sitter.Language) {
	languageMu.Lock()
	defer languageMu.Unlock()
	languageMap[lang] = tsLang
}

func GetLanguage(lang core.Language) (*sitter.Language, error) {
	languageMu.RLock()
	defer languageMu.RUnlock()
	tsLang, ok := languageMap[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return tsLang, nil
}

// Parser 定义了所有语言解析器的通用能力
type Parser interface {
	// ParseFile 读取文件并解析，调用方负责关闭返回的 Tree
	ParseFile(filePath string) (*sitter.Tree, []byte, error)
	Parse(source []byte) (*sitter.Tree, error)
	Close()
}

// TreeSitterParser 单个 tree-sitter 解析器，非并发安全，每个 worker 持有一个
type TreeSitterParser struct {
	Language core.Language
	tsParser *sitter.Parser
}

func NewParser(lang core.Language) (*TreeSitterParser, error) {
	tsLang, err := GetLanguage(lang)
	if err != nil {
		return nil, err
	}

	tsParser := sitter.NewParser()
	if err := tsParser.SetLanguage(tsLang); err != nil {
		tsParser.Close()
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	return &TreeSitterParser{Language: lang, tsParser: tsParser}, nil
}

func (p *TreeSitterParser) Parse(source []byte) (*sitter.Tree, error) {
	tree := p.tsParser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter failed to parse %s source", p.Language)
	}
	return tree, nil
}

func (p *TreeSitterParser) ParseFile(filePath string) (*sitter.Tree, []byte, error) {
	// 1. 读取文件内容
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	// 2. 解析
	tree, err := p.Parse(content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return tree, content, nil
}

func (p *TreeSitterParser) Close() {
	if p.tsParser != nil {
		p.tsParser.Close()
	}
}
