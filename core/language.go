package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language 支持分析的源码语言
type Language string

const (
	LangJava       Language = "java"
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

var languageExtensions = map[Language][]string{
	LangJava:       {".java"},
	LangGo:         {".go"},
	LangTypeScript: {".ts", ".tsx"},
	LangTSX:        {".tsx"},
}

// ParseLanguage 接受常见别名 (ts, golang)
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return LangJava, nil
	case "go", "golang":
		return LangGo, nil
	case "ts", "typescript":
		return LangTypeScript, nil
	case "tsx":
		return LangTSX, nil
	}
	return "", fmt.Errorf("unsupported language: %q", s)
}

// Extensions 语言对应的源文件后缀
func (l Language) Extensions() []string {
	return languageExtensions[l]
}

// MatchFile 判断文件是否属于该语言 (TypeScript 声明文件 .d.ts 除外)
func (l Language) MatchFile(path string) bool {
	if l == LangTypeScript && strings.HasSuffix(path, ".d.ts") {
		return false
	}
	if l == LangGo && strings.HasSuffix(path, "_test.go") {
		return false
	}
	ext := filepath.Ext(path)
	for _, e := range languageExtensions[l] {
		if e == ext {
			return true
		}
	}
	return false
}

// ForFile 同一分析中 TypeScript 项目的 .tsx 文件使用 TSX 语法解析
func (l Language) ForFile(path string) Language {
	if l == LangTypeScript && filepath.Ext(path) == ".tsx" {
		return LangTSX
	}
	return l
}
