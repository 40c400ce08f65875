package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/CodMac/coupling-lens/cache"
	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/parser"
)

type FileProcessor struct {
	Language    core.Language
	Concurrency int
	Cache       *cache.Cache // 可为 nil
	logger      *slog.Logger
}

func NewFileProcessor(lang core.Language, concurrency int, c *cache.Cache, logger *slog.Logger) *FileProcessor {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProcessor{
		Language:    lang,
		Concurrency: concurrency,
		Cache:       c,
		logger:      logger,
	}
}

// ProcessFiles 并行解析文件并提取源码模型，结果顺序与 filePaths 一致。
// SourceUnit.Path 为相对 rootPath 的路径。
func (fp *FileProcessor) ProcessFiles(ctx context.Context, rootPath string, filePaths []string) ([]*model.SourceUnit, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", rootPath, err)
	}

	units := make([]*model.SourceUnit, len(filePaths))
	err = fp.runParallel(ctx, filePaths, func(idx int, path string, parsers *parserSet) error {
		relPath := path
		if rel, err := filepath.Rel(absRoot, absPath(path)); err == nil {
			relPath = filepath.ToSlash(rel)
		}

		unit, err := fp.processFile(path, relPath, parsers)
		if err != nil {
			return err
		}
		units[idx] = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (fp *FileProcessor) processFile(path, relPath string, parsers *parserSet) (*model.SourceUnit, error) {
	// 1. 读取源码
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	lang := fp.Language.ForFile(path)

	// 2. 缓存命中则跳过解析
	if fp.Cache != nil {
		unit, ok, err := fp.Cache.Get(lang, relPath, source)
		if err != nil {
			fp.logger.Warn("parse cache read failed", slog.String("file", relPath), slog.String("error", err.Error()))
		} else if ok {
			return unit, nil
		}
	}

	// 3. 解析并提取源码模型
	p, err := parsers.get(lang)
	if err != nil {
		return nil, err
	}
	unit, err := parser.CollectSource(p, lang, relPath, source)
	if err != nil {
		return nil, err
	}

	if fp.Cache != nil {
		if err := fp.Cache.Put(lang, source, unit); err != nil {
			fp.logger.Warn("parse cache write failed", slog.String("file", relPath), slog.String("error", err.Error()))
		}
	}
	return unit, nil
}

// Analyze 解析全部文件后顺序执行耦合分析
func (fp *FileProcessor) Analyze(ctx context.Context, rootPath string, filePaths []string, builder *coupling.Builder) (*model.Program, []*model.SourceUnit, error) {
	units, err := fp.ProcessFiles(ctx, rootPath, filePaths)
	if err != nil {
		return nil, nil, err
	}
	p, err := builder.Build(units)
	if err != nil {
		return nil, units, err
	}
	return p, units, nil
}

// parserSet 单个 worker 持有的解析器，按语言懒创建 (TypeScript 项目中 .ts 与 .tsx 语法不同)
type parserSet struct {
	parsers map[core.Language]*parser.TreeSitterParser
}

func (s *parserSet) get(lang core.Language) (*parser.TreeSitterParser, error) {
	if p, ok := s.parsers[lang]; ok {
		return p, nil
	}
	p, err := parser.NewParser(lang)
	if err != nil {
		return nil, err
	}
	s.parsers[lang] = p
	return p, nil
}

func (s *parserSet) close() {
	for _, p := range s.parsers {
		p.Close()
	}
}

type job struct {
	idx  int
	path string
}

// runParallel 内部并发调度器：固定数量的 worker，每个 worker 独占自己的解析器
func (fp *FileProcessor) runParallel(ctx context.Context, paths []string, task func(int, string, *parserSet) error) error {
	jobs := make(chan job, len(paths))
	for i, p := range paths {
		jobs <- job{idx: i, path: p}
	}
	close(jobs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fp.Concurrency)

	workers := min(fp.Concurrency, len(paths))
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			parsers := &parserSet{parsers: make(map[core.Language]*parser.TreeSitterParser)}
			defer parsers.close()

			for j := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := task(j.idx, j.path, parsers); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
