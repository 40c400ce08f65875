package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/spf13/cobra"

	"github.com/CodMac/coupling-lens/cache"
	"github.com/CodMac/coupling-lens/config"
	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/processor"
)

// globalFlags 所有子命令共享的参数，显式指定时覆盖配置文件
type globalFlags struct {
	configPath string
	lang       string
	path       string
	filter     string
	jobs       int
	outDir     string
	verbose    bool
}

// skipDirs 扫描源文件时整段跳过的目录
var skipDirs = map[string]bool{".git": true, "node_modules": true, "vendor": true, "dist": true}

// loadConfig 读取配置文件并应用命令行覆盖
func (g *globalFlags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = g.lang
	}
	if flags.Changed("path") {
		cfg.SourcePath = g.path
	}
	if flags.Changed("filter") {
		cfg.FileFilter = g.filter
	}
	if flags.Changed("jobs") {
		cfg.Jobs = g.jobs
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = g.outDir
	}
	if g.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// analysis 一次完整分析的结果
type analysis struct {
	Program *model.Program
	Units   []*model.SourceUnit
	Files   []string
	builder *coupling.Builder
}

// classFiles 只包含进入 Program 的类
func (a *analysis) classFiles() map[string]string {
	return a.builder.ClassFiles(a.Units)
}

// runAnalysis 扫描、并行解析并构建耦合模型
func runAnalysis(ctx context.Context, cfg config.Config, logger *slog.Logger) (*analysis, error) {
	files, err := scanSources(cfg, logger)
	if err != nil {
		return nil, err
	}
	return analyzeFiles(ctx, cfg, files, logger)
}

func scanSources(cfg config.Config, logger *slog.Logger) ([]string, error) {
	lang, err := core.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	files, err := scanFiles(cfg.SourcePath, cfg.FileFilter, lang)
	if err != nil {
		return nil, fmt.Errorf("扫描文件失败: %w", err)
	}
	logger.Debug("source files scanned", slog.String("root", cfg.SourcePath), slog.Int("files", len(files)))
	return files, nil
}

// analyzeFiles 并行解析给定文件并构建耦合模型
func analyzeFiles(ctx context.Context, cfg config.Config, files []string, logger *slog.Logger) (*analysis, error) {
	lang, err := core.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.FilterOptions()
	if err != nil {
		return nil, err
	}
	policy, err := core.NewPatternFilter(opts)
	if err != nil {
		return nil, err
	}
	builder := coupling.NewBuilder(policy, coupling.UnresolvedPolicy(cfg.OnUnresolved), opts.Level == core.LevelPure, logger)

	var c *cache.Cache
	if cfg.Cache.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Path = cfg.Cache.Dir
		c, err = cache.Open(cacheCfg)
		if err != nil {
			return nil, err
		}
		defer func() {
			hits, misses := c.Stats()
			logger.Debug("parse cache", slog.Int64("hits", hits), slog.Int64("misses", misses))
			if cerr := c.Close(); cerr != nil {
				logger.Warn("failed to close parse cache", slog.String("error", cerr.Error()))
			}
		}()
	}

	fp := processor.NewFileProcessor(lang, cfg.Jobs, c, logger)
	p, units, err := fp.Analyze(ctx, cfg.SourcePath, files, builder)
	if err != nil {
		return nil, err
	}
	return &analysis{Program: p, Units: units, Files: files, builder: builder}, nil
}

// scanFiles 收集语言对应的源文件，filter 为可选的路径正则，结果按路径排序
func scanFiles(root, filter string, lang core.Language) ([]string, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		if re, err = regexp.Compile(filter); err != nil {
			return nil, err
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if lang.MatchFile(path) && (re == nil || re.MatchString(filepath.ToSlash(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
