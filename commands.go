package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodMac/coupling-lens/config"
	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/graphdb"
	"github.com/CodMac/coupling-lens/mcpserver"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/output"
	"github.com/CodMac/coupling-lens/watch"
)

const (
	MaxMermaidNodes = 200
	MaxMermaidEdges = 400
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "coupling-lens",
		Short: "Static coupling analysis for constructor-injected codebases",
		Long: `coupling-lens reads classes whose collaborators are injected through the
constructor, attributes method calls to those collaborators and reports
dependencies, dependents and rankings.

Examples:
  coupling-lens analyze --lang ts --path ./src
  coupling-lens rank --path ./src --limit 10
  coupling-lens graph --clustered > graph.dot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "配置文件 (默认 ./"+config.DefaultFileName+")")
	pf.StringVar(&g.lang, "lang", "typescript", "分析语言: typescript, tsx, java, go")
	pf.StringVar(&g.path, "path", ".", "源码根路径")
	pf.StringVar(&g.filter, "filter", "", "文件路径过滤正则")
	pf.IntVar(&g.jobs, "jobs", 4, "并发数")
	pf.StringVar(&g.outDir, "out-dir", "coupling-output", "输出目录")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(
		newAnalyzeCmd(g),
		newRankCmd(g),
		newGraphCmd(g),
		newWatchCmd(g),
		newNeo4jCmd(g),
		newMCPCmd(g),
	)
	return rootCmd
}

// --- analyze ---

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var (
		formats      []string
		level        string
		onUnresolved string
		useCache     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the source tree and write all outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Formats = formats
			}
			if cmd.Flags().Changed("level") {
				cfg.Filter.Level = level
			}
			if cmd.Flags().Changed("on-unresolved") {
				cfg.OnUnresolved = onUnresolved
			}
			if cmd.Flags().Changed("cache") {
				cfg.Cache.Enabled = useCache
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = analyzeAndExport(cmd.Context(), cmd.ErrOrStderr(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&formats, "format", nil, "输出格式: json, dot, clustered, jsonl, mermaid (默认全部)")
	cmd.Flags().StringVar(&level, "level", "balanced", "过滤等级: raw, balanced, pure")
	cmd.Flags().StringVar(&onUnresolved, "on-unresolved", string(coupling.SkipUnresolved), "构造函数无法解析时: skip, abort")
	cmd.Flags().BoolVar(&useCache, "cache", false, "启用解析缓存")
	return cmd
}

// analyzeAndExport 完整流程：扫描 -> 分析 -> 导出，进度输出到 progress
func analyzeAndExport(ctx context.Context, progress io.Writer, cfg config.Config, logger *slog.Logger) (*analysis, error) {
	startTime := time.Now()

	// 1. 扫描文件
	fmt.Fprintf(progress, "[1/4] 🔍 正在扫描目录: %s\n", cfg.SourcePath)
	files, err := scanSources(cfg, logger)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(progress, "    找到 %d 个源文件\n", len(files))

	// 2. 执行核心分析过程
	fmt.Fprintf(progress, "[2/4] ⚙️  正在分析构造注入与方法调用 (Level: %s)...\n", cfg.Filter.Level)
	a, err := analyzeFiles(ctx, cfg, files, logger)
	if err != nil {
		return nil, fmt.Errorf("分析执行失败: %w", err)
	}
	fmt.Fprintf(progress, "    识别 %d 个类\n", a.Program.Len())

	// 3. 执行导出逻辑
	fmt.Fprintf(progress, "[3/4] 💾 正在写入结果文件...\n")
	formats, err := cfg.OutTypes()
	if err != nil {
		return nil, err
	}
	formats = limitMermaid(progress, formats, a.Program)

	written, err := output.NewExporter(cfg.OutDir, formats, logger).Export(a.Program, a.classFiles())
	if err != nil {
		return nil, fmt.Errorf("导出失败: %w", err)
	}
	fmt.Fprintf(progress, "    ✅ 完成: 写入 %d 个文件到 %s\n", len(written), cfg.OutDir)
	fmt.Fprintf(progress, "\n[4/4] ✨ 分析结束! 总耗时: %v\n", time.Since(startTime).Round(time.Millisecond))
	return a, nil
}

// limitMermaid 规模过大时 Mermaid 渲染可能失败，自动跳过
func limitMermaid(progress io.Writer, formats []output.OutType, p *model.Program) []output.OutType {
	edges := 0
	p.Each(func(_ string, e *model.ClassEntry) { edges += e.Dependencies.Len() })
	if p.Len() <= MaxMermaidNodes && edges <= MaxMermaidEdges {
		return formats
	}

	kept := make([]output.OutType, 0, len(formats))
	for _, f := range formats {
		if f == output.Mermaid {
			fmt.Fprintf(progress, "    ⚠️  规模过大(%d 节点, %d 边)，跳过 Mermaid 渲染\n", p.Len(), edges)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// --- rank ---

func newRankCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print classes ranked by dependencies and dependents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := runAnalysis(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, output.RenderRankTable("Most dependencies", "Dependencies", coupling.RankByDependencies(a.Program), limit))
			fmt.Fprintln(out)
			fmt.Fprintln(out, output.RenderRankTable("Most dependents", "Dependents", coupling.RankByDependents(a.Program), limit))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "每个列表最多显示的类数 (0 = 全部)")
	return cmd
}

// --- graph ---

func newGraphCmd(g *globalFlags) *cobra.Command {
	var clustered bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the dependency graph in DOT format",
		Long: `Print the dependency graph in Graphviz DOT format.

The clustered mode groups called methods into one cluster per dependency
type. It does not link caller methods to callee methods.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := runAnalysis(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			if clustered {
				fmt.Fprint(cmd.OutOrStdout(), output.RenderClusteredDOT(a.Program))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), output.RenderDOT(a.Program))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clustered, "clustered", false, "按依赖类型分组输出被调用的方法")
	return cmd
}

// --- watch ---

func newWatchCmd(g *globalFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever source files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Watch.Debounce = debounce
			}
			lang, err := core.ParseLanguage(cfg.Language)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			progress := cmd.ErrOrStderr()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := analyzeAndExport(ctx, progress, cfg, logger); err != nil {
				return err
			}

			opts := watch.DefaultOptions()
			opts.Debounce = cfg.Watch.Debounce
			opts.Match = lang.MatchFile
			opts.Logger = logger
			w, err := watch.New(cfg.SourcePath, func(ctx context.Context, changes []watch.Change) {
				logger.Info("source changed, re-analyzing", slog.Int("files", len(changes)))
				if _, err := analyzeAndExport(ctx, progress, cfg, logger); err != nil {
					logger.Error("re-analysis failed", slog.String("error", err.Error()))
				}
			}, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(progress, "👀 正在监听 %s (Ctrl+C 退出)\n", cfg.SourcePath)
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "变化合并窗口")
	return cmd
}

// --- neo4j ---

func newNeo4jCmd(g *globalFlags) *cobra.Command {
	var (
		uri, user, password, database string
		clean                         bool
	)

	cmd := &cobra.Command{
		Use:   "neo4j",
		Short: "Load the coupling graph into Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("uri") {
				cfg.Neo4j.URI = uri
			}
			if flags.Changed("user") {
				cfg.Neo4j.User = user
			}
			if flags.Changed("password") {
				cfg.Neo4j.Password = password
			}
			if flags.Changed("database") {
				cfg.Neo4j.Database = database
			}
			if flags.Changed("clean") {
				cfg.Neo4j.Clean = clean
			}
			if cfg.Neo4j.Password == "" {
				cfg.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")
			}

			ctx := cmd.Context()
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			a, err := runAnalysis(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return loadNeo4j(ctx, cfg.Neo4j, a.Program, logger)
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "bolt://localhost:7687", "Neo4j bolt URI")
	cmd.Flags().StringVar(&user, "user", "neo4j", "Neo4j 用户名")
	cmd.Flags().StringVar(&password, "password", "", "Neo4j 密码 (默认读取 NEO4J_PASSWORD)")
	cmd.Flags().StringVar(&database, "database", "neo4j", "Neo4j 数据库")
	cmd.Flags().BoolVar(&clean, "clean", false, "导入前清空已有的耦合图")
	return cmd
}

func loadNeo4j(ctx context.Context, cfg config.Neo4jConfig, p *model.Program, logger *slog.Logger) error {
	loader, err := graphdb.NewLoader(cfg.URI, cfg.User, cfg.Password, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer loader.Close(ctx)

	if err := loader.Verify(ctx); err != nil {
		return err
	}
	if err := loader.CreateIndexes(ctx); err != nil {
		return err
	}
	if cfg.Clean {
		if err := loader.CleanGraph(ctx); err != nil {
			return err
		}
	}
	return loader.LoadProgram(ctx, p)
}

// --- mcp ---

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout 为协议通道，日志只能写 stderr
			logger := newLogger(os.Stderr, cfg)
			s := mcpserver.New("coupling-lens", version, mcpAnalyzer(cfg, logger))
			return s.Serve()
		},
	}
}

func mcpAnalyzer(cfg config.Config, logger *slog.Logger) mcpserver.AnalyzeFunc {
	return func(ctx context.Context, path string) (*model.Program, error) {
		c := cfg
		c.SourcePath = path
		a, err := runAnalysis(ctx, c, logger)
		if err != nil {
			return nil, err
		}
		return a.Program, nil
	}
}
