// Package config 加载 coupling-lens.yaml，命令行参数在其之上覆盖。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/output"
)

// DefaultFileName 未指定 --config 时在当前目录查找的文件名
const DefaultFileName = "coupling-lens.yaml"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Language     string   `yaml:"language"`
	SourcePath   string   `yaml:"source_path"`
	FileFilter   string   `yaml:"file_filter"` // 文件路径正则，空表示不过滤
	Jobs         int      `yaml:"jobs"`
	OutDir       string   `yaml:"out_dir"`
	Formats      []string `yaml:"formats"`
	OnUnresolved string   `yaml:"on_unresolved"` // skip | abort
	LogLevel     string   `yaml:"log_level"`

	Filter FilterConfig `yaml:"filter"`
	Cache  CacheConfig  `yaml:"cache"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	Watch  WatchConfig  `yaml:"watch"`
}

type FilterConfig struct {
	IgnoreClasses             []string `yaml:"ignore_classes"`
	IgnoreDependencies        []string `yaml:"ignore_dependencies"`
	IgnoreNonCapitalisedTypes bool     `yaml:"ignore_non_capitalised_types"`
	Level                     string   `yaml:"level"` // raw | balanced | pure
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Clean    bool   `yaml:"clean"` // 导入前清空图
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

func DefaultConfig() Config {
	return Config{
		Language:     string(core.LangTypeScript),
		SourcePath:   ".",
		Jobs:         4,
		OutDir:       "coupling-output",
		OnUnresolved: string(coupling.SkipUnresolved),
		LogLevel:     "info",
		Filter:       FilterConfig{Level: "balanced"},
		Cache:        CacheConfig{Dir: ".coupling-cache"},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		Watch: WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load 读取配置文件，未出现的字段保留默认值。
// path 为空时尝试 DefaultFileName，文件不存在则直接返回默认配置。
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := core.ParseLanguage(c.Language); err != nil {
		errs = append(errs, err)
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if _, err := ParseFilterLevel(c.Filter.Level); err != nil {
		errs = append(errs, err)
	}
	switch coupling.UnresolvedPolicy(c.OnUnresolved) {
	case coupling.SkipUnresolved, coupling.AbortUnresolved:
	default:
		errs = append(errs, fmt.Errorf("on_unresolved must be skip or abort, got %q", c.OnUnresolved))
	}
	if _, err := c.OutTypes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func ParseFilterLevel(s string) (core.FilterLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return core.LevelRaw, nil
	case "", "balanced":
		return core.LevelBalanced, nil
	case "pure":
		return core.LevelPure, nil
	}
	return core.LevelRaw, fmt.Errorf("unknown filter level %q", s)
}

// FilterOptions 转换为过滤策略参数，调用前应已通过 Validate
func (c Config) FilterOptions() (core.FilterOptions, error) {
	lang, err := core.ParseLanguage(c.Language)
	if err != nil {
		return core.FilterOptions{}, err
	}
	level, err := ParseFilterLevel(c.Filter.Level)
	if err != nil {
		return core.FilterOptions{}, err
	}
	return core.FilterOptions{
		IgnoreClasses:             c.Filter.IgnoreClasses,
		IgnoreDependencies:        c.Filter.IgnoreDependencies,
		IgnoreNonCapitalisedTypes: c.Filter.IgnoreNonCapitalisedTypes,
		Level:                     level,
		Language:                  lang,
	}, nil
}

// OutTypes 空列表表示全部格式
func (c Config) OutTypes() ([]output.OutType, error) {
	if len(c.Formats) == 0 {
		return output.AllFormats(), nil
	}
	types := make([]output.OutType, 0, len(c.Formats))
	for _, f := range c.Formats {
		t, err := output.ParseOutType(f)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
