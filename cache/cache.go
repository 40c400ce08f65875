// Package cache 以源码内容哈希为键缓存语言插件提取的源码模型，
// 内容未变化的文件无需重新解析。
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/model"
)

type Config struct {
	// Path 持久化目录，InMemory 为 false 时必填
	Path string

	InMemory bool

	SyncWrites bool

	// Logger 为 nil 时关闭 badger 内部日志
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{SyncWrites: true}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Cache 并发安全，可被多个解析 worker 共享
type Cache struct {
	db     *badger.DB
	hits   atomic.Int64
	misses atomic.Int64
}

func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Key unit/<lang>/<sha256(src)>
func Key(lang core.Language, source []byte) []byte {
	sum := sha256.Sum256(source)
	return []byte("unit/" + string(lang) + "/" + hex.EncodeToString(sum[:]))
}

// Get 命中时返回的源码模型 Path 改写为 filePath (同内容文件可能位于不同路径)
func (c *Cache) Get(lang core.Language, filePath string, source []byte) (*model.SourceUnit, bool, error) {
	var unit model.SourceUnit
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(lang, source))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &unit)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", filePath, err)
	}

	c.hits.Add(1)
	unit.Path = filePath
	for i := range unit.Classes {
		if unit.Classes[i].Location != nil {
			unit.Classes[i].Location.FilePath = filePath
		}
	}
	return &unit, true, nil
}

func (c *Cache) Put(lang core.Language, source []byte, unit *model.SourceUnit) error {
	val, err := json.Marshal(unit)
	if err != nil {
		return fmt.Errorf("encode source unit: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(lang, source), val)
	})
	if err != nil {
		return fmt.Errorf("cache put %s: %w", unit.Path, err)
	}
	return nil
}

// Stats 本次进程内的命中与未命中次数
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
