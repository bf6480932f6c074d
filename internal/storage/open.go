package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
	"github.com/shatami1/Comcare/internal/models"
)

// Backend 已打开的存储后端
type Backend struct {
	KV       KV
	Notifier Notifier
	Driver   string
}

// Open 根据配置打开存储后端
func Open(cfg config.StorageConfig) (*Backend, error) {
	switch cfg.Driver {
	case "", constants.StorageDriverMemory:
		return &Backend{KV: NewMemoryKV(), Notifier: NewMemoryNotifier(), Driver: constants.StorageDriverMemory}, nil
	case constants.StorageDriverRedis:
		kv, err := NewRedisKV(cfg.TTL())
		if err != nil {
			return nil, err
		}
		notifier, err := NewRedisNotifier()
		if err != nil {
			return nil, err
		}
		return &Backend{KV: kv, Notifier: notifier, Driver: constants.StorageDriverRedis}, nil
	case constants.StorageDriverSQLite, constants.StorageDriverPostgres, "postgresql":
		if cfg.Driver == constants.StorageDriverSQLite {
			if err := ensureSQLiteDir(cfg.DSN); err != nil {
				return nil, err
			}
		}
		db, err := models.OpenDB(cfg.Driver, cfg.DSN, models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
		}
		// 数据库后端只在进程内广播
		return &Backend{KV: NewGormKV(db, cfg.TTL()), Notifier: NewMemoryNotifier(), Driver: cfg.Driver}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir failed: %w", err)
	}
	return nil
}
