package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shatami1/Comcare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKV 基于数据库表 kv_entries 的键值存储
type GormKV struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormKV 创建数据库存储
func NewGormKV(db *gorm.DB, ttl time.Duration) *GormKV {
	return &GormKV{db: db, ttl: ttl, now: time.Now}
}

// Get 读取，过期条目视为不存在
func (g *GormKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	var entry models.KVEntry
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(g.now()) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set 写入（upsert）
func (g *GormKV) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	now := g.now()
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: now}
	if g.ttl > 0 {
		expires := now.Add(g.ttl)
		entry.ExpiresAt = &expires
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

// Delete 删除
func (g *GormKV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Where("key = ?", key).Delete(&models.KVEntry{}).Error
}
