package models

import "time"

// KVEntry 键值存储表
type KVEntry struct {
	Key       string     `gorm:"primaryKey;type:varchar(191)" json:"key"` // 完整键（含命名空间）
	Value     string     `gorm:"type:text;not null" json:"value"`         // 原始字符串值
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`       // 过期时间，空表示不过期
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (KVEntry) TableName() string {
	return "kv_entries"
}
