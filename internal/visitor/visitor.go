// Package visitor 保存访客联系信息与页面访问记录
package visitor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/storage"
)

const (
	keyContact   = "userInfo"
	keyPageViews = "pageViews"
	// 页面访问记录上限，超出时丢弃最早的记录
	maxPageViews = 200
)

// Store 访客状态存储
type Store struct {
	kv  storage.KV
	now func() time.Time
}

// NewStore 创建访客状态存储
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Contact 读取保存的联系信息，不存在时返回零值
func (s *Store) Contact(ctx context.Context) models.ContactProfile {
	var profile models.ContactProfile
	raw, ok, err := s.kv.Get(ctx, keyContact)
	if err != nil || !ok {
		return profile
	}
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		logger.FromContext(ctx).Debugw("visitor_contact_corrupt", "error", err)
		return models.ContactProfile{}
	}
	return profile
}

// SaveContact 保存联系信息，空字段不覆盖已有值
func (s *Store) SaveContact(ctx context.Context, profile models.ContactProfile) (models.ContactProfile, error) {
	current := s.Contact(ctx)
	if v := strings.TrimSpace(profile.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(profile.Email); v != "" {
		current.Email = v
	}
	if v := strings.TrimSpace(profile.Phone); v != "" {
		current.Phone = v
	}
	payload, err := json.Marshal(current)
	if err != nil {
		return models.ContactProfile{}, err
	}
	if err := s.kv.Set(ctx, keyContact, string(payload)); err != nil {
		return models.ContactProfile{}, err
	}
	return current, nil
}

// PageViews 读取访问记录
func (s *Store) PageViews(ctx context.Context) []models.PageView {
	raw, ok, err := s.kv.Get(ctx, keyPageViews)
	if err != nil || !ok {
		return []models.PageView{}
	}
	var views []models.PageView
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		return []models.PageView{}
	}
	return views
}

// TrackPageView 追加一条访问记录
func (s *Store) TrackPageView(ctx context.Context, view models.PageView) error {
	if view.Timestamp.IsZero() {
		view.Timestamp = s.now().UTC()
	}
	views := append(s.PageViews(ctx), view)
	if len(views) > maxPageViews {
		views = views[len(views)-maxPageViews:]
	}
	payload, err := json.Marshal(views)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPageViews, string(payload))
}
