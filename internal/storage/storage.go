// Package storage 提供购物车与访客状态使用的键值存储及变更通知
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyKey 键为空
var ErrEmptyKey = errors.New("storage key is empty")

// KV 字符串键值存储，写入为最后写入者胜出
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Notifier 按主题广播变更通知
//
// Subscribe 返回的 channel 在 ctx 结束后关闭；订阅者处理过慢时通知会被合并。
type Notifier interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, error)
}

// Prefixed 为所有键加上命名空间前缀
func Prefixed(kv KV, namespace string) KV {
	namespace = strings.Trim(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		return kv
	}
	return &prefixedKV{inner: kv, prefix: namespace + ":"}
}

type prefixedKV struct {
	inner  KV
	prefix string
}

func (p *prefixedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedKV) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixedKV) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
