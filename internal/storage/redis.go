package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shatami1/Comcare/internal/cache"
	"github.com/shatami1/Comcare/internal/logger"
)

// ErrRedisDisabled Redis 未启用
var ErrRedisDisabled = errors.New("redis is not enabled")

// RedisKV 基于 Redis 的键值存储，键带全局前缀
type RedisKV struct {
	ttl time.Duration
}

// NewRedisKV 创建 Redis 存储，ttl 为 0 表示不过期
func NewRedisKV(ttl time.Duration) (*RedisKV, error) {
	if !cache.Enabled() {
		return nil, ErrRedisDisabled
	}
	return &RedisKV{ttl: ttl}, nil
}

// Get 读取
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	return cache.GetString(ctx, key)
}

// Set 写入
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return cache.SetString(ctx, key, value, r.ttl)
}

// Delete 删除
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return cache.Del(ctx, key)
}

// RedisNotifier 基于 Redis Pub/Sub 的跨进程通知
type RedisNotifier struct{}

// NewRedisNotifier 创建跨进程通知
func NewRedisNotifier() (*RedisNotifier, error) {
	if !cache.Enabled() {
		return nil, ErrRedisDisabled
	}
	return &RedisNotifier{}, nil
}

func notifyChannel(topic string) string {
	return cache.BuildKey("notify:" + topic)
}

// Publish 广播
func (r *RedisNotifier) Publish(ctx context.Context, topic string) error {
	client := cache.Client()
	if client == nil {
		return ErrRedisDisabled
	}
	return client.Publish(ctx, notifyChannel(topic), "changed").Err()
}

// Subscribe 订阅
func (r *RedisNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	client := cache.Client()
	if client == nil {
		return nil, ErrRedisDisabled
	}
	pubsub := client.Subscribe(ctx, notifyChannel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				logger.Warnw("storage_redis_unsubscribe_failed", "topic", topic, "error", err)
			}
		}()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
