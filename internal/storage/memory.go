package storage

import (
	"context"
	"sync"
)

// MemoryKV 进程内键值存储
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV 创建进程内存储
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get 读取
func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

// Set 写入
func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete 删除
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MemoryNotifier 进程内通知广播
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewMemoryNotifier 创建进程内通知
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string]map[chan struct{}]struct{})}
}

// Publish 通知所有订阅者，不阻塞
func (n *MemoryNotifier) Publish(ctx context.Context, topic string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe 订阅主题
func (n *MemoryNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	if n.subs[topic] == nil {
		n.subs[topic] = make(map[chan struct{}]struct{})
	}
	n.subs[topic][ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs[topic], ch)
		if len(n.subs[topic]) == 0 {
			delete(n.subs, topic)
		}
		close(ch)
		n.mu.Unlock()
	}()
	return ch, nil
}

// NopNotifier 不做任何通知
type NopNotifier struct{}

// Publish 忽略
func (NopNotifier) Publish(ctx context.Context, topic string) error { return nil }

// Subscribe 返回在 ctx 结束时关闭的空 channel
func (NopNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
