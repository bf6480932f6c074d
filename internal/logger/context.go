package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithFields 将日志字段挂到 context 上，后续 FromContext 会自动带出
func WithFields(ctx context.Context, kv ...interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(kv) == 0 {
		return ctx
	}
	fields := append(fieldsFrom(ctx), kv...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

// FromContext 返回带 context 字段的 SugaredLogger
func FromContext(ctx context.Context) *zap.SugaredLogger {
	return SW(fieldsFrom(ctx)...)
}

func fieldsFrom(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxKey{}).([]interface{})
	// 复制，避免多个子 context 共享底层数组
	out := make([]interface{}, len(fields))
	copy(out, fields)
	return out
}
