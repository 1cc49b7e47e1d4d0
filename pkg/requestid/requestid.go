// Package requestid 在 context 中传递请求追踪 ID，供日志与上游错误上报关联
package requestid

import "context"

type ctxKey struct{}

// With 返回携带 id 的 context
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From 读取 id，不存在时返回空串
func From(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
