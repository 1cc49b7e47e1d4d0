package errors

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/pkg/requestid"
)

// Reporter 共享的错误上报协作者
// 调用方上报后继续以安全默认值执行，不向上传播异常
type Reporter interface {
	Report(ctx context.Context, op string, err error, fields ...zap.Field)
}

type zapReporter struct {
	logger *zap.Logger
}

// NewZapReporter 基于 zap 的上报实现
func NewZapReporter(logger *zap.Logger) Reporter {
	return &zapReporter{logger: logger.Named("reporter")}
}

func (r *zapReporter) Report(ctx context.Context, op string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	fs := make([]zap.Field, 0, len(fields)+3)
	fs = append(fs, zap.String("op", op), zap.Error(err))
	if rid := requestid.From(ctx); rid != "" {
		fs = append(fs, zap.String("request_id", rid))
	}
	fs = append(fs, fields...)
	r.logger.Warn("上游调用失败", fs...)
}

// Reported 单条上报记录
type Reported struct {
	Op  string
	Err error
}

// RecordingReporter 记录所有上报（测试与诊断用）
type RecordingReporter struct {
	mu      sync.Mutex
	entries []Reported
}

func (r *RecordingReporter) Report(_ context.Context, op string, err error, _ ...zap.Field) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Reported{Op: op, Err: err})
}

// Entries 返回上报记录副本
func (r *RecordingReporter) Entries() []Reported {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Reported, len(r.entries))
	copy(out, r.entries)
	return out
}
