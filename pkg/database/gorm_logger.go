package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studentenschaft/Biddit2-sub002/pkg/requestid"
)

// 超过该耗时的 SQL 以 Warn 级别记录
const slowQueryThreshold = 200 * time.Millisecond

// zapGormLogger 将 GORM 日志写入 zap
// 记录未找到不视为错误（业务层会映射为 ErrXxxNotFound）
type zapGormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

func newGormLogger(logger *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return &zapGormLogger{
		logger: logger.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:  level,
		slow:   slowQueryThreshold,
	}
}

func (l *zapGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *zapGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...), l.ctxFields(ctx)...)
	}
}

func (l *zapGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...), l.ctxFields(ctx)...)
	}
}

func (l *zapGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...), l.ctxFields(ctx)...)
	}
}

func (l *zapGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	fields := func() []zap.Field {
		sql, rows := fc()
		fs := append(l.ctxFields(ctx), zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
		return fs
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.Error("SQL 执行失败", append(fields(), zap.Error(err))...)
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		l.logger.Warn("慢查询", fields()...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("SQL", fields()...)
	}
}

func (l *zapGormLogger) ctxFields(ctx context.Context) []zap.Field {
	if rid := requestid.From(ctx); rid != "" {
		return []zap.Field{zap.String("request_id", rid)}
	}
	return nil
}
