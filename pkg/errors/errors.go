package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUpstreamUnavailable 上游接口暂不可用（网络错误或 5xx）
var ErrUpstreamUnavailable = errors.New("上游服务暂不可用，请稍后重试")
