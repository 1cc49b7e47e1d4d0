package session

import (
	"sync"
	"time"

	"github.com/studentenschaft/Biddit2-sub002/pkg/events"
)

// Expired 会话失效事件
type Expired struct {
	UserID    string
	SessionID string // 触发失效的会话 jti
	Failures  int
	At        time.Time
}

// Tracker 上游 Token 连续刷新失败计数器
//
// 每个用户独立计数；连续失败达到阈值时发布一次 Expired 事件，
// 之后计数归零，成功调用同样将计数归零。
type Tracker struct {
	mu          sync.Mutex
	maxFailures int
	failures    map[string]int
	bus         *events.Bus[Expired]
	now         func() time.Time
}

// NewTracker 创建计数器，maxFailures < 1 时按 1 处理
func NewTracker(maxFailures int, bus *events.Bus[Expired]) *Tracker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if bus == nil {
		bus = events.NewBus[Expired]()
	}
	return &Tracker{
		maxFailures: maxFailures,
		failures:    make(map[string]int),
		bus:         bus,
		now:         time.Now,
	}
}

// Events 会话事件总线
func (t *Tracker) Events() *events.Bus[Expired] {
	return t.bus
}

// RecordFailure 记录一次失败，返回本次是否判定会话失效
func (t *Tracker) RecordFailure(userID, sessionID string) bool {
	t.mu.Lock()
	t.failures[userID]++
	n := t.failures[userID]
	expired := n >= t.maxFailures
	if expired {
		delete(t.failures, userID)
	}
	t.mu.Unlock()

	if expired {
		// 锁外投递，订阅者可以安全回调 Tracker
		t.bus.Publish(Expired{UserID: userID, SessionID: sessionID, Failures: n, At: t.now()})
	}
	return expired
}

// RecordSuccess 成功调用后清零
func (t *Tracker) RecordSuccess(userID string) {
	t.Reset(userID)
}

// Reset 清零指定用户
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, userID)
}

// ResetAll 清零全部用户
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = make(map[string]int)
}

// Failures 当前连续失败次数
func (t *Tracker) Failures(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures[userID]
}
