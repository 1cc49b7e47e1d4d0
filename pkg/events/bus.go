package events

import "sync"

// Handler 事件回调
type Handler[T any] func(event T)

// Bus 类型化的发布/订阅总线
//
// 投递语义：
//   - Publish 同步执行，按订阅先后顺序依次调用
//   - 投递基于发布时刻的订阅快照：回调内取消订阅（含取消自身）
//     不影响本次投递，从下一次 Publish 起生效
//   - 回调内新增的订阅同样从下一次 Publish 起生效
type Bus[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn Handler[T]
}

// Subscription 订阅句柄
type Subscription struct {
	unsubscribe func()
	once        sync.Once
}

// Unsubscribe 取消订阅，可重复调用
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

// NewBus 创建事件总线
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe 注册回调，返回可取消的订阅句柄
func (b *Bus[T]) Subscribe(fn Handler[T]) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription[T]{id: id, fn: fn})

	return &Subscription{unsubscribe: func() { b.remove(id) }}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := make([]subscription[T], 0, len(b.handlers))
	for _, h := range b.handlers {
		if h.id != id {
			kept = append(kept, h)
		}
	}
	b.handlers = kept
}

// Publish 向发布时刻的全部订阅者投递事件
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	snapshot := make([]subscription[T], len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.RUnlock()

	for _, h := range snapshot {
		h.fn(event)
	}
}

// Len 当前订阅者数量
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
