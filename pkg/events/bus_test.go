package events

import (
	"reflect"
	"testing"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus[string]()
	var got []string

	bus.Subscribe(func(e string) { got = append(got, "a:"+e) })
	bus.Subscribe(func(e string) { got = append(got, "b:"+e) })

	bus.Publish("x")

	want := []string{"a:x", "b:x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus[int]()
	calls := 0
	sub := bus.Subscribe(func(int) { calls++ })

	bus.Publish(1)
	sub.Unsubscribe()
	sub.Unsubscribe() // 重复取消不应 panic
	bus.Publish(2)

	if calls != 1 {
		t.Errorf("期望回调 1 次，实际 %d", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("期望无订阅者，实际 %d", bus.Len())
	}
}

func TestBus_UnsubscribeDuringDispatch(t *testing.T) {
	bus := NewBus[int]()
	var got []string

	var second *Subscription
	bus.Subscribe(func(int) {
		got = append(got, "first")
		second.Unsubscribe()
	})
	second = bus.Subscribe(func(int) { got = append(got, "second") })

	// 本次投递基于快照，second 仍会收到
	bus.Publish(1)
	if !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Fatalf("首次投递结果不符: %v", got)
	}

	got = nil
	bus.Publish(2)
	if !reflect.DeepEqual(got, []string{"first"}) {
		t.Errorf("取消后的投递结果不符: %v", got)
	}
}

func TestBus_SubscribeDuringDispatch(t *testing.T) {
	bus := NewBus[int]()
	late := 0
	bus.Subscribe(func(int) {
		bus.Subscribe(func(int) { late++ })
	})

	bus.Publish(1)
	if late != 0 {
		t.Errorf("回调内新增的订阅不应收到本次事件，实际 %d", late)
	}
	bus.Publish(2)
	if late != 1 {
		t.Errorf("期望新增订阅收到 1 次，实际 %d", late)
	}
}
