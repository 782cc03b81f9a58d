package changefeed

import (
	"testing"
	"time"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus[int](4)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(7)

	for _, ch := range []chan int{a, c} {
		select {
		case v := <-ch:
			if v != 7 {
				t.Fatalf("got %d, want 7", v)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive value")
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus[int](1)
	ch := b.Subscribe()

	b.Publish(1)
	b.Publish(2) // buffer full, dropped

	if v := <-ch; v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected no second value, got %d", v)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus[string](0)
	ch := b.Subscribe()
	if n := b.Subscribers(); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}

	b.Unsubscribe(ch)
	b.Unsubscribe(ch) // second call is a no-op

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	if n := b.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
	b.Publish("after") // must not panic on closed channel
}
