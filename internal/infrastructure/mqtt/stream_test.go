package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStreamDeliversInOrder(t *testing.T) {
	s := newStream("zigbee2mqtt/lamp", 3)

	for _, p := range []string{"a", "b", "c"} {
		if !s.deliver([]byte(p)) {
			t.Fatalf("deliver(%q) = false on open stream", p)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		got := <-s.Payloads()
		if string(got) != want {
			t.Errorf("payload = %q, want %q", got, want)
		}
	}
}

func TestStreamDeliverAfterClose(t *testing.T) {
	s := newStream("zigbee2mqtt/lamp", 1)
	s.close(nil)

	if s.deliver([]byte("late")) {
		t.Error("deliver() = true after close")
	}
}

func TestStreamCloseUnblocksDeliver(t *testing.T) {
	s := newStream("zigbee2mqtt/lamp", 0)

	result := make(chan bool, 1)
	go func() {
		result <- s.deliver([]byte("blocked"))
	}()

	time.Sleep(20 * time.Millisecond)
	s.close(nil)

	select {
	case ok := <-result:
		if ok {
			t.Error("deliver() = true, want false after close")
		}
	case <-time.After(time.Second):
		t.Fatal("deliver() still blocked after close")
	}
}

func TestStreamCloseOnce(t *testing.T) {
	s := newStream("zigbee2mqtt/lamp", 0)
	first := errors.New("first")

	var wg sync.WaitGroup
	s.close(first)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.close(errors.New("later"))
		}()
	}
	wg.Wait()

	if s.Err() != first {
		t.Errorf("Err() = %v, want %v", s.Err(), first)
	}
}

func TestStreamNegativeBuffer(t *testing.T) {
	s := newStream("zigbee2mqtt/lamp", -5)

	if cap(s.payloads) != 0 {
		t.Errorf("cap = %d, want 0", cap(s.payloads))
	}
}
