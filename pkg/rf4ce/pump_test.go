package rf4ce

import (
	"sync"
	"testing"
	"time"
)

func TestPacketPumpDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got [][]byte

	p := NewPacketPump(4, func(frame []byte) {
		mu.Lock()
		got = append(got, frame)
		mu.Unlock()
	})
	p.Start()

	for i := 0; i < 3; i++ {
		if !p.Feed([]byte{byte(i)}) {
			t.Fatalf("feed %d: queue unexpectedly full", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("handler only saw %d of 3 frames", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	p.Stop()
	p.Join()

	for i, frame := range got {
		if frame[0] != byte(i) {
			t.Fatalf("frame %d out of order: got %v", i, frame)
		}
	}
}

func TestPacketPumpFeedDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	p := NewPacketPump(1, func(frame []byte) {
		<-block
	})
	p.Start()

	if !p.Feed([]byte("first")) {
		t.Fatal("first feed should succeed")
	}
	// Give the worker a chance to pick up "first" and block on it.
	time.Sleep(50 * time.Millisecond)
	if !p.Feed([]byte("second")) {
		t.Fatal("second feed should still fit in the queue")
	}
	if p.Feed([]byte("third")) {
		t.Fatal("third feed should be dropped: queue and in-flight handler are both occupied")
	}

	close(block)
	p.Stop()
	p.Join()
}

func TestPacketPumpJoinReturnsAfterStop(t *testing.T) {
	p := NewPacketPump(1, func([]byte) {})
	p.Start()
	p.Stop()

	done := make(chan struct{})
	go func() {
		p.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Join did not return within the documented shutdown latency")
	}
}
