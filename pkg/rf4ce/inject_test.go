package rf4ce

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu          sync.Mutex
	transmitted [][]byte
	channel     int
	onTransmit  func(raw []byte)
}

func (f *fakeTransport) Transmit(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	f.transmitted = append(f.transmitted, raw)
	cb := f.onTransmit
	f.mu.Unlock()
	if cb != nil {
		cb(raw)
	}
	return nil
}

func (f *fakeTransport) FrequencySwitch(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range ChannelHopCycle {
		if c == f.channel {
			f.channel = ChannelHopCycle[(i+1)%len(ChannelHopCycle)]
			return f.channel, nil
		}
	}
	f.channel = ChannelHopCycle[0]
	return f.channel, nil
}

func (f *fakeTransport) Close() error { return nil }

func testLinkConfig() *LinkConfig {
	src, _ := ParseLongAddress("01:02:03:04:05:06:07:08")
	dst, _ := ParseLongAddress("11:12:13:14:15:16:17:18")
	return &LinkConfig{
		Source:       Node{Long: src, Short: 0x1111},
		Destination:  Node{Long: dst, Short: 0x2222},
		DestPANID:    0xABCD,
		FrameCounter: 0,
	}
}

func TestNextSeqnumWrapsModulo255(t *testing.T) {
	c := NewInjectionController(&fakeTransport{channel: 15}, NewAckTracker(), testLinkConfig(), "", true)
	var last uint8
	for i := 0; i < 255; i++ {
		last = c.nextSeqnum()
	}
	if last != 254 {
		t.Fatalf("255th call returned %d, want 254", last)
	}
	if got := c.nextSeqnum(); got != 0 {
		t.Fatalf("after wrap, next seqnum = %d, want 0", got)
	}
}

func TestSendPacketSucceedsOnThirdAttempt(t *testing.T) {
	transport := &fakeTransport{channel: 15}
	ack := NewAckTracker()
	cfg := testLinkConfig()
	c := NewInjectionController(transport, ack, cfg, "", true)
	c.SetProfileID(0xC0)

	attempt := 0
	transport.onTransmit = func(raw []byte) {
		attempt++
		if attempt == 3 {
			// Feed the tracker the 5-byte ACK shape for this seqnum.
			seqnum := raw[2]
			ack.Observe([]byte{0x02, 0x00, seqnum, 0x00, 0x00})
		}
	}

	if err := c.SendPacket(context.Background(), []byte("hi")); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if attempt != 3 {
		t.Fatalf("attempts = %d, want 3", attempt)
	}
	if cfg.FrameCounter != 1 {
		t.Fatalf("frame counter = %d, want 1", cfg.FrameCounter)
	}
}

func TestSendPacketHopsChannelsOnExhaustion(t *testing.T) {
	transport := &fakeTransport{channel: 15}
	ack := NewAckTracker()
	cfg := testLinkConfig()
	c := NewInjectionController(transport, ack, cfg, "", true)
	c.MaxTxRetry = 2
	c.MaxFreqRetry = 2

	err := c.SendPacket(context.Background(), []byte("hi"))
	if err == nil {
		t.Fatal("expected a TransmitError: no ACK is ever observed")
	}
	if _, ok := err.(*TransmitError); !ok {
		t.Fatalf("error type = %T, want *TransmitError", err)
	}
	transport.mu.Lock()
	count := len(transport.transmitted)
	channel := transport.channel
	transport.mu.Unlock()
	if count != c.MaxTxRetry*c.MaxFreqRetry {
		t.Fatalf("transmitted %d frames, want %d", count, c.MaxTxRetry*c.MaxFreqRetry)
	}
	// One hop per exhausted frequency: 15 -> 20 -> 25.
	if channel != 25 {
		t.Fatalf("channel after exhaustion = %d, want 25", channel)
	}
}

func TestSendPacketRespectsDelay(t *testing.T) {
	transport := &fakeTransport{channel: 15}
	ack := NewAckTracker()
	cfg := testLinkConfig()
	c := NewInjectionController(transport, ack, cfg, "", true)
	transport.onTransmit = func(raw []byte) {
		ack.Observe([]byte{0x02, 0x00, raw[2], 0x00, 0x00})
	}
	c.SetDelay(20 * time.Millisecond)

	start := time.Now()
	if err := c.SendPacket(context.Background(), []byte("hi")); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("SendPacket returned before its configured delay elapsed")
	}
}

func TestSendPacketHalfDuplexTransmitsOnceWithoutWaitingForAck(t *testing.T) {
	transport := &fakeTransport{channel: 15}
	ack := NewAckTracker()
	cfg := testLinkConfig()
	c := NewInjectionController(transport, ack, cfg, "", false)

	start := time.Now()
	if err := c.SendPacket(context.Background(), []byte("hi")); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= ackWaitDuration {
		t.Fatalf("half-duplex SendPacket waited %v for an ACK it can never receive", elapsed)
	}
	transport.mu.Lock()
	count := len(transport.transmitted)
	transport.mu.Unlock()
	if count != 1 {
		t.Fatalf("transmitted %d frames, want exactly 1 (no retry)", count)
	}
	if cfg.FrameCounter != 1 {
		t.Fatalf("frame counter = %d, want 1", cfg.FrameCounter)
	}
}

func TestAckTrackerIgnoresNonAckFrames(t *testing.T) {
	tr := NewAckTracker()
	if tr.LastAck() != -1 {
		t.Fatal("fresh tracker should report -1")
	}
	tr.Observe([]byte{0x01, 0x00, 0x05, 0x00, 0x00}) // data frame, not an ACK
	if tr.LastAck() != -1 {
		t.Fatal("non-ACK frame should not update the tracker")
	}
	tr.Observe([]byte{0x02, 0x00, 0x07, 0x00, 0x00})
	if tr.LastAck() != 7 {
		t.Fatalf("LastAck() = %d, want 7", tr.LastAck())
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("Packet 01 02 03")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Verb != VerbPacket || len(cmd.Args) != 3 {
		t.Fatalf("parsed = %+v", cmd)
	}

	if _, err := ParseCommand(""); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := ParseCommand("frobnicate"); err == nil {
		t.Fatal("expected error for unknown verb")
	}
}

func TestToIntAndToBool(t *testing.T) {
	if v, err := ToInt("0x1A"); err != nil || v != 26 {
		t.Fatalf("ToInt(0x1A) = %d, %v", v, err)
	}
	if v, err := ToBool("yes"); err != nil || !v {
		t.Fatalf("ToBool(yes) = %v, %v", v, err)
	}
	if v, err := ToBool("off"); err != nil || v {
		t.Fatalf("ToBool(off) = %v, %v", v, err)
	}
	if _, err := ToBool("maybe"); err == nil {
		t.Fatal("expected error for unrecognized boolean")
	}
}
