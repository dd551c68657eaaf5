package rf4ce

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultMaxTxRetry   = 10
	defaultMaxFreqRetry = 5
	ackWaitDuration     = 150 * time.Millisecond
)

// AckTracker records the sequence number of the most recently observed
// 802.15.4 ACK frame. -1 means no ACK has been seen yet.
type AckTracker struct {
	lastAck atomic.Int32
}

// NewAckTracker returns a tracker with no ACK observed yet.
func NewAckTracker() *AckTracker {
	t := &AckTracker{}
	t.lastAck.Store(-1)
	return t
}

// Observe inspects a raw inbound frame and records it if it's an ACK.
func (t *AckTracker) Observe(raw []byte) {
	if len(raw) != 5 {
		return
	}
	fcf := binary.LittleEndian.Uint16(raw[0:2])
	if fcf&0x7 != 2 {
		return
	}
	t.lastAck.Store(int32(raw[2]))
}

// LastAck returns the most recently observed ACK's sequence number, or
// -1 if none has been seen.
func (t *AckTracker) LastAck() int32 {
	return t.lastAck.Load()
}

// InjectionController builds and transmits RF4CE data frames against a
// link config, with the same ACK-wait/retry/channel-hop policy the
// original tooling uses — gated on the radio actually being capable of
// full duplex, since a half-duplex radio can never receive an ACK while
// or immediately after it transmits.
type InjectionController struct {
	transport  RadioTransport
	ack        *AckTracker
	cfg        *LinkConfig
	cfgPath    string
	fullDuplex bool

	mu        sync.Mutex
	seqnum    uint8
	profileID uint8
	ciphered  bool
	delay     time.Duration

	MaxTxRetry   int
	MaxFreqRetry int
}

// NewInjectionController builds a controller transmitting through
// transport, tracking ACKs via ack, against the pairing in cfg. If
// cfgPath is non-empty, the frame counter is persisted back to it after
// every successful send. fullDuplex selects the ACK-wait/retry/
// channel-hop policy; when false, SendPacket fires each frame once,
// best-effort, the way the original tooling does against a half-duplex
// radio.
func NewInjectionController(transport RadioTransport, ack *AckTracker, cfg *LinkConfig, cfgPath string, fullDuplex bool) *InjectionController {
	return &InjectionController{
		transport:    transport,
		ack:          ack,
		cfg:          cfg,
		cfgPath:      cfgPath,
		fullDuplex:   fullDuplex,
		MaxTxRetry:   defaultMaxTxRetry,
		MaxFreqRetry: defaultMaxFreqRetry,
	}
}

// SetProfileID sets the profile ID subsequent SendPacket calls use.
func (c *InjectionController) SetProfileID(id uint8) {
	c.mu.Lock()
	c.profileID = id
	c.mu.Unlock()
}

// SetCiphered toggles whether subsequent packets are CCM*-encrypted.
func (c *InjectionController) SetCiphered(v bool) {
	c.mu.Lock()
	c.ciphered = v
	c.mu.Unlock()
}

// SetDelay sets the pause after each successful send.
func (c *InjectionController) SetDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

// SetFrameCounter overrides the link config's current frame counter.
func (c *InjectionController) SetFrameCounter(v uint32) {
	c.mu.Lock()
	c.cfg.FrameCounter = v
	c.mu.Unlock()
}

// nextSeqnum returns the next 802.15.4 sequence number. It wraps modulo
// 255, not 256 — a preserved quirk from the original tooling, so the
// value 255 is never produced.
func (c *InjectionController) nextSeqnum() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.seqnum
	c.seqnum = uint8((int(c.seqnum) + 1) % 255)
	return v
}

// SendPacket builds a Data frame carrying payload under the controller's
// current profile/ciphered settings and transmits it: with the ACK-wait
// retry policy if the radio is full duplex, or once, best-effort,
// otherwise. On success it bumps and persists the link config's frame
// counter.
func (c *InjectionController) SendPacket(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	profileID := c.profileID
	ciphered := c.ciphered
	delay := c.delay
	c.mu.Unlock()

	frame := &Frame{
		Type:         FrameTypeData,
		Ciphered:     ciphered,
		FrameCounter: c.cfg.FrameCounter,
		Source:       c.cfg.Source,
		Destination:  c.cfg.Destination,
		ProfileID:    profileID,
		Payload:      payload,
	}
	rf4ceBytes, err := frame.Pack(c.cfg.Key)
	if err != nil {
		return err
	}

	seqnum := c.nextSeqnum()
	mac := NewShortMACFrame(seqnum, true, c.cfg.DestPANID, c.cfg.Destination.Short, c.cfg.Source.Short, rf4ceBytes)

	if c.fullDuplex {
		if err := c.transmitWithRetry(ctx, mac.Pack(), seqnum); err != nil {
			return err
		}
	} else {
		if err := c.transport.Transmit(ctx, mac.Pack()); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.cfg.FrameCounter++
	c.mu.Unlock()
	if c.cfgPath != "" {
		if err := c.cfg.Save(c.cfgPath); err != nil {
			return err
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// transmitWithRetry retransmits raw up to MaxTxRetry times per
// frequency, waiting ackWaitDuration after each attempt for seqnum to
// show up via ack, then hops to the next channel in ChannelHopCycle and
// repeats, up to MaxFreqRetry frequencies.
func (c *InjectionController) transmitWithRetry(ctx context.Context, raw []byte, seqnum uint8) error {
	for freqRetry := 0; freqRetry < c.MaxFreqRetry; freqRetry++ {
		for txRetry := 0; txRetry < c.MaxTxRetry; txRetry++ {
			if err := c.transport.Transmit(ctx, raw); err != nil {
				return err
			}
			select {
			case <-time.After(ackWaitDuration):
			case <-ctx.Done():
				return ctx.Err()
			}
			if c.ack.LastAck() == int32(seqnum) {
				return nil
			}
		}
		if _, err := c.transport.FrequencySwitch(ctx); err != nil {
			return err
		}
	}
	return &TransmitError{Seqnum: seqnum, TxRetries: c.MaxTxRetry, FreqRetries: c.MaxFreqRetry}
}

// Verb is one of the injector REPL's recognized command words.
type Verb string

const (
	VerbPacket   Verb = "packet"
	VerbProfile  Verb = "profile"
	VerbCounter  Verb = "counter"
	VerbDelay    Verb = "delay"
	VerbCiphered Verb = "ciphered"
	VerbHelp     Verb = "help"
	VerbExit     Verb = "exit"
)

// Command is one parsed REPL line.
type Command struct {
	Verb Verb
	Args []string
}

// ParseCommand splits a REPL line into a verb and its arguments.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	verb := Verb(strings.ToLower(fields[0]))
	switch verb {
	case VerbPacket, VerbProfile, VerbCounter, VerbDelay, VerbCiphered, VerbHelp, VerbExit:
		return Command{Verb: verb, Args: fields[1:]}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// ToInt parses a command argument as an integer, accepting 0x/0 prefixes.
func ToInt(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}

// ToBool parses a command argument as a boolean.
func ToBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}
