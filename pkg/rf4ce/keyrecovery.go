package rf4ce

import (
	"fmt"
	"sync"
)

// KeyRecoveryState is a state of the pairing-time key-recovery
// observer's state machine.
type KeyRecoveryState int

const (
	// StateWaitPair waits for a pairing-response command to learn
	// both sides' addresses and the PAN ID.
	StateWaitPair KeyRecoveryState = iota
	// StateCollecting accumulates the 37 key-seed words in order.
	StateCollecting
	// StateDone has recovered the network key.
	StateDone
	// StateAborted saw a frame it could not reconcile with the
	// expected pairing sequence.
	StateAborted
)

func (s KeyRecoveryState) String() string {
	switch s {
	case StateWaitPair:
		return "wait-pair"
	case StateCollecting:
		return "collecting"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// KeyRecoveryObserver watches a stream of decoded RF4CE command frames
// exchanged during pairing and, on success, recovers the network key
// from the 37 key-seed words exchanged after the pairing response.
// Inbound 802.15.4 ACK frames must be filtered out by the caller before
// reaching Observe — they never carry an RF4CE payload to decode.
type KeyRecoveryObserver struct {
	mu sync.Mutex

	state     KeyRecoveryState
	nextIndex int
	words     [keySeedWords][keySeedWordLen]byte

	destPANID    uint16
	source       Node
	destination  Node
	key          []byte
	frameCounter uint32
}

// NewKeyRecoveryObserver returns an observer starting in StateWaitPair.
func NewKeyRecoveryObserver() *KeyRecoveryObserver {
	return &KeyRecoveryObserver{state: StateWaitPair}
}

// Observe feeds one decoded RF4CE command frame, together with the MAC
// envelope it arrived in, to the state machine. It returns the
// resulting state and, on a fatal sequencing error, a
// *KeyRecoveryError.
func (o *KeyRecoveryObserver) Observe(mac *MACFrame, frame *Frame) (KeyRecoveryState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateDone, StateAborted:
		return o.state, nil

	case StateWaitPair:
		if frame.Type != FrameTypeCommand || frame.Command != CmdPairingResponse {
			return o.state, nil
		}
		resp, err := ParsePairingResponse(frame.Payload)
		if err != nil {
			return o.state, &KeyRecoveryError{State: o.state.String(), Cause: err}
		}
		o.destPANID = mac.DestPANID
		o.source = Node{Long: mac.DestLong, Short: resp.ShortSource}
		o.destination = Node{Long: mac.SrcLong, Short: resp.ShortDestination}
		o.state = StateCollecting
		o.nextIndex = 0
		return o.state, nil

	case StateCollecting:
		if frame.Type != FrameTypeCommand || frame.Command != CmdKeySeed {
			o.state = StateAborted
			return o.state, &KeyRecoveryError{
				State: "collecting",
				Cause: fmt.Errorf("unexpected frame while collecting key seeds (type=%d command=0x%02x)", frame.Type, frame.Command),
			}
		}
		seed, err := ParseKeySeed(frame.Payload)
		if err != nil {
			o.state = StateAborted
			return o.state, &KeyRecoveryError{State: "collecting", Cause: err}
		}

		switch {
		case seed.Index == o.nextIndex:
			o.words[seed.Index] = seed.Seed
			if seed.Index == keySeedWords-1 {
				o.key = deriveKey(o.words)
				o.frameCounter = frame.FrameCounter
				o.state = StateDone
			} else {
				o.nextIndex++
			}
		case seed.Index == o.nextIndex-1:
			// Retransmission of the previous word: overwrite it and
			// keep expecting nextIndex, unchanged.
			o.words[seed.Index] = seed.Seed
		default:
			o.state = StateAborted
			return o.state, &KeyRecoveryError{
				State: "collecting",
				Cause: fmt.Errorf("unexpected key-seed index %d, want %d", seed.Index, o.nextIndex),
			}
		}
	}

	return o.state, nil
}

// State returns the observer's current state.
func (o *KeyRecoveryObserver) State() KeyRecoveryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the recovered LinkConfig once StateDone is reached;
// ok is false otherwise. The frame counter is the counter value of the
// final key-seed frame, the lower bound for the next transmitted
// counter.
func (o *KeyRecoveryObserver) Result() (cfg *LinkConfig, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateDone {
		return nil, false
	}
	return &LinkConfig{
		Source:       o.source,
		Destination:  o.destination,
		DestPANID:    o.destPANID,
		FrameCounter: o.frameCounter,
		Key:          o.key,
	}, true
}

// deriveKey XORs all 37 seed words together, splits the 80-byte result
// into five 16-byte chunks, and XORs those chunks into the final
// 16-byte network key.
func deriveKey(words [keySeedWords][keySeedWordLen]byte) []byte {
	var acc [keySeedWordLen]byte
	for _, w := range words {
		for i := range acc {
			acc[i] ^= w[i]
		}
	}

	key := make([]byte, 16)
	for chunk := 0; chunk < keySeedWordLen/16; chunk++ {
		for i := 0; i < 16; i++ {
			key[i] ^= acc[chunk*16+i]
		}
	}
	return key
}
