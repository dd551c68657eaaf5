package rf4ce

import "context"

// ChannelHopCycle is the fixed sequence of 802.15.4 channels the
// injection controller cycles through when a channel's ACK retries are
// exhausted.
var ChannelHopCycle = [3]int{15, 20, 25}

// CenterFrequency returns the center frequency in Hz for an 802.15.4
// channel number, per the formula used throughout the 2.4 GHz channel
// plan: f = 1,000,000 * (2400 + 5*(channel-10)).
func CenterFrequency(channel int) int {
	return 1_000_000 * (2400 + 5*(channel-10))
}

// RadioTransport abstracts the external, already-demodulated 802.15.4
// transport a concrete signal chain provides. Implementations are
// responsible for everything below raw MAC frame bytes: modulation,
// channel tuning, and sample I/O are not this package's concern.
//
// Modeled as a small capability interface: one collaborator, a handful
// of methods, easy to fake in tests.
type RadioTransport interface {
	// Transmit sends a raw 802.15.4 frame (MAC envelope included).
	Transmit(ctx context.Context, raw []byte) error

	// FrequencySwitch advances to the next channel in ChannelHopCycle
	// and returns it.
	FrequencySwitch(ctx context.Context) (channel int, err error)

	// Close releases any underlying resources.
	Close() error
}

// FrameSink is the inbound half of a radio transport: something that
// delivers raw demodulated frames as they arrive, for a PacketPump to
// consume. Kept separate from RadioTransport because sniffing-only
// tools never need to transmit.
type FrameSink interface {
	// Next blocks until a frame is available or ctx is done.
	Next(ctx context.Context) ([]byte, error)
}
