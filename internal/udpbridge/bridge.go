// Package udpbridge is the one concrete implementation of
// rf4ce.RadioTransport this toolkit ships: a length-prefixed UDP
// connection to an external process that owns the actual SDR signal
// chain (O-QPSK modulation, channel tuning, sample I/O). It carries
// raw, already-demodulated 802.15.4 MAC frames in both directions and
// nothing else.
package udpbridge

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/oakfieldlabs/rf4cetools/pkg/rf4ce"
)

// maxFrameLen bounds a single datagram's frame payload; 802.15.4 MAC
// frames are at most 127 bytes on the air, so this is generous headroom
// for the bridge's own framing.
const maxFrameLen = 4096

// Bridge implements rf4ce.RadioTransport and rf4ce.FrameSink over a UDP
// socket connected to a peer flowgraph process.
type Bridge struct {
	conn    *net.UDPConn
	channel int
	log     *slog.Logger
}

// Dial opens a UDP socket bound to localAddr and connected to peerAddr,
// starting on the given 802.15.4 channel.
func Dial(localAddr, peerAddr string, channel int, log *slog.Logger) (*Bridge, error) {
	local, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("udpbridge: resolve local addr: %w", err)
	}
	peer, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return nil, fmt.Errorf("udpbridge: resolve peer addr: %w", err)
	}
	conn, err := net.DialUDP("udp", local, peer)
	if err != nil {
		return nil, fmt.Errorf("udpbridge: dial: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{conn: conn, channel: channel, log: log}, nil
}

// Transmit sends one raw 802.15.4 frame as a length-prefixed datagram.
func (b *Bridge) Transmit(ctx context.Context, raw []byte) error {
	if len(raw) > maxFrameLen {
		return fmt.Errorf("udpbridge: frame too large: %d bytes", len(raw))
	}
	if dl, ok := ctx.Deadline(); ok {
		b.conn.SetWriteDeadline(dl)
	}
	buf := make([]byte, 2+len(raw))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(raw)))
	copy(buf[2:], raw)
	_, err := b.conn.Write(buf)
	return err
}

// Next blocks for the next frame arriving from the peer. Each inbound
// UDP datagram carries one whole length-prefixed frame, so it's read in
// a single Read call — a connected UDP socket hands back (and discards
// the remainder of) one datagram per Read, unlike a stream socket.
func (b *Bridge) Next(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		b.conn.SetReadDeadline(dl)
	} else {
		b.conn.SetReadDeadline(time.Time{})
	}

	datagram := make([]byte, 2+maxFrameLen)
	n, err := b.conn.Read(datagram)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("udpbridge: datagram too short for length prefix: %d bytes", n)
	}
	datagram = datagram[:n]

	frameLen := binary.BigEndian.Uint16(datagram[0:2])
	if int(frameLen) > maxFrameLen {
		return nil, fmt.Errorf("udpbridge: peer announced oversized frame: %d bytes", frameLen)
	}
	if len(datagram)-2 != int(frameLen) {
		return nil, fmt.Errorf("udpbridge: length prefix %d does not match datagram body %d bytes", frameLen, len(datagram)-2)
	}
	return datagram[2:], nil
}

// FrequencySwitch advances to the next channel in rf4ce.ChannelHopCycle
// and logs the new center frequency; the bridge does not itself retune
// anything, since channel tuning belongs to the peer flowgraph process.
func (b *Bridge) FrequencySwitch(ctx context.Context) (int, error) {
	idx := 0
	for i, ch := range rf4ce.ChannelHopCycle {
		if ch == b.channel {
			idx = (i + 1) % len(rf4ce.ChannelHopCycle)
			break
		}
	}
	b.channel = rf4ce.ChannelHopCycle[idx]
	b.log.Info("channel switch", "channel", b.channel, "center_hz", rf4ce.CenterFrequency(b.channel))
	return b.channel, nil
}

// Close closes the underlying socket.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

