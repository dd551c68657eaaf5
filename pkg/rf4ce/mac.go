package rf4ce

import (
	"encoding/binary"
	"fmt"
)

// macFrameTypeData is the 802.15.4 frame type value RF4CE traffic uses.
const macFrameTypeData = 1

// AddrMode is an 802.15.4 addressing mode (the 2-bit fields at FCF bits
// 10-11 and 14-15). Pairing-time traffic addresses both sides by their
// long (EUI-64) address, since short addresses aren't allocated until
// the pairing response; steady-state traffic after pairing is short
// addressing only.
type AddrMode uint8

const (
	AddrModeNone  AddrMode = 0
	AddrModeShort AddrMode = 2
	AddrModeLong  AddrMode = 3
)

// MACFrame is the 802.15.4 envelope RF4CE frames travel inside. PAN ID
// compression is always set: the source PAN is elided and assumed
// equal to DestPANID, so there is only one PAN ID field on the wire.
type MACFrame struct {
	Seqnum     uint8
	AckRequest bool
	DestPANID  uint16

	DestAddrMode AddrMode
	DestShort    ShortAddress
	DestLong     LongAddress

	SrcAddrMode AddrMode
	SrcShort    ShortAddress
	SrcLong     LongAddress

	Payload []byte
}

// NewShortMACFrame builds an envelope addressed by short addresses at
// both ends, the steady-state (post-pairing) form.
func NewShortMACFrame(seqnum uint8, ackRequest bool, panID uint16, dest, src ShortAddress, payload []byte) *MACFrame {
	return &MACFrame{
		Seqnum:       seqnum,
		AckRequest:   ackRequest,
		DestPANID:    panID,
		DestAddrMode: AddrModeShort,
		DestShort:    dest,
		SrcAddrMode:  AddrModeShort,
		SrcShort:     src,
		Payload:      payload,
	}
}

// Pack encodes the envelope, computing and appending its 2-byte FCS.
func (m *MACFrame) Pack() []byte {
	var fcf uint16 = macFrameTypeData
	if m.AckRequest {
		fcf |= 1 << 5
	}
	fcf |= 1 << 6 // PAN ID compression
	fcf |= uint16(m.DestAddrMode) << 10
	fcf |= uint16(m.SrcAddrMode) << 14

	out := make([]byte, 0, 16+len(m.Payload))
	fcfBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(fcfBytes, fcf)
	out = append(out, fcfBytes...)
	out = append(out, m.Seqnum)

	panBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(panBytes, m.DestPANID)
	out = append(out, panBytes...)

	switch m.DestAddrMode {
	case AddrModeShort:
		out = append(out, m.DestShort.Wire()...)
	case AddrModeLong:
		out = append(out, m.DestLong.Wire()...)
	}
	switch m.SrcAddrMode {
	case AddrModeShort:
		out = append(out, m.SrcShort.Wire()...)
	case AddrModeLong:
		out = append(out, m.SrcLong.Wire()...)
	}

	out = append(out, m.Payload...)

	fcs := crc16(out)
	fcsBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(fcsBytes, fcs)
	return append(out, fcsBytes...)
}

// addrWireLen returns the wire length in bytes of an addressing mode.
func addrWireLen(mode AddrMode) (int, error) {
	switch mode {
	case AddrModeShort:
		return 2, nil
	case AddrModeLong:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported addressing mode %d", mode)
	}
}

// ParseMACFrame validates the trailing FCS and decodes the envelope,
// following whatever addressing modes the frame control field names.
func ParseMACFrame(raw []byte) (*MACFrame, error) {
	if len(raw) < 7 {
		return nil, &ParseError{Stage: "mac", Cause: fmt.Errorf("frame too short: %d bytes", len(raw))}
	}
	body, fcsBytes := raw[:len(raw)-2], raw[len(raw)-2:]
	want := binary.LittleEndian.Uint16(fcsBytes)
	if got := crc16(body); got != want {
		return nil, &ParseError{Stage: "mac", Cause: fmt.Errorf("FCS mismatch: got 0x%04x, want 0x%04x", got, want)}
	}

	fcf := binary.LittleEndian.Uint16(body[0:2])
	seqnum := body[2]
	destPANID := binary.LittleEndian.Uint16(body[3:5])

	m := &MACFrame{
		Seqnum:       seqnum,
		AckRequest:   (fcf>>5)&0x1 == 1,
		DestPANID:    destPANID,
		DestAddrMode: AddrMode((fcf >> 10) & 0x3),
		SrcAddrMode:  AddrMode((fcf >> 14) & 0x3),
	}

	off := 5
	destLen, err := addrWireLen(m.DestAddrMode)
	if err != nil {
		return nil, &ParseError{Stage: "mac", Cause: err}
	}
	if len(body) < off+destLen {
		return nil, &ParseError{Stage: "mac", Cause: fmt.Errorf("frame too short for destination address")}
	}
	if m.DestAddrMode == AddrModeShort {
		m.DestShort, err = ShortAddressFromWire(body[off : off+destLen])
	} else {
		m.DestLong, err = LongAddressFromWire(body[off : off+destLen])
	}
	if err != nil {
		return nil, &ParseError{Stage: "mac", Cause: err}
	}
	off += destLen

	srcLen, err := addrWireLen(m.SrcAddrMode)
	if err != nil {
		return nil, &ParseError{Stage: "mac", Cause: err}
	}
	if len(body) < off+srcLen {
		return nil, &ParseError{Stage: "mac", Cause: fmt.Errorf("frame too short for source address")}
	}
	if m.SrcAddrMode == AddrModeShort {
		m.SrcShort, err = ShortAddressFromWire(body[off : off+srcLen])
	} else {
		m.SrcLong, err = LongAddressFromWire(body[off : off+srcLen])
	}
	if err != nil {
		return nil, &ParseError{Stage: "mac", Cause: err}
	}
	off += srcLen

	m.Payload = body[off:]
	return m, nil
}

// IsAck reports whether raw is an 802.15.4 ACK frame for seqnum: a
// 5-byte frame (2-byte FCF + seqnum + 2-byte FCS) whose type bits are 2.
func IsAck(raw []byte, seqnum uint8) bool {
	if len(raw) != 5 {
		return false
	}
	fcf := binary.LittleEndian.Uint16(raw[0:2])
	if fcf&0x7 != 2 {
		return false
	}
	return raw[2] == seqnum
}

// crc16 computes the 802.15.4 FCS: CRC-16/CCITT with polynomial 0x1021
// reflected (0x8408), zero initial value, no input/output reflection
// beyond the reflected polynomial itself.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
