package rf4ce

import (
	"encoding/binary"
	"fmt"
)

// FrameType is the 2-bit RF4CE frame type carried in the frame control
// byte's low bits.
type FrameType uint8

const (
	FrameTypeReserved FrameType = 0
	FrameTypeData     FrameType = 1
	FrameTypeCommand  FrameType = 2
	FrameTypeVendor   FrameType = 3
)

// Frame is a decoded (or pending-encode) RF4CE network-layer frame.
// Source and Destination identify the pairing endpoints and are needed
// whenever Ciphered is set, to build the CCM* nonce and AAD; they carry
// no wire representation of their own here since addressing is the MAC
// envelope's job (see mac.go).
type Frame struct {
	Type              FrameType
	Ciphered          bool
	ProtocolVersion   uint8 // 2 bits
	ChannelDesignator uint8 // 2 bits
	FrameCounter      uint32

	Source      Node
	Destination Node

	// Command frames.
	Command uint8

	// Data and vendor frames.
	ProfileID uint8
	VendorID  uint16 // vendor frames only

	// Plaintext payload, common to all three frame types.
	Payload []byte
}

// frameControlBit5 is always set on pack and ignored on parse; its
// meaning in the protocol is unused by this tooling.
const frameControlBit5 = 1 << 5

// FrameControl returns the packed frame control byte.
func (f *Frame) FrameControl() byte {
	fc := byte(f.Type) & 0x3
	if f.Ciphered {
		fc |= 1 << 2
	}
	fc |= (f.ProtocolVersion & 0x3) << 3
	fc |= frameControlBit5
	fc |= (f.ChannelDesignator & 0x3) << 6
	return fc
}

// Pack encodes the frame to its wire form. key is required whenever
// Ciphered is set.
func (f *Frame) Pack(key []byte) ([]byte, error) {
	if f.Type == FrameTypeReserved {
		return nil, &ParseError{Stage: "frame-control", Cause: fmt.Errorf("unknown frame type")}
	}

	fc := f.FrameControl()
	out := make([]byte, 5, 5+len(f.Payload)+8)
	out[0] = fc
	binary.LittleEndian.PutUint32(out[1:5], f.FrameCounter)

	payload := f.Payload
	if f.Ciphered {
		if len(key) == 0 {
			return nil, &ParseError{Stage: "cipher", Cause: fmt.Errorf("missing key")}
		}
		ct, err := CCMEncrypt(key, Nonce(f.Source.Long, f.FrameCounter), AAD(fc, f.FrameCounter, f.Destination.Long), payload)
		if err != nil {
			return nil, err
		}
		payload = ct
	}

	switch f.Type {
	case FrameTypeCommand:
		out = append(out, f.Command)
		out = append(out, payload...)
	case FrameTypeData:
		out = append(out, f.ProfileID)
		out = append(out, payload...)
	case FrameTypeVendor:
		out = append(out, f.ProfileID)
		vid := make([]byte, 2)
		binary.LittleEndian.PutUint16(vid, f.VendorID)
		out = append(out, vid...)
		out = append(out, payload...)
	}
	return out, nil
}

// ParseFrame decodes raw into a Frame. source and destination identify
// the endpoints the frame travelled between (as established by the MAC
// envelope or link config); key is required to decipher frames whose
// ciphered bit is set, and is nil otherwise.
func ParseFrame(raw []byte, source, destination Node, key []byte) (*Frame, error) {
	if len(raw) < 5 {
		return nil, &ParseError{Stage: "frame-control", Cause: fmt.Errorf("frame too short: %d bytes", len(raw))}
	}

	fc := raw[0]
	frameCounter := binary.LittleEndian.Uint32(raw[1:5])
	body := raw[5:]

	f := &Frame{
		Type:              FrameType(fc & 0x3),
		Ciphered:          (fc>>2)&0x1 == 1,
		ProtocolVersion:   (fc >> 3) & 0x3,
		ChannelDesignator: (fc >> 6) & 0x3,
		FrameCounter:      frameCounter,
		Source:            source,
		Destination:       destination,
	}

	switch f.Type {
	case FrameTypeReserved:
		return nil, &ParseError{Stage: "frame-control", Cause: fmt.Errorf("unknown frame type")}
	case FrameTypeCommand:
		if len(body) < 1 {
			return nil, &ParseError{Stage: "command", Cause: fmt.Errorf("command frame body too short")}
		}
		f.Command = body[0]
		payload, err := decipherIfNeeded(f, fc, key, body[1:])
		if err != nil {
			return nil, err
		}
		f.Payload = payload
	case FrameTypeData:
		if len(body) < 1 {
			return nil, &ParseError{Stage: "data", Cause: fmt.Errorf("data frame body too short")}
		}
		f.ProfileID = body[0]
		payload, err := decipherIfNeeded(f, fc, key, body[1:])
		if err != nil {
			return nil, err
		}
		f.Payload = payload
	case FrameTypeVendor:
		if len(body) < 3 {
			return nil, &ParseError{Stage: "vendor", Cause: fmt.Errorf("vendor frame body too short")}
		}
		f.ProfileID = body[0]
		f.VendorID = binary.LittleEndian.Uint16(body[1:3])
		payload, err := decipherIfNeeded(f, fc, key, body[3:])
		if err != nil {
			return nil, err
		}
		f.Payload = payload
	}

	return f, nil
}

func decipherIfNeeded(f *Frame, frameControl byte, key, payload []byte) ([]byte, error) {
	if !f.Ciphered {
		return payload, nil
	}
	if len(key) == 0 {
		return nil, &ParseError{Stage: "cipher", Cause: fmt.Errorf("missing key")}
	}
	return CCMDecrypt(key, Nonce(f.Source.Long, f.FrameCounter), AAD(frameControl, f.FrameCounter, f.Destination.Long), payload)
}
