package rf4ce

import (
	"encoding/binary"
	"fmt"
)

// RF4CE command identifiers relevant to pairing-time key recovery.
const (
	CmdPairingResponse = 0x04
	CmdKeySeed         = 0x06
)

// keySeedWords is the number of key-seed commands a full pairing
// exchange sends (indices 0..36 inclusive).
const keySeedWords = 37

// keySeedWordLen is the payload length of a single key-seed word.
const keySeedWordLen = 80

// PairingResponsePayload is the parsed body of a pairing-response
// (0x04) command: both sides' short addresses, as assigned by the
// responding node.
type PairingResponsePayload struct {
	ShortSource      ShortAddress
	ShortDestination ShortAddress
}

// ParsePairingResponse parses a pairing-response command payload. The
// first byte is a status code (ignored here, as in the original
// tooling); the short addresses follow as two little-endian uint16s.
func ParsePairingResponse(payload []byte) (PairingResponsePayload, error) {
	if len(payload) < 5 {
		return PairingResponsePayload{}, fmt.Errorf("pairing response payload too short: %d bytes", len(payload))
	}
	return PairingResponsePayload{
		ShortSource:      ShortAddress(binary.LittleEndian.Uint16(payload[1:3])),
		ShortDestination: ShortAddress(binary.LittleEndian.Uint16(payload[3:5])),
	}, nil
}

// KeySeedPayload is the parsed body of one key-seed (0x06) command: its
// index in the 0..36 sequence and its 80-byte seed word.
type KeySeedPayload struct {
	Index int
	Seed  [keySeedWordLen]byte
}

// ParseKeySeed parses a key-seed command payload: a one-byte index
// followed by an 80-byte seed word.
func ParseKeySeed(payload []byte) (KeySeedPayload, error) {
	if len(payload) < 1+keySeedWordLen {
		return KeySeedPayload{}, fmt.Errorf("key seed payload too short: %d bytes", len(payload))
	}
	var out KeySeedPayload
	out.Index = int(payload[0])
	copy(out.Seed[:], payload[1:1+keySeedWordLen])
	return out, nil
}
