package rf4ce

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// LongAddress is an 8-byte IEEE EUI-64 address, stored in the same
// most-significant-octet-first order its colon-hex string form displays
// (e.g. "11:22:33:44:55:66:77:88"). On the wire, RF4CE/802.15.4 carry
// long addresses little-endian, so Wire() reverses the octet order.
type LongAddress [8]byte

// ParseLongAddress parses a colon-separated hex long address such as
// "11:22:33:44:55:66:77:88" into its display-order byte form.
func ParseLongAddress(s string) (LongAddress, error) {
	var addr LongAddress
	parts := strings.Split(s, ":")
	if len(parts) != 8 {
		return addr, fmt.Errorf("long address %q: want 8 colon-separated octets, got %d", s, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("long address %q: octet %d: %w", s, i, err)
		}
		addr[i] = byte(v)
	}
	return addr, nil
}

// LongAddressFromWire reconstructs a LongAddress from its little-endian
// wire form (the reverse of the display order).
func LongAddressFromWire(raw []byte) (LongAddress, error) {
	var addr LongAddress
	if len(raw) != 8 {
		return addr, fmt.Errorf("long address wire form: want 8 bytes, got %d", len(raw))
	}
	for i := 0; i < 8; i++ {
		addr[i] = raw[7-i]
	}
	return addr, nil
}

// Wire returns the little-endian wire encoding of the address (the
// reverse of its display order), matching address_to_raw in the
// original tooling.
func (a LongAddress) Wire() []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = a[7-i]
	}
	return out
}

// String renders the address as colon-separated hex octets.
func (a LongAddress) String() string {
	parts := make([]string, 8)
	for i, b := range a {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// ShortAddress is a 16-bit RF4CE/802.15.4 short address.
type ShortAddress uint16

// Wire returns the little-endian wire encoding of the short address.
func (a ShortAddress) Wire() []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, uint16(a))
	return out
}

// ShortAddressFromWire decodes a little-endian short address.
func ShortAddressFromWire(raw []byte) (ShortAddress, error) {
	if len(raw) != 2 {
		return 0, fmt.Errorf("short address wire form: want 2 bytes, got %d", len(raw))
	}
	return ShortAddress(binary.LittleEndian.Uint16(raw)), nil
}

func (a ShortAddress) String() string {
	return fmt.Sprintf("0x%04x", uint16(a))
}

// Node identifies one side of an RF4CE pairing: its long (EUI-64) and
// short addresses.
type Node struct {
	Long  LongAddress
	Short ShortAddress
}

// String renders the node for logs and CLI output.
func (n Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Long, n.Short)
}
