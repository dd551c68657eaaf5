package rf4ce

// SnifferObserver matches incoming MAC frames against a set of known
// link configs and, on a match, decodes the RF4CE frame inside.
type SnifferObserver struct {
	configs []*LinkConfig
}

// NewSnifferObserver returns an observer that matches against configs.
func NewSnifferObserver(configs []*LinkConfig) *SnifferObserver {
	return &SnifferObserver{configs: configs}
}

// Match finds the link config (if any) whose pairing the MAC envelope
// belongs to, in either direction: the frame may have been sent by the
// config's source node or by its destination node. Both directions
// match; source is always the node that sent the frame, so a frame from
// the config's destination node returns the config's endpoints swapped.
// Only short-addressed envelopes are matched; a frame with a long
// address on either side never matches.
func (s *SnifferObserver) Match(mac *MACFrame) (cfg *LinkConfig, source, destination Node, matched bool) {
	if mac.SrcAddrMode != AddrModeShort || mac.DestAddrMode != AddrModeShort {
		return nil, Node{}, Node{}, false
	}
	for _, c := range s.configs {
		if mac.DestPANID != c.DestPANID {
			continue
		}
		switch {
		case mac.SrcShort == c.Source.Short && mac.DestShort == c.Destination.Short:
			return c, c.Source, c.Destination, true
		case mac.SrcShort == c.Destination.Short && mac.DestShort == c.Source.Short:
			return c, c.Destination, c.Source, true
		}
	}
	return nil, Node{}, Node{}, false
}

// Process decodes a raw 802.15.4 frame. It returns (nil, nil) only for
// ACK frames, which carry no RF4CE payload at all. Frames that don't
// match any known link config are still parsed, unauthenticated
// (nil key) using the addresses carried in the MAC envelope itself;
// their ciphered payloads, if any, will fail to parse for lack of a key
// — an ordinary, non-fatal occurrence while sniffing unknown traffic.
func (s *SnifferObserver) Process(raw []byte) (*Frame, error) {
	if len(raw) == 5 {
		// 802.15.4 ACKs carry no addressing and no RF4CE payload.
		return nil, nil
	}
	mac, err := ParseMACFrame(raw)
	if err != nil {
		return nil, err
	}

	cfg, source, destination, matched := s.Match(mac)
	if !matched {
		source = macNode(mac.SrcAddrMode, mac.SrcLong, mac.SrcShort)
		destination = macNode(mac.DestAddrMode, mac.DestLong, mac.DestShort)
	}

	var key []byte
	if cfg != nil {
		key = cfg.Key
	}
	return ParseFrame(mac.Payload, source, destination, key)
}

// macNode builds the Node a MAC envelope's addressing describes, for
// the unmatched-traffic case where there's no LinkConfig to source it
// from.
func macNode(mode AddrMode, long LongAddress, short ShortAddress) Node {
	switch mode {
	case AddrModeLong:
		return Node{Long: long}
	case AddrModeShort:
		return Node{Short: short}
	default:
		return Node{}
	}
}
