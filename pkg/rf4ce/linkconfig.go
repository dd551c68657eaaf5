package rf4ce

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// LinkConfig holds the state of one established (or in-progress) RF4CE
// pairing: both nodes' addresses, the destination PAN ID, the current
// frame counter, and — once recovered — the network key.
type LinkConfig struct {
	Source      Node
	Destination Node
	DestPANID   uint16
	FrameCounter uint32
	Key         []byte // 16 bytes once known, nil otherwise
}

// linkConfigJSON mirrors the on-disk schema exactly: hex strings for
// addresses/PAN ID, a plain integer for the frame counter, and an
// optional hex-string key. Field names and shapes are a wire contract
// other tools read and write, not a design choice to bikeshed.
type linkConfigJSON struct {
	FullSource       string `json:"full_source"`
	ShortSource      string `json:"short_source"`
	FullDestination  string `json:"full_destination"`
	ShortDestination string `json:"short_destination"`
	DestPANID        string `json:"dest_panid"`
	FrameCounter     uint32 `json:"frame_counter"`
	Key              string `json:"key,omitempty"`
}

// LoadLinkConfig reads and parses a link-config JSON file.
func LoadLinkConfig(path string) (*LinkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}

	var raw linkConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}

	cfg, err := raw.toLinkConfig()
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	return cfg, nil
}

// Save writes the link config back to path as 4-space-indented JSON.
func (c *LinkConfig) Save(path string) error {
	raw := c.toJSON()
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return &ConfigError{Path: path, Cause: err}
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ConfigError{Path: path, Cause: err}
	}
	return nil
}

func (raw linkConfigJSON) toLinkConfig() (*LinkConfig, error) {
	srcLong, err := ParseLongAddress(raw.FullSource)
	if err != nil {
		return nil, fmt.Errorf("full_source: %w", err)
	}
	srcShort, err := parseHexUint16(raw.ShortSource)
	if err != nil {
		return nil, fmt.Errorf("short_source: %w", err)
	}
	dstLong, err := ParseLongAddress(raw.FullDestination)
	if err != nil {
		return nil, fmt.Errorf("full_destination: %w", err)
	}
	dstShort, err := parseHexUint16(raw.ShortDestination)
	if err != nil {
		return nil, fmt.Errorf("short_destination: %w", err)
	}
	panID, err := parseHexUint16(raw.DestPANID)
	if err != nil {
		return nil, fmt.Errorf("dest_panid: %w", err)
	}

	cfg := &LinkConfig{
		Source:       Node{Long: srcLong, Short: ShortAddress(srcShort)},
		Destination:  Node{Long: dstLong, Short: ShortAddress(dstShort)},
		DestPANID:    panID,
		FrameCounter: raw.FrameCounter,
	}

	if raw.Key != "" {
		key, err := hex.DecodeString(raw.Key)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		if len(key) != 16 {
			return nil, fmt.Errorf("key: want 16 bytes, got %d", len(key))
		}
		cfg.Key = key
	}

	return cfg, nil
}

func (c *LinkConfig) toJSON() linkConfigJSON {
	raw := linkConfigJSON{
		FullSource:       c.Source.Long.String(),
		ShortSource:      fmt.Sprintf("0x%x", uint16(c.Source.Short)),
		FullDestination:  c.Destination.Long.String(),
		ShortDestination: fmt.Sprintf("0x%x", uint16(c.Destination.Short)),
		DestPANID:        fmt.Sprintf("0x%x", c.DestPANID),
		FrameCounter:     c.FrameCounter,
	}
	if len(c.Key) > 0 {
		raw.Key = hex.EncodeToString(c.Key)
	}
	return raw
}

func parseHexUint16(s string) (uint16, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "0x%x", &v)
	if err != nil {
		return 0, fmt.Errorf("%q: not a hex string: %w", s, err)
	}
	if v > 0xFFFF {
		return 0, fmt.Errorf("%q: out of uint16 range", s)
	}
	return uint16(v), nil
}
