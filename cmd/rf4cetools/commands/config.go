package commands

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig holds defaults for the persistent flags, loaded from an
// optional YAML file so a fixed lab setup (channel, SDR backend, bridge
// addresses) doesn't need to be retyped on every invocation. Flags
// explicitly passed on the command line always win.
type fileConfig struct {
	Channel  *int   `yaml:"channel"`
	SDR      string `yaml:"sdr"`
	UDPLocal string `yaml:"udp_local"`
	UDPPeer  string `yaml:"udp_peer"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg fileConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}
