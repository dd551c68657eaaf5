package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileConfigFillsAllFields(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "rf4cetools.yaml")
	yamlContent := `
channel: 20
sdr: hackrf
udp_local: 127.0.0.1:9300
udp_peer: 127.0.0.1:9400
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("loadFileConfig returned error: %v", err)
	}
	if fc.Channel == nil || *fc.Channel != 20 {
		t.Fatalf("expected channel 20, got %v", fc.Channel)
	}
	if fc.SDR != "hackrf" {
		t.Fatalf("expected sdr hackrf, got %q", fc.SDR)
	}
	if fc.UDPLocal != "127.0.0.1:9300" {
		t.Fatalf("expected udp_local 127.0.0.1:9300, got %q", fc.UDPLocal)
	}
	if fc.UDPPeer != "127.0.0.1:9400" {
		t.Fatalf("expected udp_peer 127.0.0.1:9400, got %q", fc.UDPPeer)
	}
}

func TestLoadFileConfigRejectsUnknownField(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "rf4cetools.yaml")
	yamlContent := "channel: 15\nunknown_field: true\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadFileConfig(path); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	if _, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
