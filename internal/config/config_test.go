package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gate-service/internal/hardware"
	"gate-service/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", types.RoleReceiver)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.NodeID != "gate" || cfg.StoreNamespace != DefaultNamespace {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Redis.Host != DefaultRedisHost || cfg.Redis.Port != DefaultRedisPort {
		t.Errorf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if err := cfg.Validate(types.RoleReceiver); err != nil {
		t.Errorf("default receiver config invalid: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `{
		"node_id": "sender",
		"peer_mac": "3c:8a:1f:0b:e3:d8",
		"redis": {"host": "10.0.0.2", "port": 6380},
		"gpio_chip": 1,
		"pins": [{"name": "bypass", "line": 7, "pull_up": true}]
	}`)

	cfg, err := LoadConfig(path, types.RoleSender)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if err := cfg.Validate(types.RoleSender); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.StoreNamespace != DefaultNamespace {
		t.Errorf("namespace = %q, want default kept", cfg.StoreNamespace)
	}
	if cfg.Redis.Host != "10.0.0.2" || cfg.Redis.Port != 6380 {
		t.Errorf("redis = %+v", cfg.Redis)
	}

	peer, err := cfg.Peer()
	if err != nil {
		t.Fatalf("Peer failed: %v", err)
	}
	if peer.String() != "3c:8a:1f:0b:e3:d8" {
		t.Errorf("peer = %s", peer)
	}

	m := cfg.Mappings(types.RoleSender)
	want := hardware.PinMapping{Chip: 1, Line: 7, PullUp: true}
	if m[hardware.ChannelBypass] != want {
		t.Errorf("bypass mapping = %+v, want %+v", m[hardware.ChannelBypass], want)
	}
}

func TestMappingsUseConfiguredChip(t *testing.T) {
	cfg := Default(types.RoleReceiver)
	cfg.GPIOChip = 2

	m := cfg.Mappings(types.RoleReceiver)
	if len(m) != len(hardware.ReceiverMappings) {
		t.Fatalf("got %d mappings, want %d", len(m), len(hardware.ReceiverMappings))
	}
	for name, pin := range m {
		if pin.Chip != 2 {
			t.Errorf("%s on chip %d, want 2", name, pin.Chip)
		}
		if pin.Line != hardware.ReceiverMappings[name].Line {
			t.Errorf("%s line changed", name)
		}
	}
	if hardware.ReceiverMappings[hardware.ChannelGateCmd].Chip != 0 {
		t.Error("defaults were modified")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		role    types.Role
		modify  func(*Config)
		wantErr string
	}{
		{"missing node id", types.RoleReceiver, func(c *Config) { c.NodeID = "" }, "node_id"},
		{"bad port", types.RoleReceiver, func(c *Config) { c.Redis.Port = 0 }, "redis port"},
		{"pin of other role", types.RoleReceiver, func(c *Config) { c.Pins = []Pin{{Name: "bypass", Line: 1}} }, "not used"},
		{"negative line", types.RoleReceiver, func(c *Config) { c.Pins = []Pin{{Name: "gate_cmd", Line: -1}} }, "invalid line"},
		{"sender without peer", types.RoleSender, func(c *Config) {}, "peer_mac is required"},
		{"sender with bad peer", types.RoleSender, func(c *Config) { c.PeerMAC = "not-a-mac" }, "invalid peer_mac"},
		{"sender with long peer", types.RoleSender, func(c *Config) { c.PeerMAC = "00:00:00:00:fe:80:00:00" }, "6-byte"},
		{"unknown role", types.Role("relay"), func(c *Config) {}, "unknown role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(tt.role)
			tt.modify(cfg)
			err := cfg.Validate(tt.role)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), types.RoleReceiver); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "{"), types.RoleReceiver); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestPinOverrideKeepsDirection(t *testing.T) {
	path := writeConfig(t, `{"node_id": "gate", "pins": [{"name": "gate_cmd", "line": 9}]}`)
	cfg, err := LoadConfig(path, types.RoleReceiver)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	m := cfg.Mappings(types.RoleReceiver)
	want := hardware.PinMapping{Line: 9, Output: true}
	if m[hardware.ChannelGateCmd] != want {
		t.Errorf("gate_cmd mapping = %+v, want %+v", m[hardware.ChannelGateCmd], want)
	}
}
