package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"gate-service/internal/hardware"
	"gate-service/internal/types"
)

const (
	DefaultRedisHost = "127.0.0.1"
	DefaultRedisPort = 6379
	DefaultNamespace = "sec"
)

type RedisConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Pin overrides the default mapping of one named channel. The line direction is fixed by the
// channel.
type Pin struct {
	Name      string `json:"name"`
	Line      int    `json:"line"`
	PullUp    bool   `json:"pull_up,omitempty"`
	ActiveLow bool   `json:"active_low,omitempty"`
}

// Config is the per-node configuration file.
type Config struct {
	NodeID         string      `json:"node_id"`
	PeerMAC        string      `json:"peer_mac,omitempty"` // sender only: receiver link address
	Redis          RedisConfig `json:"redis"`
	StoreNamespace string      `json:"store_namespace"`
	GPIOChip       int         `json:"gpio_chip"`
	Pins           []Pin       `json:"pins,omitempty"`
	LogLevel       int         `json:"log_level"`
}

// Default returns the configuration a node of role runs with when no file is given.
func Default(role types.Role) *Config {
	node := "gate"
	if role == types.RoleSender {
		node = "sender"
	}
	return &Config{
		NodeID:         node,
		Redis:          RedisConfig{Host: DefaultRedisHost, Port: DefaultRedisPort},
		StoreNamespace: DefaultNamespace,
		LogLevel:       3,
	}
}

// LoadConfig reads path over the defaults for role. An empty path returns the defaults.
func LoadConfig(path string, role types.Role) (*Config, error) {
	cfg := Default(role)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the channels role needs.
func (c *Config) Validate(role types.Role) error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id is required")
	}
	if c.StoreNamespace == "" {
		return fmt.Errorf("store_namespace is required")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port %d", c.Redis.Port)
	}
	if c.GPIOChip < 0 {
		return fmt.Errorf("invalid gpio_chip %d", c.GPIOChip)
	}

	defaults := defaultMappings(role)
	if defaults == nil {
		return fmt.Errorf("unknown role %q", role)
	}
	for _, p := range c.Pins {
		if _, ok := defaults[p.Name]; !ok {
			return fmt.Errorf("pin %q is not used by the %s", p.Name, role)
		}
		if p.Line < 0 {
			return fmt.Errorf("pin %q: invalid line %d", p.Name, p.Line)
		}
	}

	if role == types.RoleSender {
		if c.PeerMAC == "" {
			return fmt.Errorf("peer_mac is required for the sender")
		}
		if _, err := c.Peer(); err != nil {
			return err
		}
	}
	return nil
}

// Peer parses the receiver link address.
func (c *Config) Peer() (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(c.PeerMAC)
	if err != nil {
		return nil, fmt.Errorf("invalid peer_mac %q: %w", c.PeerMAC, err)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("invalid peer_mac %q: want a 6-byte address", c.PeerMAC)
	}
	return mac, nil
}

// Mappings returns the GPIO mappings for role on the configured chip with pin overrides applied.
func (c *Config) Mappings(role types.Role) map[string]hardware.PinMapping {
	out := make(map[string]hardware.PinMapping)
	for name, m := range defaultMappings(role) {
		m.Chip = c.GPIOChip
		out[name] = m
	}
	for _, p := range c.Pins {
		def, ok := out[p.Name]
		if !ok {
			continue
		}
		out[p.Name] = hardware.PinMapping{
			Chip:      c.GPIOChip,
			Line:      p.Line,
			Output:    def.Output,
			PullUp:    p.PullUp,
			ActiveLow: p.ActiveLow,
		}
	}
	return out
}

func defaultMappings(role types.Role) map[string]hardware.PinMapping {
	switch role {
	case types.RoleReceiver:
		return hardware.ReceiverMappings
	case types.RoleSender:
		return hardware.SenderMappings
	}
	return nil
}
