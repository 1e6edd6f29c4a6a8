// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	Modbus  ModbusConfig  `yaml:"modbus"`
	HVAC    HVACConfig    `yaml:"hvac"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- MODBUS SIDE ----

type ModbusConfig struct {
	// Listen is a simonvetter/modbus server URL, e.g. tcp://0.0.0.0:502
	// or rtu:///dev/ttyS1.
	Listen     string `yaml:"listen"`
	UnitID     uint8  `yaml:"unit_id"`
	MaxClients uint   `yaml:"max_clients"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- HVAC SIDE ----

type HVACConfig struct {
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	Variant string `yaml:"variant"` // baseline | extended

	// 0 = use the protocol variant's advisory interval.
	PollIntervalMs   int `yaml:"poll_interval_ms"`
	CommandTimeoutMs int `yaml:"command_timeout_ms"`
	CommandRetries   int `yaml:"command_retries"`
}

// ---- METRICS ----

type MetricsConfig struct {
	// Listen enables the Prometheus endpoint when non-empty, e.g. :9105.
	Listen string `yaml:"listen"`
}

// Load reads and parses a config file. No validation, no defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
