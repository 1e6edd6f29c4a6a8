// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

// helper to build a minimal valid config quickly
func valid() *Config {
	return &Config{
		Bridge: BridgeConfig{
			HVAC: HVACConfig{
				Port:    "/dev/ttyUSB0",
				Variant: VariantExtended,
			},
		},
	}
}

// ---- tests ----

func TestValidate_MinimalConfig(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_PortRequired(t *testing.T) {
	cfg := valid()
	cfg.Bridge.HVAC.Port = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing hvac.port")
	}
}

func TestValidate_UnknownVariant(t *testing.T) {
	cfg := valid()
	cfg.Bridge.HVAC.Variant = "hon2"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestValidate_EmptyVariantAllowed(t *testing.T) {
	cfg := valid()
	cfg.Bridge.HVAC.Variant = ""

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadListenScheme(t *testing.T) {
	cfg := valid()
	cfg.Bridge.Modbus.Listen = "udp://0.0.0.0:502"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unsupported listen scheme")
	}
}

func TestValidate_NegativeTimings(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Bridge.Modbus.TimeoutMs = -1 },
		func(c *Config) { c.Bridge.HVAC.Baud = -1 },
		func(c *Config) { c.Bridge.HVAC.PollIntervalMs = -1 },
		func(c *Config) { c.Bridge.HVAC.CommandTimeoutMs = -1 },
		func(c *Config) { c.Bridge.HVAC.CommandRetries = -1 },
	} {
		cfg := valid()
		mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg.Bridge)
		}
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	Normalize(cfg)

	b := cfg.Bridge
	if b.Modbus.Listen != DefaultListen {
		t.Errorf("listen = %q", b.Modbus.Listen)
	}
	if b.Modbus.UnitID != DefaultUnitID {
		t.Errorf("unit id = 0x%02x, want 0x1F", b.Modbus.UnitID)
	}
	if b.Modbus.MaxClients != DefaultMaxClients {
		t.Errorf("max clients = %d", b.Modbus.MaxClients)
	}
	if b.HVAC.Baud != DefaultBaud {
		t.Errorf("baud = %d", b.HVAC.Baud)
	}
	if b.HVAC.CommandTimeoutMs != DefaultCmdTimeoutMs {
		t.Errorf("command timeout = %d", b.HVAC.CommandTimeoutMs)
	}
	if b.HVAC.CommandRetries != DefaultCommandRetries {
		t.Errorf("retries = %d", b.HVAC.CommandRetries)
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := valid()
	cfg.Bridge.Modbus.UnitID = 7
	cfg.Bridge.HVAC.Baud = 19200
	Normalize(cfg)

	if cfg.Bridge.Modbus.UnitID != 7 {
		t.Errorf("unit id = %d, want 7", cfg.Bridge.Modbus.UnitID)
	}
	if cfg.Bridge.HVAC.Baud != 19200 {
		t.Errorf("baud = %d, want 19200", cfg.Bridge.HVAC.Baud)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	raw := `
bridge:
  modbus:
    listen: tcp://127.0.0.1:1502
    unit_id: 31
  hvac:
    port: /dev/ttyUSB0
    variant: baseline
    command_retries: 5
  metrics:
    listen: ":9105"
`
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Bridge.Modbus.Listen != "tcp://127.0.0.1:1502" {
		t.Errorf("listen = %q", cfg.Bridge.Modbus.Listen)
	}
	if cfg.Bridge.Modbus.UnitID != 31 {
		t.Errorf("unit id = %d", cfg.Bridge.Modbus.UnitID)
	}
	if cfg.Bridge.HVAC.Variant != VariantBaseline {
		t.Errorf("variant = %q", cfg.Bridge.HVAC.Variant)
	}
	if cfg.Bridge.HVAC.CommandRetries != 5 {
		t.Errorf("retries = %d", cfg.Bridge.HVAC.CommandRetries)
	}
	if cfg.Bridge.Metrics.Listen != ":9105" {
		t.Errorf("metrics listen = %q", cfg.Bridge.Metrics.Listen)
	}
}
