// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Protocol variant names accepted in hvac.variant.
const (
	VariantBaseline = "baseline"
	VariantExtended = "extended"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	b := cfg.Bridge

	// ------------------------------------------------------------
	// MODBUS SIDE
	// ------------------------------------------------------------

	if b.Modbus.Listen != "" {
		if !strings.HasPrefix(b.Modbus.Listen, "tcp://") &&
			!strings.HasPrefix(b.Modbus.Listen, "rtu://") {
			return fmt.Errorf(
				"modbus.listen %q: must start with tcp:// or rtu://",
				b.Modbus.Listen,
			)
		}
	}

	if b.Modbus.TimeoutMs < 0 {
		return fmt.Errorf("modbus.timeout_ms must be >= 0, got %d", b.Modbus.TimeoutMs)
	}

	// ------------------------------------------------------------
	// HVAC SIDE
	// ------------------------------------------------------------

	if b.HVAC.Port == "" {
		return fmt.Errorf("hvac.port is required")
	}

	switch b.HVAC.Variant {
	case "", VariantBaseline, VariantExtended:
	default:
		return fmt.Errorf(
			"hvac.variant %q: must be %q or %q",
			b.HVAC.Variant, VariantBaseline, VariantExtended,
		)
	}

	if b.HVAC.Baud < 0 {
		return fmt.Errorf("hvac.baud must be >= 0, got %d", b.HVAC.Baud)
	}
	if b.HVAC.PollIntervalMs < 0 {
		return fmt.Errorf("hvac.poll_interval_ms must be >= 0, got %d", b.HVAC.PollIntervalMs)
	}
	if b.HVAC.CommandTimeoutMs < 0 {
		return fmt.Errorf("hvac.command_timeout_ms must be >= 0, got %d", b.HVAC.CommandTimeoutMs)
	}
	if b.HVAC.CommandRetries < 0 {
		return fmt.Errorf("hvac.command_retries must be >= 0, got %d", b.HVAC.CommandRetries)
	}

	return nil
}
