// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultListen         = "tcp://0.0.0.0:502"
	DefaultUnitID         = 0x1F
	DefaultMaxClients     = 5
	DefaultTimeoutMs      = 30000
	DefaultBaud           = 9600
	DefaultCmdTimeoutMs   = 500
	DefaultCommandRetries = 3
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bridge

	if b.Modbus.Listen == "" {
		b.Modbus.Listen = DefaultListen
	}
	if b.Modbus.UnitID == 0 {
		b.Modbus.UnitID = DefaultUnitID
	}
	if b.Modbus.MaxClients == 0 {
		b.Modbus.MaxClients = DefaultMaxClients
	}
	if b.Modbus.TimeoutMs == 0 {
		b.Modbus.TimeoutMs = DefaultTimeoutMs
	}

	if b.HVAC.Variant == "" {
		b.HVAC.Variant = VariantExtended
	}
	if b.HVAC.Baud == 0 {
		b.HVAC.Baud = DefaultBaud
	}
	if b.HVAC.CommandTimeoutMs == 0 {
		b.HVAC.CommandTimeoutMs = DefaultCmdTimeoutMs
	}
	if b.HVAC.CommandRetries == 0 {
		b.HVAC.CommandRetries = DefaultCommandRetries
	}
}
