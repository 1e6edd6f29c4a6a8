// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bridge observability surface. Collectors work unregistered, so tests
// exercise the instrumented paths without touching the default registry;
// the daemon calls Register once at startup.

var (
	ModbusRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_modbus_requests_total",
		Help: "Modbus requests handled, by operation",
	}, []string{"op"})

	ModbusExceptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_modbus_exceptions_total",
		Help: "Modbus exception responses, by exception kind",
	}, []string{"kind"})

	FramesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_hvac_frames_total",
		Help: "HVAC frames successfully decoded",
	})

	FrameErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_hvac_frame_errors_total",
		Help: "HVAC frames dropped due to framing or checksum faults",
	})

	CommandsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_hvac_commands_total",
		Help: "Control commands sent to the unit",
	})

	CommandRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_hvac_command_retries_total",
		Help: "Control command retransmissions",
	})

	WritesLost = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_writes_lost_total",
		Help: "Accepted writes reverted after the retry budget ran out",
	})

	WritesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_writes_rejected_total",
		Help: "Accepted writes rejected as unsupported by the protocol variant",
	})

	IndoorTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indoor_temp_celsius",
		Help: "Indoor temperature reported by the unit",
	})

	TargetTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_target_temp_celsius",
		Help: "Target temperature currently served by the register file",
	})

	PowerOn = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_power_on",
		Help: "Unit power state (1 = on)",
	})

	LastTelemetry = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_last_telemetry_timestamp_seconds",
		Help: "Unix time of the last decoded telemetry frame",
	})
)

// Register installs all bridge collectors into the default registry.
func Register() {
	prometheus.MustRegister(
		ModbusRequests,
		ModbusExceptions,
		FramesReceived,
		FrameErrors,
		CommandsSent,
		CommandRetries,
		WritesLost,
		WritesRejected,
		IndoorTemp,
		TargetTemp,
		PowerOn,
		LastTelemetry,
	)
}

// Serve exposes /metrics on addr. Blocks.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
