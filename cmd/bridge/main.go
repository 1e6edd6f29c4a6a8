// cmd/bridge/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simonvetter/modbus"
	"go.bug.st/serial"

	"github.com/vpiyanov/haier-modbus-bridge/internal/bridge"
	"github.com/vpiyanov/haier-modbus-bridge/internal/config"
	"github.com/vpiyanov/haier-modbus-bridge/internal/haier"
	"github.com/vpiyanov/haier-modbus-bridge/internal/metrics"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
	"github.com/vpiyanov/haier-modbus-bridge/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: bridge <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	b := cfg.Bridge

	// --------------------
	// Metrics (opt-in)
	// --------------------

	metrics.Register()
	if b.Metrics.Listen != "" {
		go func() {
			log.Printf("metrics on %s", b.Metrics.Listen)
			if err := metrics.Serve(b.Metrics.Listen); err != nil {
				log.Printf("metrics server failed: %v", err)
			}
		}()
	}

	// --------------------
	// HVAC side: serial port + protocol variant
	// --------------------

	port, err := serial.Open(b.HVAC.Port, &serial.Mode{BaudRate: b.HVAC.Baud})
	if err != nil {
		log.Fatalf("hvac port open failed (%s): %v", b.HVAC.Port, err)
	}
	defer port.Close()

	var proto haier.Protocol
	switch b.HVAC.Variant {
	case config.VariantBaseline:
		proto = haier.NewSmartAir2()
	default:
		proto = haier.NewHOn()
	}
	log.Printf("hvac: %s variant on %s @ %d baud", proto.Name(), b.HVAC.Port, b.HVAC.Baud)

	sync := bridge.New(proto, port, bridge.Config{
		CommandTimeout: time.Duration(b.HVAC.CommandTimeoutMs) * time.Millisecond,
		RetryBudget:    b.HVAC.CommandRetries,
		PollInterval:   time.Duration(b.HVAC.PollIntervalMs) * time.Millisecond,
	})

	// --------------------
	// Modbus side: register file server
	// --------------------

	engine := server.New(b.Modbus.UnitID, regmap.New(), sync)

	mbServer, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        b.Modbus.Listen,
		Timeout:    time.Duration(b.Modbus.TimeoutMs) * time.Millisecond,
		MaxClients: b.Modbus.MaxClients,
	}, engine)
	if err != nil {
		log.Fatalf("modbus server setup failed: %v", err)
	}
	if err := mbServer.Start(); err != nil {
		log.Fatalf("modbus server start failed: %v", err)
	}
	log.Printf("modbus: serving unit 0x%02x on %s", b.Modbus.UnitID, b.Modbus.Listen)

	// --------------------
	// Run until signalled
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sync.Run(ctx)

	if stopErr := mbServer.Stop(); stopErr != nil {
		log.Printf("modbus server stop: %v", stopErr)
	}
	if err != nil && err != context.Canceled {
		log.Fatalf("synchronizer exited: %v", err)
	}
	log.Print("bridge stopped")
}
