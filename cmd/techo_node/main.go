// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/techo_node/internal/app"
	"github.com/relabs-tech/techo_node/internal/config"
	"github.com/relabs-tech/techo_node/internal/logging"
	"github.com/relabs-tech/techo_node/internal/monitor"
	"github.com/relabs-tech/techo_node/internal/schedule"
	"github.com/relabs-tech/techo_node/internal/sim"
	"github.com/relabs-tech/techo_node/internal/status"
	"github.com/relabs-tech/techo_node/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "techo_config.txt", "path to the configuration file (KEY=VALUE or .yaml)")
	simulate := flag.Bool("sim", false, "run on simulated peripherals (overrides SIMULATE)")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *simulate {
		cfg.Simulate = true
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.DeviceID)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	clock := schedule.NewSystemClock()
	opts := app.OptionsFromConfig(cfg)

	var devices app.Devices
	if cfg.Simulate {
		center := sim.DefaultCenter
		if opts.Home != nil {
			center = *opts.Home
		}
		bench := sim.NewBench(clock, center, opts.Divider, logger)
		devices = bench.Devices(os.Stdout)
		logger.Info("running on simulated peripherals; type c, d or r <text> and Enter")
		go sim.ReadKeys(os.Stdin, bench.Button, bench.Radio, logger)
	} else {
		hw, err := app.OpenHardware(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := hw.Close(); err != nil {
				logger.Warn("closing hardware", "error", err)
			}
		}()
		devices = hw.Devices
	}

	var observers status.Observers
	if cfg.MQTTBroker != "" {
		client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientID, logger)
		if err != nil {
			logger.Error("MQTT mirror disabled", "error", err)
		} else {
			mirror := telemetry.NewMirror(client, cfg.TopicStatus, cfg.TopicRX, cfg.DeviceID, logger)
			defer func() {
				mirror.Close()
				client.Disconnect(250)
			}()
			observers = append(observers, mirror)
		}
	}
	if cfg.MonitorAddr != "" {
		srv := monitor.New(logger)
		observers = append(observers, srv)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.MonitorAddr); err != nil {
				logger.Error("monitor stopped", "error", err)
			}
		}()
	}

	node, err := app.NewNode(opts, devices, clock, logger, observers)
	if err != nil {
		return err
	}
	return node.Run(ctx)
}
