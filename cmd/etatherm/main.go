// cmd/etatherm/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/command"
	"github.com/tamzrod/etatherm-modbus/internal/config"
	"github.com/tamzrod/etatherm-modbus/internal/logging"
	"github.com/tamzrod/etatherm-modbus/internal/mqtt"
	"github.com/tamzrod/etatherm-modbus/internal/poller"
	"github.com/tamzrod/etatherm-modbus/internal/status"
	"github.com/tamzrod/etatherm-modbus/internal/writer"
)

func main() {
	envFile := flag.String("env", "", "dotenv file with secrets")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: etatherm [-env file] <config.yaml>")
		os.Exit(2)
	}
	cfgPath := flag.Arg(0)

	// --------------------
	// Load + validate config
	// --------------------

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatal().Err(err).Msg("env file load failed")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.ApplyEnv(cfg, os.Getenv)

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	logging.Init(logging.ParseLevel(cfg.Log.Level), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Device pipeline
	// --------------------

	dev, err := poller.Build(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("device", cfg.Device.ID).Msg("device build failed")
	}
	defer dev.Close()

	var mq *mqtt.Client
	var built atomic.Pointer[writer.Sinks]

	if cfg.MQTT.Enabled {
		topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix, Device: cfg.Device.ID}

		mq, err = mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      byte(cfg.MQTT.QoS),
			Topics:   topics,
		}, func() {
			// Retained config was possibly lost with the session.
			if s := built.Load(); s != nil && s.MQTT != nil {
				s.MQTT.Reset()
			}
			dev.Poller.Refresh()
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer mq.Close()

		cmds := command.New(ctx, dev.Client, topics, command.Config{
			OverrideDuration: time.Duration(cfg.Override.DurationMinutes) * time.Minute,
		}, dev.Poller.Refresh)

		if err := mq.Subscribe(topics.Commands(), cmds.Handle); err != nil {
			log.Fatal().Err(err).Msg("mqtt subscribe failed")
		}
	}

	sinks, err := writer.Build(ctx, cfg, mq, dev.Executor)
	if err != nil {
		log.Fatal().Err(err).Msg("writer build failed")
	}
	defer sinks.Close()
	built.Store(sinks)

	// ---- channel between poller and writers ----
	out := make(chan poller.PollResult)

	log.Info().
		Str("device", cfg.Device.ID).
		Str("endpoint", cfg.Device.Endpoint).
		Dur("interval", time.Duration(cfg.Poll.IntervalMs)*time.Millisecond).
		Msg("etatherm bridge started")

	go dev.Poller.Run(ctx, out)

	run(ctx, cfg.Device.ID, out, sinks.Data, sinks.Status)

	log.Info().Msg("etatherm bridge stopped")
}

// run is the orchestrator: runner-owned status state plus a 1 Hz
// seconds-in-error ticker. It returns when ctx is done.
func run(ctx context.Context, unitID string, in <-chan poller.PollResult, data writer.Writer, sw writer.StatusWriter) {
	tracker := status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full status write on start (identity re-assert).
	if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
		log.Warn().Err(err).Str("unit", unitID).Msg("status write failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			if res.Err != nil {
				log.Error().Err(res.Err).Str("unit", unitID).Msg("poll failed")
			}

			// --- data delivery ---
			if err := data.Write(res); err != nil {
				log.Warn().Err(err).Str("unit", unitID).Msg("writer error")
			}

			// --- status update (device-level truth) ---
			if tracker.Observe(res.Err) {
				if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
					log.Warn().Err(err).Str("unit", unitID).Msg("status write failed")
				}
			}

		case <-secTicker.C:
			if tracker.Tick() {
				if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
					log.Warn().Err(err).Str("unit", unitID).Msg("status seconds tick write failed")
				}
			}
		}
	}
}
