package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"pwrsim/config"
	"pwrsim/model"
	"pwrsim/plant"
	"pwrsim/recorder"
	"pwrsim/scenario"
	"pwrsim/server"
	"pwrsim/telemetry"
)

func main() {
	settingsPath := flag.String("settings", "conf/config.ini", "engine settings (ini)")
	plantPath := flag.String("config", "", "plant configuration (yaml), overrides the settings file")
	name := flag.String("scenario", "steady", "scenario to run in batch mode")
	duration := flag.Float64("duration", 0, "simulated seconds, 0 keeps the configured duration")
	serve := flag.Bool("serve", false, "serve runs over HTTP and websocket instead of running one batch")
	record := flag.Bool("record", false, "save trajectories to the recorder database")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	settings := config.LoadSettings(*settingsPath)
	settings.ApplyLogLevel()
	if *plantPath != "" {
		settings.PlantConfig = *plantPath
	}

	factory := func(env model.Env) (*plant.Plant, scenario.Source, error) {
		cfg, warnings, err := config.Load(settings.PlantConfig)
		if err != nil {
			return nil, nil, err
		}
		for _, w := range warnings {
			log.WithFields(log.Fields{"path": settings.PlantConfig}).Warn(w.String())
		}
		if env.Duration > 0 {
			cfg.Simulation.Duration = env.Duration
		}
		if env.Noise != nil {
			cfg.Simulation.Noise.Enabled = *env.Noise
		}
		if env.Seed != 0 {
			cfg.Simulation.Noise.Seed = env.Seed
		}
		if env.Scenario == "" {
			env.Scenario = "steady"
		}
		src, err := scenario.Named(env.Scenario, cfg)
		if err != nil {
			return nil, nil, err
		}
		p, err := plant.New(cfg, settings)
		if err != nil {
			return nil, nil, err
		}
		return p, src, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *recorder.Store
	if *record {
		var err error
		if store, err = recorder.Open(settings.RecorderPath, settings.RecorderBatch); err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error(err)
			}
		}()
	}

	if *serve {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts := []server.Option{server.WithMetrics(reg, telemetry.NewExporter(reg, settings.MetricsNamespace))}
		if store != nil {
			opts = append(opts, server.WithRecorder(store))
		}
		s := server.NewServer(settings.ServerAddr, factory, settings.SnapshotBuffer, opts...)
		if err := s.Serve(ctx); err != nil {
			log.Error(err)
			os.Exit(1)
		}
		return
	}

	p, src, err := factory(model.Env{Scenario: *name, Duration: *duration})
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	traj, runErr := p.Run(ctx, src)
	if errors.Is(runErr, context.Canceled) {
		log.WithFields(log.Fields{"steps": traj.Len()}).Warn("interrupted")
		runErr = nil
	}
	if store != nil {
		if err := store.Save(traj, p.Config().PlantName); err != nil {
			log.Error(err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(model.Summarize(traj, runErr)); err != nil {
		log.Error(err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
