package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/landingsim/internal/config"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "Scenario file, YAML or .json")
	frames := flag.Int("frames", -1, "Frames to run (0 runs until interrupted, -1 keeps the scenario value)")
	interval := flag.Duration("interval", -1, "Delay between frames (-1 keeps the scenario value)")
	listen := flag.String("listen", "", "Stream frames over websocket at this address, e.g. :8080")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	scenario, err := loadScenario(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading scenario:", err)
		os.Exit(1)
	}

	if *frames >= 0 {
		scenario.Run.Frames = *frames
	}
	if *interval >= 0 {
		scenario.Run.Interval = *interval
	}
	if *listen != "" {
		scenario.Stream.Listen = *listen
	}
	if *logLevel != "" {
		scenario.LogLevel = *logLevel
	}
	if err = scenario.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid scenario:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := injector.InitializeApp(scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building simulation:", err)
		os.Exit(1)
	}

	n, err := app.Run(ctx)
	app.Logger.Info("simulation finished", log.Int("frames", n), log.String("run_id", app.Simulation.ID()))
	_ = app.Logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running simulation:", err)
		os.Exit(1)
	}
}

func loadScenario(path string) (*config.Scenario, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
