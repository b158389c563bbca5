package injector

import (
	"context"
	"errors"

	"github.com/google/wire"

	"github.com/zeusync/landingsim/internal/config"
	"github.com/zeusync/landingsim/internal/core/dynamics"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/platform"
	"github.com/zeusync/landingsim/internal/core/sim"
	"github.com/zeusync/landingsim/internal/server"
)

// ProviderSet builds an App from a Scenario.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEngine,
	ProvideGenerator,
	ProvideSimulation,
	ProvideFrameHub,
	NewApp,
)

func ProvideLogger(scenario *config.Scenario) *log.Logger {
	return log.New(scenario.Level())
}

func ProvideEngine(scenario *config.Scenario, logger *log.Logger) (*dynamics.Engine, error) {
	return dynamics.New(scenario.EngineConfig(), scenario.EngineOptions(logger.With(log.String("component", "drones")))...)
}

func ProvideGenerator(scenario *config.Scenario, logger *log.Logger) (*platform.Generator, error) {
	return platform.New(scenario.GeneratorConfig(), scenario.GeneratorOptions(logger.With(log.String("component", "platforms")))...)
}

func ProvideSimulation(scenario *config.Scenario, engine *dynamics.Engine, generator *platform.Generator, logger *log.Logger) (*sim.Simulation, error) {
	return sim.New(engine, generator,
		sim.WithController(sim.ConstantCommand(scenario.CommandVector())),
		sim.WithLogger(logger),
	)
}

func ProvideFrameHub(logger *log.Logger) *server.FrameHub {
	return server.NewFrameHub(logger.With(log.String("component", "stream")))
}

// App is a fully wired headless landing simulation.
type App struct {
	Scenario   *config.Scenario
	Logger     *log.Logger
	Simulation *sim.Simulation
	Hub        *server.FrameHub
}

func NewApp(scenario *config.Scenario, logger *log.Logger, simulation *sim.Simulation, hub *server.FrameHub) *App {
	return &App{Scenario: scenario, Logger: logger, Simulation: simulation, Hub: hub}
}

// Run plays the scenario, streaming frames when a listen address is set,
// and disposes the simulators afterwards. Cancellation is not an error.
func (a *App) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := sim.MultiSink{sim.LogSink(a.Logger)}
	if a.Scenario.Stream.Listen != "" {
		if _, err := a.Hub.Start(ctx, a.Scenario.Stream.Listen); err != nil {
			return 0, errors.Join(err, a.Simulation.Close())
		}
		sink = append(sink, a.Hub)
	}

	frames, err := a.Simulation.Run(ctx, a.Scenario.Run.Frames, a.Scenario.Run.Interval, sink)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return frames, errors.Join(err, a.Hub.Close(), a.Simulation.Close())
}
