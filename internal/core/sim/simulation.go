package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/landingsim/internal/core/dynamics"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/platform"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

// Gravity is the command the landing animation sent every frame.
var Gravity = ConstantCommand(physics.V3(0, 0, -9.81))

var ErrMissingSimulator = errors.New("simulation needs a drone engine and a platform generator")

// Controller chooses the acceleration command for a frame.
type Controller interface {
	Command(frame int, drones []dynamics.State) dynamics.Action
}

// ConstantCommand sends the same acceleration to every environment on every frame.
type ConstantCommand physics.Vec3

func (c ConstantCommand) Command(int, []dynamics.State) dynamics.Action {
	return dynamics.Broadcast(c)
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(frame int, drones []dynamics.State) dynamics.Action

func (f ControllerFunc) Command(frame int, drones []dynamics.State) dynamics.Action {
	return f(frame, drones)
}

// Frame is everything a renderer needs for one animation frame.
type Frame struct {
	RunID        string           `json:"run_id"`
	Index        int              `json:"index"`
	Time         float64          `json:"time"`
	PlatformTime float64          `json:"platform_time"`
	Drones       []dynamics.State `json:"drones"`
	Platforms    platform.Poses   `json:"platforms"`
	EdgeLength   float64          `json:"edge_length"`
	// Separation is the distance from drone 0 to the center of platform 0.
	Separation float64 `json:"separation"`
}

type options struct {
	runID      string
	controller Controller
	logger     log.Log
}

type Option func(*options)

func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

func WithController(c Controller) Option {
	return func(o *options) {
		if c != nil {
			o.controller = c
		}
	}
}

func WithLogger(logger log.Log) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Simulation drives one drone engine and one platform generator in
// lockstep, once per frame, platforms first.
type Simulation struct {
	id         string
	drones     *dynamics.Engine
	platforms  *platform.Generator
	controller Controller
	logger     log.Log

	frame  int
	latest []dynamics.State
}

func New(drones *dynamics.Engine, platforms *platform.Generator, opts ...Option) (*Simulation, error) {
	if drones == nil || platforms == nil {
		return nil, ErrMissingSimulator
	}

	o := options{runID: uuid.NewString(), controller: Gravity, logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Simulation{
		id:         o.runID,
		drones:     drones,
		platforms:  platforms,
		controller: o.controller,
		logger:     o.logger.With(log.String("run_id", o.runID)),
		latest:     drones.States(),
	}, nil
}

func (s *Simulation) ID() string                     { return s.id }
func (s *Simulation) Drones() *dynamics.Engine       { return s.drones }
func (s *Simulation) Platforms() *platform.Generator { return s.platforms }
func (s *Simulation) Frames() int                    { return s.frame }

// Step advances both simulators by one frame. The command is checked
// before either simulator moves, so a rejected frame leaves both clocks
// where they were.
func (s *Simulation) Step() (Frame, error) {
	action := s.controller.Command(s.frame, s.latest)
	if err := s.drones.Validate(action); err != nil {
		return Frame{}, fmt.Errorf("drone update: %w", err)
	}

	poses, err := s.platforms.Update()
	if err != nil {
		return Frame{}, fmt.Errorf("platform update: %w", err)
	}

	states, err := s.drones.Update(action)
	if err != nil {
		return Frame{}, fmt.Errorf("drone update: %w", err)
	}
	s.latest = states

	f := Frame{
		RunID:        s.id,
		Index:        s.frame,
		Time:         s.drones.SimTime(),
		PlatformTime: s.platforms.Elapsed(),
		Drones:       states,
		Platforms:    poses,
		EdgeLength:   s.platforms.EdgeLength(),
	}
	if len(states) > 0 && poses.Len() > 0 {
		f.Separation = physics.DistanceT(states[0], poses.At(0))
	}
	s.frame++
	return f, nil
}

// Run steps the simulation frames times, or until ctx ends when frames is
// zero, publishing every frame to sink. A positive interval paces frames
// with a ticker. It returns the number of frames published.
func (s *Simulation) Run(ctx context.Context, frames int, interval time.Duration, sink FrameSink) (int, error) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.logger.Info("run started", log.Int("frames", frames), log.Duration("interval", interval))

	published := 0
	for frames == 0 || published < frames {
		if err := ctx.Err(); err != nil {
			return published, s.stopped(err, published)
		}
		if tick != nil && published > 0 {
			select {
			case <-ctx.Done():
				return published, s.stopped(ctx.Err(), published)
			case <-tick:
			}
		}

		f, err := s.Step()
		if err != nil {
			return published, s.stopped(err, published)
		}
		if sink != nil {
			if err = sink.Publish(ctx, f); err != nil {
				return published, s.stopped(fmt.Errorf("publish frame %d: %w", f.Index, err), published)
			}
		}
		published++
	}

	s.logger.Info("run finished", log.Int("frames", published), log.Float64("sim_time", s.drones.SimTime()))
	return published, nil
}

func (s *Simulation) stopped(err error, published int) error {
	if errors.Is(err, context.Canceled) {
		s.logger.Info("run cancelled", log.Int("frames", published))
	} else {
		s.logger.Error("run stopped", log.Int("frames", published), log.Error(err))
	}
	return err
}

// Close disposes both simulators.
func (s *Simulation) Close() error {
	return errors.Join(s.platforms.Close(), s.drones.Close())
}
