package platform

import (
	"fmt"
	"sync"

	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

// Config holds the construction parameters of a Generator.
type Config struct {
	// EdgeLength is the platform footprint in meters.
	EdgeLength float64
	// Tick is the simulated time added by one Update, in seconds.
	Tick float64
	// Platforms lists the motion of each platform. Empty means one DefaultMotion.
	Platforms []Motion
}

// DefaultConfig returns a single default deck with the given footprint.
func DefaultConfig(edgeLength float64) Config {
	return Config{
		EdgeLength: edgeLength,
		Tick:       DefaultTick,
		Platforms:  []Motion{DefaultMotion()},
	}
}

func (c Config) Validate() error {
	if !(c.EdgeLength > 0) || !physics.IsFinite(c.EdgeLength) {
		return fmt.Errorf("%w: edge_length must be positive and finite, got %v", ErrInvalidConfig, c.EdgeLength)
	}
	if !(c.Tick > 0) || !physics.IsFinite(c.Tick) {
		return fmt.Errorf("%w: tick must be positive and finite, got %v", ErrInvalidConfig, c.Tick)
	}
	for i, m := range c.Platforms {
		if err := m.validate(); err != nil {
			return fmt.Errorf("platform %d (%s): %w", i, m.Name, err)
		}
	}
	return nil
}

type options struct {
	logger        log.Log
	desynchronize bool
}

// Option configures a Generator.
type Option func(*options)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger log.Log) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDesynchronizedPhases offsets each platform's phases by a hash of its name.
func WithDesynchronizedPhases() Option {
	return func(o *options) {
		o.desynchronize = true
	}
}

// Generator produces periodic 6-DOF platform poses as a pure function of
// elapsed simulated time. Elapsed time is ticks*Tick, so repeated updates
// never accumulate rounding drift.
type Generator struct {
	mu sync.Mutex

	edgeLength float64
	tick       float64
	motions    []Motion

	ticks   uint64
	current Poses
	closed  bool

	logger log.Log
}

func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	motions := cfg.Platforms
	if len(motions) == 0 {
		motions = []Motion{DefaultMotion()}
	}
	motions = append([]Motion(nil), motions...)
	for i := range motions {
		if motions[i].Name == "" {
			motions[i].Name = fmt.Sprintf("platform-%d", i)
		}
		if o.desynchronize {
			motions[i] = motions[i].desynchronize()
		}
	}

	g := &Generator{
		edgeLength: cfg.EdgeLength,
		tick:       cfg.Tick,
		motions:    motions,
		current:    newPoses(len(motions)),
		logger:     o.logger,
	}
	g.evaluate(0)

	g.logger.Info("platform generator created",
		log.Int("platforms", len(motions)),
		log.Float64("edge_length", g.edgeLength),
		log.Float64("tick", g.tick),
		log.Bool("desynchronized", o.desynchronize),
	)

	return g, nil
}

func (g *Generator) evaluate(t float64) {
	for i, m := range g.motions {
		g.current.set(i, m.evaluate(t))
	}
}

// Update advances one tick and returns a copy of every platform's pose.
func (g *Generator) Update() (Poses, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return Poses{}, ErrClosed
	}

	g.ticks++
	g.evaluate(float64(g.ticks) * g.tick)
	return g.current.Clone(), nil
}

// Current returns the poses of the last update without advancing. A closed
// generator has no poses.
func (g *Generator) Current() Poses {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return Poses{}
	}
	return g.current.Clone()
}

// PoseAt evaluates platform i at an arbitrary time without touching the
// generator's clock.
func (g *Generator) PoseAt(i int, t float64) (Pose, bool) {
	if i < 0 || i >= len(g.motions) {
		return Pose{}, false
	}
	return g.motions[i].evaluate(t), true
}

// Motions returns the motion of every platform, phase offsets included.
func (g *Generator) Motions() []Motion {
	return append([]Motion(nil), g.motions...)
}

func (g *Generator) EdgeLength() float64 { return g.edgeLength }
func (g *Generator) Tick() float64       { return g.tick }
func (g *Generator) Len() int            { return len(g.motions) }

func (g *Generator) Ticks() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ticks
}

// Elapsed returns the simulated time in seconds.
func (g *Generator) Elapsed() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.ticks) * g.tick
}

// Close disposes the generator. Later updates fail with ErrClosed.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.logger.Info("platform generator closed", log.Uint64("ticks", g.ticks))
	return nil
}
