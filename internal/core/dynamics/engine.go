package dynamics

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
	"github.com/zeusync/landingsim/pkg/concurrent"
)

// Config holds the construction parameters of an Engine.
type Config struct {
	// NumEnvs is the number of independent environments.
	NumEnvs int
	// Initial holds either one 9-component state broadcast to every
	// environment or exactly NumEnvs states.
	Initial [][]float64
	// Tau is the actuator lag time constant in seconds.
	Tau float64
	// TimeStep is the integration interval in seconds.
	TimeStep float64
}

// Validate checks the scalar parameters and the shape of Initial.
func (c Config) Validate() error {
	if c.NumEnvs <= 0 {
		return fmt.Errorf("%w: num_envs must be positive, got %d", ErrInvalidConfig, c.NumEnvs)
	}
	if !(c.Tau > 0) || math.IsInf(c.Tau, 0) {
		return fmt.Errorf("%w: tau must be positive and finite, got %v", ErrInvalidConfig, c.Tau)
	}
	if !(c.TimeStep > 0) || math.IsInf(c.TimeStep, 0) {
		return fmt.Errorf("%w: time_step must be positive and finite, got %v", ErrInvalidConfig, c.TimeStep)
	}
	if len(c.Initial) != 1 && len(c.Initial) != c.NumEnvs {
		return fmt.Errorf("%w: got %d initial states for %d environments", ErrInvalidConfig, len(c.Initial), c.NumEnvs)
	}
	for i, row := range c.Initial {
		if _, err := StateFromSlice(row); err != nil {
			return fmt.Errorf("initial state %d: %w", i, err)
		}
	}
	return nil
}

// Metrics provides runtime counters of an Engine.
type Metrics struct {
	Steps               uint64
	RejectedActions     uint64
	LastUpdateDuration  time.Duration
	TotalUpdateDuration time.Duration
}

// Engine advances a batch of independent drone states under commanded
// accelerations. Each environment runs a first-order actuator lag feeding a
// double integrator; orientation is carried unchanged.
//
// States live in one flat arena with a stride of StateSize, the realized
// accelerations in another with a stride of ActionSize. Callers only ever
// get copies.
type Engine struct {
	mu sync.Mutex

	id       string
	numEnvs  int
	tau      float64
	timeStep float64
	alpha    float64
	workers  int

	states  []float64
	accel   []float64
	command []float64

	steps   uint64
	closed  bool
	metrics Metrics

	logger log.Log
}

// New builds an engine from cfg. Invalid parameters yield an error wrapping
// ErrInvalidConfig and no engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: log.NewNop(), workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		id:       uuid.NewString(),
		numEnvs:  cfg.NumEnvs,
		tau:      cfg.Tau,
		timeStep: cfg.TimeStep,
		alpha:    lagFactor(cfg.TimeStep, cfg.Tau, o.exactLag),
		workers:  max(o.workers, 1),
		states:   make([]float64, cfg.NumEnvs*StateSize),
		accel:    make([]float64, cfg.NumEnvs*ActionSize),
		command:  make([]float64, cfg.NumEnvs*ActionSize),
	}

	for i := 0; i < cfg.NumEnvs; i++ {
		row := cfg.Initial[0]
		if len(cfg.Initial) == cfg.NumEnvs {
			row = cfg.Initial[i]
		}
		s, _ := StateFromSlice(row)
		copy(e.states[i*StateSize:], s[:])
	}

	e.logger = o.logger.With(log.String("engine_id", e.id))
	e.logger.Info("drone engine created",
		log.Int("num_envs", e.numEnvs),
		log.Float64("tau", e.tau),
		log.Float64("time_step", e.timeStep),
		log.Float64("lag_factor", e.alpha),
		log.Int("workers", e.workers),
	)

	return e, nil
}

// lagFactor is the fraction of the gap between commanded and realized
// acceleration closed in one step.
func lagFactor(dt, tau float64, exact bool) float64 {
	if exact {
		return -math.Expm1(-dt / tau)
	}
	return math.Min(dt/tau, 1)
}

// Update advances every environment by one time step and returns a copy of
// the batch. A malformed action leaves the engine untouched.
func (e *Engine) Update(action Action) ([]State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	if err := e.resolve(action); err != nil {
		e.metrics.RejectedActions++
		e.logger.Debug("action rejected", log.Error(err), log.Uint64("step", e.steps))
		return nil, err
	}

	start := time.Now()
	if err := concurrent.ForEachChunk(e.numEnvs, e.workers, e.integrate); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	e.steps++
	e.metrics.Steps = e.steps
	e.metrics.LastUpdateDuration = elapsed
	e.metrics.TotalUpdateDuration += elapsed

	return e.snapshot(), nil
}

// Validate reports whether Update would accept action, without touching
// any state. Rejections are counted the same way Update counts them.
func (e *Engine) Validate(action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := e.checkShape(action); err != nil {
		e.metrics.RejectedActions++
		e.logger.Debug("action rejected", log.Error(err), log.Uint64("step", e.steps))
		return err
	}
	return nil
}

func (e *Engine) checkShape(action Action) error {
	switch a := action.(type) {
	case Broadcast:
	case PerEnvironment:
		if len(a) != e.numEnvs {
			return fmt.Errorf("%w: got %d commands for %d environments", ErrShapeMismatch, len(a), e.numEnvs)
		}
	default:
		return fmt.Errorf("%w: unsupported action %T", ErrShapeMismatch, action)
	}
	return nil
}

// resolve writes the per-environment commands into the scratch buffer.
func (e *Engine) resolve(action Action) error {
	if err := e.checkShape(action); err != nil {
		return err
	}
	switch a := action.(type) {
	case Broadcast:
		for i := 0; i < e.numEnvs; i++ {
			c := e.command[i*ActionSize:]
			c[0], c[1], c[2] = a.X, a.Y, a.Z
		}
	case PerEnvironment:
		for i, v := range a {
			c := e.command[i*ActionSize:]
			c[0], c[1], c[2] = v.X, v.Y, v.Z
		}
	}
	return nil
}

// integrate advances environments [lo, hi). Each environment only touches
// its own records.
func (e *Engine) integrate(lo, hi int) error {
	dt := e.timeStep
	for i := lo; i < hi; i++ {
		s := e.states[i*StateSize : (i+1)*StateSize]
		a := e.accel[i*ActionSize : (i+1)*ActionSize]
		c := e.command[i*ActionSize : (i+1)*ActionSize]
		for k := 0; k < ActionSize; k++ {
			a[k] += (c[k] - a[k]) * e.alpha
			v := s[3+k]
			s[3+k] = v + a[k]*dt
			s[k] += v*dt + 0.5*a[k]*dt*dt
		}
	}
	return nil
}

func (e *Engine) snapshot() []State {
	out := make([]State, e.numEnvs)
	for i := range out {
		copy(out[i][:], e.states[i*StateSize:(i+1)*StateSize])
	}
	return out
}

// States returns a copy of the current batch, or nil once closed.
func (e *Engine) States() []State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	return e.snapshot()
}

// State returns a copy of environment i.
func (e *Engine) State(i int) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var s State
	if e.closed || i < 0 || i >= e.numEnvs {
		return s, false
	}
	copy(s[:], e.states[i*StateSize:(i+1)*StateSize])
	return s, true
}

// EffectiveAcceleration returns the realized acceleration of environment i.
func (e *Engine) EffectiveAcceleration(i int) (physics.Vec3, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || i < 0 || i >= e.numEnvs {
		return physics.Vec3{}, false
	}
	a := e.accel[i*ActionSize:]
	return physics.V3(a[0], a[1], a[2]), true
}

func (e *Engine) ID() string         { return e.id }
func (e *Engine) NumEnvs() int       { return e.numEnvs }
func (e *Engine) Tau() float64       { return e.tau }
func (e *Engine) TimeStep() float64  { return e.timeStep }
func (e *Engine) LagFactor() float64 { return e.alpha }

// Steps returns the number of successful updates.
func (e *Engine) Steps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

// SimTime returns the simulated time in seconds.
func (e *Engine) SimTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.steps) * e.timeStep
}

func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// Close disposes the engine. Later updates fail with ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.states, e.accel, e.command = nil, nil, nil
	e.logger.Info("drone engine closed", log.Uint64("steps", e.steps), log.Any("metrics", e.metrics))
	return nil
}
