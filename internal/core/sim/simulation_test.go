package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/landingsim/internal/core/dynamics"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/platform"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

var (
	droneConfig = dynamics.Config{
		NumEnvs:  1,
		Initial:  [][]float64{{0, 0, 3, 0, 0, 0, 0, 0, 0}},
		Tau:      1,
		TimeStep: 0.1,
	}
	deckConfig = platform.DefaultConfig(5)
)

func newSimulators(t *testing.T) (*dynamics.Engine, *platform.Generator) {
	t.Helper()
	e, err := dynamics.New(droneConfig)
	require.NoError(t, err)
	g, err := platform.New(deckConfig)
	require.NoError(t, err)
	return e, g
}

func newSimulation(t *testing.T, opts ...Option) *Simulation {
	t.Helper()
	e, g := newSimulators(t)
	s, err := New(e, g, opts...)
	require.NoError(t, err)
	return s
}

func TestNewRequiresSimulators(t *testing.T) {
	e, g := newSimulators(t)
	_, err := New(nil, g)
	assert.ErrorIs(t, err, ErrMissingSimulator)
	_, err = New(e, nil)
	assert.ErrorIs(t, err, ErrMissingSimulator)
}

func TestStepMatchesDirectCalls(t *testing.T) {
	s := newSimulation(t, WithRunID("run-1"))
	e, g := newSimulators(t)

	for i := 0; i < 10; i++ {
		f, err := s.Step()
		require.NoError(t, err)

		poses, err := g.Update()
		require.NoError(t, err)
		states, err := e.Update(dynamics.Broadcast(physics.V3(0, 0, -9.81)))
		require.NoError(t, err)

		assert.Equal(t, "run-1", f.RunID)
		assert.Equal(t, i, f.Index)
		assert.Equal(t, states, f.Drones)
		assert.Equal(t, poses, f.Platforms)
		assert.Equal(t, 5.0, f.EdgeLength)
		assert.InDelta(t, float64(i+1)*0.1, f.Time, 1e-12)
		assert.InDelta(t, float64(i+1)*0.1, f.PlatformTime, 1e-12)
		assert.InDelta(t, physics.DistanceT(states[0], poses.At(0)), f.Separation, 1e-12)
	}
	assert.Equal(t, 10, s.Frames())
}

type recordingController struct {
	frames []int
	seen   [][]dynamics.State
}

func (r *recordingController) Command(frame int, drones []dynamics.State) dynamics.Action {
	r.frames = append(r.frames, frame)
	r.seen = append(r.seen, drones)
	return dynamics.Broadcast(physics.V3(1, 0, 0))
}

func TestControllerSeesPreviousStates(t *testing.T) {
	ctrl := &recordingController{}
	s := newSimulation(t, WithController(ctrl))

	first, err := s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, ctrl.frames)
	assert.Equal(t, 3.0, ctrl.seen[0][0].Position().Z)
	assert.Equal(t, first.Drones, ctrl.seen[1])
	assert.Greater(t, first.Drones[0].Velocity().X, 0.0)
}

func TestRun(t *testing.T) {
	s := newSimulation(t)

	var got []Frame
	n, err := s.Run(context.Background(), 25, 0, SinkFunc(func(_ context.Context, f Frame) error {
		got = append(got, f)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	require.Len(t, got, 25)
	for i, f := range got {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, s.ID(), f.RunID)
	}
	// Gravity pulls the drone down.
	assert.Less(t, got[24].Drones[0].Position().Z, 3.0)
}

func TestRunWithInterval(t *testing.T) {
	s := newSimulation(t)
	start := time.Now()
	n, err := s.Run(context.Background(), 3, 5*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRunCancelled(t *testing.T) {
	t.Run("Before start", func(t *testing.T) {
		s := newSimulation(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n, err := s.Run(ctx, 10, 0, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, n)
	})

	t.Run("Unbounded run stops on cancel", func(t *testing.T) {
		s := newSimulation(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		n, err := s.Run(ctx, 0, time.Millisecond, SinkFunc(func(_ context.Context, f Frame) error {
			if f.Index == 4 {
				cancel()
			}
			return nil
		}))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 5, n)
	})
}

func TestRunPropagatesErrors(t *testing.T) {
	t.Run("Sink", func(t *testing.T) {
		s := newSimulation(t)
		boom := errors.New("boom")
		n, err := s.Run(context.Background(), 10, 0, SinkFunc(func(_ context.Context, f Frame) error {
			if f.Index == 2 {
				return boom
			}
			return nil
		}))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, n)
	})

	t.Run("Closed simulators", func(t *testing.T) {
		s := newSimulation(t)
		require.NoError(t, s.Close())
		_, err := s.Step()
		assert.ErrorIs(t, err, dynamics.ErrClosed)
		n, err := s.Run(context.Background(), 1, 0, nil)
		assert.Error(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("Drone shape mismatch", func(t *testing.T) {
		bad := ControllerFunc(func(int, []dynamics.State) dynamics.Action {
			return dynamics.PerEnvironment{physics.V3(0, 0, 1), physics.V3(0, 0, 1)}
		})
		s := newSimulation(t, WithController(bad))
		_, err := s.Step()
		assert.ErrorIs(t, err, dynamics.ErrShapeMismatch)
		assert.Equal(t, s.Drones().Steps(), s.Platforms().Ticks())
		assert.Equal(t, 0, s.Frames())
	})

	t.Run("Recovers in lockstep after a rejected command", func(t *testing.T) {
		calls := 0
		flaky := ControllerFunc(func(int, []dynamics.State) dynamics.Action {
			calls++
			if calls == 1 {
				return dynamics.PerEnvironment{physics.V3(0, 0, 1), physics.V3(0, 0, 1)}
			}
			return Gravity.Command(0, nil)
		})
		s := newSimulation(t, WithController(flaky))
		_, err := s.Step()
		require.ErrorIs(t, err, dynamics.ErrShapeMismatch)

		f, err := s.Step()
		require.NoError(t, err)
		assert.Equal(t, 0, f.Index)
		assert.InDelta(t, f.Time, f.PlatformTime, 1e-12)
		assert.Equal(t, uint64(1), s.Drones().Metrics().RejectedActions)
	})
}

func TestSinks(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.NewWithCore(core, log.LevelDebug)

	count := 0
	boom := errors.New("boom")
	multi := MultiSink{
		LogSink(logger),
		SinkFunc(func(context.Context, Frame) error { count++; return nil }),
		SinkFunc(func(context.Context, Frame) error { return boom }),
	}

	s := newSimulation(t)
	f, err := s.Step()
	require.NoError(t, err)

	err = multi.Publish(context.Background(), f)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "frame", entry.Message)
	assert.Equal(t, int64(0), entry.ContextMap()["frame"])
}
