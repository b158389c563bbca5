package sim

import (
	"context"
	"errors"

	"github.com/zeusync/landingsim/internal/core/observability/log"
)

// FrameSink consumes frames produced by a Simulation.
type FrameSink interface {
	Publish(ctx context.Context, frame Frame) error
}

// SinkFunc adapts a function to FrameSink.
type SinkFunc func(ctx context.Context, frame Frame) error

func (f SinkFunc) Publish(ctx context.Context, frame Frame) error { return f(ctx, frame) }

// MultiSink publishes to every sink and joins their errors.
type MultiSink []FrameSink

func (m MultiSink) Publish(ctx context.Context, frame Frame) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logSink struct {
	logger log.Log
}

// LogSink writes one debug line per frame.
func LogSink(logger log.Log) FrameSink {
	return logSink{logger: logger}
}

func (l logSink) Publish(_ context.Context, frame Frame) error {
	fields := []log.Field{
		log.Int("frame", frame.Index),
		log.Float64("time", frame.Time),
		log.Float64("separation", frame.Separation),
	}
	if len(frame.Drones) > 0 {
		fields = append(fields, log.Float64s("drone", frame.Drones[0].Slice()))
	}
	if frame.Platforms.Len() > 0 {
		p := frame.Platforms.At(0)
		fields = append(fields,
			log.Float64s("platform_position", []float64{p.Position.X, p.Position.Y, p.Position.Z}),
			log.Float64("platform_heading", p.Heading),
			log.Float64("platform_pitch", p.Pitch),
			log.Float64("platform_roll", p.Roll),
		)
	}
	l.logger.Debug("frame", fields...)
	return nil
}
