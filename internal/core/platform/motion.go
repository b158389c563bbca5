package platform

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

const (
	// DefaultTick is one 100 ms animation frame of simulated time.
	DefaultTick = 0.1
	// DefaultEdgeLength is the deck footprint in meters.
	DefaultEdgeLength = 5.0
)

// Oscillator is a sinusoid Amplitude*sin(Frequency*t + Phase). Frequency is
// angular (rad/s), Phase is in radians.
type Oscillator struct {
	Amplitude float64
	Frequency float64
	Phase     float64
}

// Periodic builds an oscillator from its amplitude and period in seconds.
func Periodic(amplitude, period, phase float64) Oscillator {
	if period <= 0 {
		return Oscillator{Amplitude: amplitude, Phase: phase}
	}
	return Oscillator{Amplitude: amplitude, Frequency: 2 * math.Pi / period, Phase: phase}
}

// At evaluates the oscillator at time t.
func (o Oscillator) At(t float64) float64 {
	if o.Amplitude == 0 {
		return 0
	}
	return o.Amplitude * math.Sin(o.Frequency*t+o.Phase)
}

// Period returns the period in seconds, or 0 for a constant signal.
func (o Oscillator) Period() float64 {
	if o.Frequency == 0 || o.Amplitude == 0 {
		return 0
	}
	return 2 * math.Pi / math.Abs(o.Frequency)
}

func (o Oscillator) validate(axis string, limit float64) error {
	if !physics.IsFinite(o.Amplitude) || o.Amplitude < 0 {
		return fmt.Errorf("%w: %s amplitude must be finite and non-negative, got %v", ErrInvalidConfig, axis, o.Amplitude)
	}
	if limit > 0 && o.Amplitude >= limit {
		return fmt.Errorf("%w: %s amplitude %v must stay below %v", ErrInvalidConfig, axis, o.Amplitude, limit)
	}
	if !physics.IsFinite(o.Frequency) || !physics.IsFinite(o.Phase) {
		return fmt.Errorf("%w: %s frequency and phase must be finite", ErrInvalidConfig, axis)
	}
	return nil
}

// Motion describes one platform: a base placement plus a sinusoid per
// degree of freedom. Translations are in meters, angles in radians.
type Motion struct {
	Name     string
	Position physics.Vec3
	Heading  float64

	Surge Oscillator // x
	Sway  Oscillator // y
	Heave Oscillator // z

	Yaw   Oscillator
	Pitch Oscillator
	Roll  Oscillator
}

// DefaultMotion is a ship deck at the origin rolling in a moderate swell.
func DefaultMotion() Motion {
	return Motion{
		Name:  "deck",
		Heave: Periodic(0.5, 8, 0),
		Yaw:   Periodic(physics.DegToRad(10), 20, 0),
		Pitch: Periodic(physics.DegToRad(3), 8, math.Pi/2),
		Roll:  Periodic(physics.DegToRad(5), 10, 0),
	}
}

func (m Motion) validate() error {
	if !m.Position.IsFinite() || !physics.IsFinite(m.Heading) {
		return fmt.Errorf("%w: base placement must be finite", ErrInvalidConfig)
	}
	axes := []struct {
		name  string
		osc   Oscillator
		limit float64
	}{
		{"surge", m.Surge, 0},
		{"sway", m.Sway, 0},
		{"heave", m.Heave, 0},
		{"yaw", m.Yaw, 0},
		{"pitch", m.Pitch, math.Pi / 2},
		{"roll", m.Roll, math.Pi / 2},
	}
	for _, a := range axes {
		if err := a.osc.validate(a.name, a.limit); err != nil {
			return err
		}
	}
	return nil
}

// desynchronize shifts every axis phase by an offset derived from the
// platform name, so equally configured platforms move out of step while
// staying reproducible.
func (m Motion) desynchronize() Motion {
	shift := func(axis string, o Oscillator) Oscillator {
		o.Phase = math.Mod(o.Phase+phaseOffset(m.Name, axis), 2*math.Pi)
		return o
	}
	m.Surge = shift("surge", m.Surge)
	m.Sway = shift("sway", m.Sway)
	m.Heave = shift("heave", m.Heave)
	m.Yaw = shift("yaw", m.Yaw)
	m.Pitch = shift("pitch", m.Pitch)
	m.Roll = shift("roll", m.Roll)
	return m
}

// phaseOffset maps name/axis to [0, 2pi).
func phaseOffset(name, axis string) float64 {
	h := xxhash.Sum64String(name + "/" + axis)
	return float64(h>>11) / (1 << 53) * 2 * math.Pi
}

// evaluate returns the pose of m at time t. Heading is wrapped to
// [-pi, pi), the same range drone orientation uses.
func (m Motion) evaluate(t float64) Pose {
	return Pose{
		Position: m.Position.Add(physics.V3(m.Surge.At(t), m.Sway.At(t), m.Heave.At(t))),
		Heading:  physics.WrapAngle(m.Heading + m.Yaw.At(t)),
		Pitch:    m.Pitch.At(t),
		Roll:     m.Roll.At(t),
	}
}
