package dynamics

import (
	"fmt"

	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

const (
	// StateSize is the number of components in one drone state.
	StateSize = 9
	// ActionSize is the number of components in one acceleration command.
	ActionSize = 3
)

// State is one environment's drone state. Components [0:3] are the world
// position in meters, [3:6] the velocity in m/s and [6:9] the orientation
// as yaw, pitch, roll in radians wrapped to [-pi, pi).
type State [StateSize]float64

var _ physics.Transform = State{}

// NewState assembles a state, wrapping the orientation angles.
func NewState(position, velocity physics.Vec3, yaw, pitch, roll float64) State {
	return State{
		position.X, position.Y, position.Z,
		velocity.X, velocity.Y, velocity.Z,
		physics.WrapAngle(yaw), physics.WrapAngle(pitch), physics.WrapAngle(roll),
	}
}

// StateFromSlice converts a raw 9-component vector into a State.
func StateFromSlice(v []float64) (State, error) {
	var s State
	if len(v) != StateSize {
		return s, fmt.Errorf("%w: state has %d components, want %d", ErrInvalidConfig, len(v), StateSize)
	}
	for i, c := range v {
		if !physics.IsFinite(c) {
			return s, fmt.Errorf("%w: state component %d is not finite", ErrInvalidConfig, i)
		}
	}
	copy(s[:], v)
	for i := 6; i < StateSize; i++ {
		s[i] = physics.WrapAngle(s[i])
	}
	return s, nil
}

func (s State) Position() physics.Vec3 { return physics.V3(s[0], s[1], s[2]) }
func (s State) Velocity() physics.Vec3 { return physics.V3(s[3], s[4], s[5]) }

// Orientation returns yaw, pitch and roll in radians.
func (s State) Orientation() (yaw, pitch, roll float64) { return s[6], s[7], s[8] }

func (s State) Position3() (x, y, z float64) { return s[0], s[1], s[2] }

// Slice returns a copy of the state as a plain slice.
func (s State) Slice() []float64 {
	out := make([]float64, StateSize)
	copy(out, s[:])
	return out
}
