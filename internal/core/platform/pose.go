package platform

import "github.com/zeusync/landingsim/internal/core/systems/physics"

// Pose is a platform's placement: world position in meters and heading,
// pitch, roll in radians.
type Pose struct {
	Position physics.Vec3 `json:"position"`
	Heading  float64      `json:"heading"`
	Pitch    float64      `json:"pitch"`
	Roll     float64      `json:"roll"`
}

var _ physics.Transform = Pose{}

func (p Pose) Position3() (x, y, z float64) { return p.Position.X, p.Position.Y, p.Position.Z }

// Poses holds parallel per-platform sequences, index-stable across updates.
type Poses struct {
	Positions []physics.Vec3 `json:"positions"`
	Headings  []float64      `json:"headings"`
	Pitches   []float64      `json:"pitches"`
	Rolls     []float64      `json:"rolls"`
}

func newPoses(n int) Poses {
	return Poses{
		Positions: make([]physics.Vec3, n),
		Headings:  make([]float64, n),
		Pitches:   make([]float64, n),
		Rolls:     make([]float64, n),
	}
}

func (p Poses) Len() int { return len(p.Positions) }

// At returns platform i as a single Pose.
func (p Poses) At(i int) Pose {
	return Pose{Position: p.Positions[i], Heading: p.Headings[i], Pitch: p.Pitches[i], Roll: p.Rolls[i]}
}

func (p Poses) set(i int, pose Pose) {
	p.Positions[i] = pose.Position
	p.Headings[i] = pose.Heading
	p.Pitches[i] = pose.Pitch
	p.Rolls[i] = pose.Roll
}

// Clone returns a deep copy.
func (p Poses) Clone() Poses {
	out := newPoses(p.Len())
	copy(out.Positions, p.Positions)
	copy(out.Headings, p.Headings)
	copy(out.Pitches, p.Pitches)
	copy(out.Rolls, p.Rolls)
	return out
}
