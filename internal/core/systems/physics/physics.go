package physics

import "math"

// Vec3 is a world-frame vector value.
type Vec3 struct {
	X, Y, Z float64
}

var _ Transform = Vec3{}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Array() [3]float64    { return [3]float64{v.X, v.Y, v.Z} }

func (v Vec3) Position3() (x, y, z float64) { return v.X, v.Y, v.Z }

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return IsFinite(v.X) && IsFinite(v.Y) && IsFinite(v.Z)
}

// FromArray builds a Vec3 from a fixed-size array.
func FromArray(a [3]float64) Vec3 { return Vec3{a[0], a[1], a[2]} }

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// WrapAngle maps an angle in radians to [-pi, pi).
func WrapAngle(rad float64) float64 {
	wrapped := math.Mod(rad+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	// A tiny negative remainder rounds up to a full turn.
	if wrapped >= 2*math.Pi {
		wrapped = 0
	}
	return wrapped - math.Pi
}

func DegToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func RadToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// Distance3 computes Euclidean distance between two 3D points.
func Distance3(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x2-x1, y2-y1, z2-z1
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// DistanceT computes distance between two transforms.
func DistanceT(a, b Transform) float64 {
	x1, y1, z1 := a.Position3()
	x2, y2, z2 := b.Position3()
	return Distance3(x1, y1, z1, x2, y2, z2)
}
