package physics

// Lightweight physics abstractions shared by the drone and platform
// simulators. Both work in meters, seconds and radians.

// Transform provides spatial information for anything placed in the world frame.
type Transform interface {
	Position3() (x, y, z float64)
}
