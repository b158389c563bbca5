package dynamics

import (
	"fmt"

	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

// Action is a commanded linear acceleration in m/s^2. It is either a
// Broadcast applied to every environment or a PerEnvironment batch.
type Action interface {
	isAction()
}

// Broadcast applies the same acceleration to every environment.
type Broadcast physics.Vec3

// PerEnvironment holds one acceleration per environment, indexed by environment id.
type PerEnvironment []physics.Vec3

func (Broadcast) isAction()      {}
func (PerEnvironment) isAction() {}

// ActionFromRows converts raw rows of 3 components. A single row becomes a
// Broadcast; anything else becomes a PerEnvironment batch, so the engine
// decides whether the row count fits.
func ActionFromRows(rows [][]float64) (Action, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no action rows", ErrShapeMismatch)
	}
	for i, row := range rows {
		if len(row) != ActionSize {
			return nil, fmt.Errorf("%w: action row %d has %d components, want %d", ErrShapeMismatch, i, len(row), ActionSize)
		}
	}
	if len(rows) == 1 {
		return Broadcast(physics.V3(rows[0][0], rows[0][1], rows[0][2])), nil
	}
	batch := make(PerEnvironment, len(rows))
	for i, row := range rows {
		batch[i] = physics.V3(row[0], row[1], row[2])
	}
	return batch, nil
}
