package mmm

import (
	"fmt"
)

// PointMass is a gravitating mass at a position.
type PointMass struct {
	ID       string
	Mass     float64
	Position Vector3
}

// Field provides the gravitating masses at a given epoch.
type Field interface {
	SourcesAt(epoch float64) []PointMass
}

// Snapshot stores the positions of all bodies at one epoch.
type Snapshot struct {
	Epoch     float64
	Positions map[string]Vector3
}

// System is the static set of massive bodies of a session. It holds no mutable
// state: every position is recomputed from the epoch.
type System struct {
	bodies []MassiveBody // parents always precede their children
	parent []int         // index of the parent in bodies, -1 for roots
	index  map[string]int
	solver KeplerSolver
}

// NewSystem validates the body table and returns the system.
func NewSystem(bodies []MassiveBody, solver KeplerSolver) (*System, error) {
	byID := make(map[string]MassiveBody, len(bodies))
	for _, b := range bodies {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: body without ID", ErrInvalidInput)
		}
		if _, dup := byID[b.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate body %s", ErrInvalidInput, b.ID)
		}
		for _, elts := range []*OrbitalElements{b.Elements, b.Wobble} {
			if elts == nil {
				continue
			}
			if err := elts.Validate(); err != nil {
				return nil, fmt.Errorf("body %s: %w", b.ID, err)
			}
		}
		byID[b.ID] = b
	}
	for _, b := range bodies {
		if b.Parent != "" {
			if _, ok := byID[b.Parent]; !ok {
				return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownBody, b.Parent, b.ID)
			}
		}
	}

	s := &System{index: make(map[string]int, len(bodies)), solver: solver}
	// Depth-first ordering so that parents resolve first.
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(bodies))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: through %s", ErrCycle, id)
		}
		state[id] = visiting
		b := byID[id]
		if b.Parent != "" {
			if err := visit(b.Parent); err != nil {
				return err
			}
		}
		state[id] = done
		s.index[id] = len(s.bodies)
		s.bodies = append(s.bodies, b)
		if b.Parent == "" {
			s.parent = append(s.parent, -1)
		} else {
			s.parent = append(s.parent, s.index[b.Parent])
		}
		return nil
	}
	for _, b := range bodies {
		if err := visit(b.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Bodies returns a copy of the bodies, parents first.
func (s *System) Bodies() []MassiveBody {
	out := make([]MassiveBody, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Body returns the body with the provided ID.
func (s *System) Body(id string) (MassiveBody, bool) {
	i, ok := s.index[id]
	if !ok {
		return MassiveBody{}, false
	}
	return s.bodies[i], true
}

// Solver returns the Kepler solver used by this system.
func (s *System) Solver() KeplerSolver {
	return s.solver
}

// positions returns the inertial positions of all bodies, aligned with s.bodies.
func (s *System) positions(epoch float64) []Vector3 {
	pos := make([]Vector3, len(s.bodies))
	for i, b := range s.bodies {
		pos[i] = b.LocalPosition(epoch, s.solver)
		if p := s.parent[i]; p >= 0 {
			pos[i] = pos[i].Add(pos[p])
		}
	}
	return pos
}

// PositionAt returns the inertial position of a body at the epoch.
func (s *System) PositionAt(id string, epoch float64) (Vector3, error) {
	i, ok := s.index[id]
	if !ok {
		return Vector3{}, fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	var pos Vector3
	for ; i >= 0; i = s.parent[i] {
		pos = pos.Add(s.bodies[i].LocalPosition(epoch, s.solver))
	}
	return pos, nil
}

// VelocityAt returns the inertial velocity of a body by central finite difference of
// its positions at epoch ± h.
func (s *System) VelocityAt(id string, epoch, h float64) (Vector3, error) {
	if h <= 0 {
		return Vector3{}, fmt.Errorf("%w: finite difference step %f <= 0", ErrInvalidInput, h)
	}
	after, err := s.PositionAt(id, epoch+h)
	if err != nil {
		return Vector3{}, err
	}
	before, _ := s.PositionAt(id, epoch-h)
	return after.Sub(before).Scale(1 / (2 * h)), nil
}

// Snapshot returns the positions of all bodies for one consistent epoch.
func (s *System) Snapshot(epoch float64) Snapshot {
	snap := Snapshot{Epoch: epoch, Positions: make(map[string]Vector3, len(s.bodies))}
	for i, p := range s.positions(epoch) {
		snap.Positions[s.bodies[i].ID] = p
	}
	return snap
}

// SourcesAt implements the Field interface.
func (s *System) SourcesAt(epoch float64) []PointMass {
	pos := s.positions(epoch)
	sources := make([]PointMass, 0, len(s.bodies))
	for i, b := range s.bodies {
		if b.Mass <= 0 {
			continue
		}
		sources = append(sources, PointMass{ID: b.ID, Mass: b.Mass, Position: pos[i]})
	}
	return sources
}

// SingleSource is a Field made of one body of the system only.
type SingleSource struct {
	System *System
	ID     string
}

// SourcesAt implements the Field interface.
func (f SingleSource) SourcesAt(epoch float64) []PointMass {
	b, ok := f.System.Body(f.ID)
	if !ok {
		return nil
	}
	pos, _ := f.System.PositionAt(f.ID, epoch)
	return []PointMass{{ID: b.ID, Mass: b.Mass, Position: pos}}
}
