package mmm

import "errors"

var (
	// ErrGeometry is returned for degenerate transfer geometry (zero or coincident
	// positions, undefined transfer plane, |λ| >= 1).
	ErrGeometry = errors.New("degenerate geometry")
	// ErrInfeasibleTime is returned when the requested time of flight is below the
	// minimum time for the requested number of revolutions.
	ErrInfeasibleTime = errors.New("time of flight infeasible")
	// ErrConvergence is returned when root polishing exceeds its iteration cap.
	ErrConvergence = errors.New("did not converge")
	// ErrInvalidInput is returned for non-physical inputs (μ <= 0, tof <= 0, NaNs).
	ErrInvalidInput = errors.New("invalid input")
	// ErrZeroVector is returned when normalizing a zero-length vector.
	ErrZeroVector = errors.New("cannot normalize zero vector")
	// ErrUnknownBody is returned when a body ID is not part of the system.
	ErrUnknownBody = errors.New("unknown body")
	// ErrCycle is returned when parent references form a loop.
	ErrCycle = errors.New("parent cycle")
)
