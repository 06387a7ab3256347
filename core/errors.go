package core

import "errors"

var (
	// ErrInvalidTimestep indicates a non-positive or non-finite tick size.
	ErrInvalidTimestep = errors.New("invalid timestep")
	// ErrEmptyName indicates an aircraft was created without a name.
	ErrEmptyName = errors.New("aircraft name is empty")
	// ErrInvalidLimits indicates inconsistent performance limits.
	ErrInvalidLimits = errors.New("invalid aircraft limits")
	// ErrInvalidThresholds indicates non-positive proximity thresholds.
	ErrInvalidThresholds = errors.New("invalid proximity thresholds")
	// ErrDuplicateName indicates two aircraft in one sweep share a name.
	ErrDuplicateName = errors.New("duplicate aircraft name")
)
