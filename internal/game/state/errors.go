package state

import "errors"

var (
	ErrUnknownChangeType = errors.New("unknown change type")
	ErrDuplicateName     = errors.New("name already registered")
	ErrUnknownName       = errors.New("unknown name")
	ErrUnknownHolder     = errors.New("unknown unit holder")
	ErrInvalidRoute      = errors.New("route is not valid on this map")
	ErrTransportCapacity = errors.New("transport capacity exceeded")
	ErrCannotTransport   = errors.New("unit type cannot carry cargo of this type")
	ErrNotInFrontier     = errors.New("rule not in player's frontier")
	ErrHistoryIndex      = errors.New("history index out of range")
	ErrUnknownStep       = errors.New("unknown game step")
	ErrNoMap             = errors.New("game data has no map")
)

// ErrGuardViolation is the panic value when PerformChange is called from
// outside the goroutine the change guard allows.
var ErrGuardViolation = errors.New("state: change performed outside the allowed goroutine")
