package core

import "errors"

var (
	ErrDuplicateTerritory    = errors.New("territory already added")
	ErrUnknownTerritory      = errors.New("unknown territory")
	ErrSelfConnection        = errors.New("cannot connect a territory to itself")
	ErrNegativeDistance      = errors.New("distance must be non-negative")
	ErrRouteRevisit          = errors.New("route revisits a territory")
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrDuplicatePlayer       = errors.New("player already added")
	ErrUnknownUnit           = errors.New("unknown unit")
	ErrDuplicateUnit         = errors.New("unit already present")
	ErrUnknownUnitType       = errors.New("unknown unit type")
	ErrUnknownResource       = errors.New("unknown resource")
	ErrUnknownAttachment     = errors.New("unknown attachment")
	ErrUnitNotInHolder       = errors.New("unit not in holder")
	ErrInsufficientResources = errors.New("insufficient resources")
)
