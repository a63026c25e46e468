package core

// UnitType is a static unit definition loaded with the map.
type UnitType struct {
	Attachments

	TypeName          string
	Movement          int
	IsSea             bool
	IsAir             bool
	IsInfrastructure  bool
	TransportCapacity int
	TransportCost     int
	HitPoints         int
}

func (ut *UnitType) Name() string { return ut.TypeName }

// CanTransport reports whether this type can carry cargo of the given type.
func (ut *UnitType) CanTransport(cargo *UnitType) bool {
	return ut.TransportCapacity > 0 && cargo.TransportCost > 0 && cargo.TransportCost <= ut.TransportCapacity
}
