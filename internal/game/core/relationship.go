package core

// Archetype is the behaviour class a relationship type belongs to.
type Archetype int

const (
	ArchetypeNeutral Archetype = iota
	ArchetypeWar
	ArchetypeAllied
)

func (a Archetype) String() string {
	switch a {
	case ArchetypeWar:
		return "war"
	case ArchetypeAllied:
		return "allied"
	default:
		return "neutral"
	}
}

// RelationshipType is a named relationship between two players.
type RelationshipType struct {
	Attachments
	TypeName  string
	Archetype Archetype
}

func (rt *RelationshipType) Name() string    { return rt.TypeName }
func (rt *RelationshipType) IsWar() bool     { return rt.Archetype == ArchetypeWar }
func (rt *RelationshipType) IsAllied() bool  { return rt.Archetype == ArchetypeAllied }
func (rt *RelationshipType) IsNeutral() bool { return rt.Archetype == ArchetypeNeutral }
