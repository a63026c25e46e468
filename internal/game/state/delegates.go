package state

import "github.com/mitchelldurbincs/wargame/internal/game/core"

// Delegate is the rules engine behind one or more game steps. GameData only
// keeps the registry; what a delegate does at its step is up to the caller.
type Delegate interface {
	core.Named
	DisplayName() string
}

// DelegateRegistry is the set of delegates known to a game.
type DelegateRegistry = NamedList[Delegate]

// BasicDelegate is a Delegate with no behaviour of its own.
type BasicDelegate struct {
	DelegateName string
	Display      string
}

func (b BasicDelegate) Name() string        { return b.DelegateName }
func (b BasicDelegate) DisplayName() string { return b.Display }
