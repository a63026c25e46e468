package state

import "fmt"

// GameStep is one phase of a round, e.g. "germanCombatMove".
type GameStep struct {
	StepName    string `json:"name"`
	DisplayName string `json:"display_name"`
	Player      string `json:"player,omitempty"`
	Delegate    string `json:"delegate,omitempty"`
}

func (s *GameStep) Name() string { return s.StepName }

// GameSequence is the ordered list of steps making up a round, plus the
// current position.
type GameSequence struct {
	steps NamedList[*GameStep]
	index int
	round int
}

func newGameSequence() *GameSequence {
	return &GameSequence{round: 1}
}

// AddStep appends a step during setup.
func (gs *GameSequence) AddStep(s *GameStep) error { return gs.steps.Add(s) }

// Steps returns every step in order.
func (gs *GameSequence) Steps() []*GameStep { return gs.steps.All() }

func (gs *GameSequence) Len() int       { return gs.steps.Len() }
func (gs *GameSequence) StepIndex() int { return gs.index }
func (gs *GameSequence) Round() int     { return gs.round }

// Step returns the current step, or nil if there are no steps.
func (gs *GameSequence) Step() *GameStep {
	if gs.index < 0 || gs.index >= gs.steps.Len() {
		return nil
	}
	return gs.steps.items[gs.index]
}

// StepName is the current step's name, or "" before any steps exist.
func (gs *GameSequence) StepName() string {
	if s := gs.Step(); s != nil {
		return s.Name()
	}
	return ""
}

// IndexOf returns the position of the named step.
func (gs *GameSequence) IndexOf(name string) (int, error) {
	for i, s := range gs.steps.items {
		if s.Name() == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("step %q: %w", name, ErrUnknownStep)
}

// Next is the step index and round that follow the current position. Moving
// past the last step wraps to the first step of the next round.
func (gs *GameSequence) Next() (index, round int) {
	if gs.index+1 >= gs.steps.Len() {
		return 0, gs.round + 1
	}
	return gs.index + 1, gs.round
}

func (gs *GameSequence) set(index, round int) error {
	if index < 0 || index >= gs.steps.Len() {
		return fmt.Errorf("step index %d of %d: %w", index, gs.steps.Len(), ErrUnknownStep)
	}
	gs.index = index
	gs.round = round
	return nil
}
