package state

import (
	"context"
	"fmt"
)

// Change is an atomic, invertible mutation of a GameData. Perform is only
// ever called by GameData with the write lock held; ctx carries that hold.
//
// Changes are immutable values. Any state needed to undo a change is captured
// when it is constructed, so the same Change can be replayed against another
// GameData built from the same starting point.
type Change interface {
	Perform(ctx context.Context, d *GameData) error
	Invert() Change
	IsEmpty() bool
}

// typed is implemented by every change the codec knows how to encode.
type typed interface {
	ChangeType() string
}

// ChangeTypeOf returns the wire name of c, or "unknown".
func ChangeTypeOf(c Change) string {
	if t, ok := c.(typed); ok {
		return t.ChangeType()
	}
	return "unknown"
}

// CompositeChange is an ordered list of changes performed as one.
type CompositeChange struct {
	changes  []Change
	inverted bool
}

// NewCompositeChange builds a composite from changes, dropping empty ones.
func NewCompositeChange(changes ...Change) *CompositeChange {
	c := &CompositeChange{}
	c.Add(changes...)
	return c
}

// Add appends every non-empty change in order.
func (c *CompositeChange) Add(changes ...Change) {
	for _, ch := range changes {
		if ch == nil || ch.IsEmpty() {
			continue
		}
		c.changes = append(c.changes, ch)
	}
}

// Changes returns a copy of the child list.
func (c *CompositeChange) Changes() []Change {
	return append([]Change(nil), c.changes...)
}

// Len is the number of direct children.
func (c *CompositeChange) Len() int { return len(c.changes) }

// Inverted reports whether Perform undoes the children.
func (c *CompositeChange) Inverted() bool { return c.inverted }

// Perform applies the children in order. An inverted composite walks the
// children from last to first and inverts each one only when it is reached,
// so an inverse is always computed against the state left by undoing the
// children after it.
func (c *CompositeChange) Perform(ctx context.Context, d *GameData) error {
	if !c.inverted {
		for i, ch := range c.changes {
			if err := ch.Perform(ctx, d); err != nil {
				return fmt.Errorf("composite child %d (%s): %w", i, ChangeTypeOf(ch), err)
			}
		}
		return nil
	}
	for i := len(c.changes) - 1; i >= 0; i-- {
		inv := c.changes[i].Invert()
		if err := inv.Perform(ctx, d); err != nil {
			return fmt.Errorf("inverted composite child %d (%s): %w", i, ChangeTypeOf(inv), err)
		}
	}
	return nil
}

// Invert shares the children and flips the direction.
func (c *CompositeChange) Invert() Change {
	return &CompositeChange{changes: c.changes, inverted: !c.inverted}
}

// IsEmpty is true when no child (transitively) does anything.
func (c *CompositeChange) IsEmpty() bool {
	for _, ch := range c.changes {
		if !ch.IsEmpty() {
			return false
		}
	}
	return true
}

// Flatten returns a composite with no composite descendants that performs
// exactly like c. Only the receiver's inverted flag is kept. Children of an
// inverted descendant are spliced in reverse order, each wrapped so its
// inverse is still computed when it is reached.
func (c *CompositeChange) Flatten() *CompositeChange {
	out := &CompositeChange{inverted: c.inverted}
	out.changes = flattenInto(out.changes, c.changes, false)
	return out
}

func flattenInto(out, changes []Change, invert bool) []Change {
	for i := range changes {
		ch := changes[i]
		if invert {
			ch = changes[len(changes)-1-i]
		}
		if nested, ok := ch.(*CompositeChange); ok {
			out = flattenInto(out, nested.changes, invert != nested.inverted)
			continue
		}
		if invert {
			ch = invertLater(ch)
		}
		out = append(out, ch)
	}
	return out
}

// inverseChange performs the inverse of a wrapped change, inverting it only
// when performed.
type inverseChange struct {
	of Change
}

func invertLater(c Change) Change {
	if inv, ok := c.(*inverseChange); ok {
		return inv.of
	}
	return &inverseChange{of: c}
}

func (c *inverseChange) Perform(ctx context.Context, d *GameData) error {
	return c.of.Invert().Perform(ctx, d)
}

func (c *inverseChange) Invert() Change { return c.of }

func (c *inverseChange) IsEmpty() bool { return c.of.IsEmpty() }

func (c *inverseChange) ChangeType() string { return "inverse" }

func (c *inverseChange) String() string { return fmt.Sprintf("inverse of %s", ChangeTypeOf(c.of)) }

func (c *CompositeChange) ChangeType() string { return "composite" }

func (c *CompositeChange) String() string {
	dir := ""
	if c.inverted {
		dir = " inverted"
	}
	return fmt.Sprintf("composite%s [%d changes]", dir, len(c.changes))
}

// walk visits c and every descendant depth first. Returning false stops.
func walk(c Change, visit func(Change) bool) bool {
	if !visit(c) {
		return false
	}
	switch v := c.(type) {
	case *CompositeChange:
		for _, ch := range v.changes {
			if !walk(ch, visit) {
				return false
			}
		}
	case *inverseChange:
		return walk(v.of, visit)
	}
	return true
}
