package state

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HistoryEntry is one performed change and where in the game it happened.
type HistoryEntry struct {
	Index  int
	Round  int
	Step   string
	Change Change
	At     time.Time
}

// HistoryWriter receives history as it is written. Append is called with the
// game's write lock held, so entries arrive in perform order.
type HistoryWriter interface {
	Append(ctx context.Context, e HistoryEntry) error
	Truncate(ctx context.Context, length int) error
}

// History is the append-only log of performed changes. Index values are
// absolute: they keep counting when a bounded history drops old entries.
type History struct {
	mu       sync.RWMutex
	entries  []HistoryEntry
	offset   int
	capacity int
	writers  []HistoryWriter
}

func newHistory(capacity int) *History {
	return &History{capacity: capacity}
}

// AddWriter attaches a sink for future entries.
func (h *History) AddWriter(w HistoryWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writers = append(h.writers, w)
}

// Len is the number of changes ever recorded, including dropped ones.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.offset + len(h.entries)
}

// First is the index of the oldest entry still held.
func (h *History) First() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.offset
}

// Entries returns entries in [from, to) that are still held.
func (h *History) Entries(from, to int) ([]HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	lo, hi, err := h.bounds(from, to)
	if err != nil {
		return nil, err
	}
	return append([]HistoryEntry(nil), h.entries[lo:hi]...), nil
}

// All returns every entry still held.
func (h *History) All() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]HistoryEntry(nil), h.entries...)
}

func (h *History) bounds(from, to int) (int, int, error) {
	end := h.offset + len(h.entries)
	if from < h.offset || to > end || from > to {
		return 0, 0, fmt.Errorf("range [%d, %d) outside [%d, %d): %w", from, to, h.offset, end, ErrHistoryIndex)
	}
	return from - h.offset, to - h.offset, nil
}

func (h *History) append(ctx context.Context, c Change, round int, step string) (HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := HistoryEntry{
		Index:  h.offset + len(h.entries),
		Round:  round,
		Step:   step,
		Change: c,
		At:     time.Now(),
	}
	h.entries = append(h.entries, e)
	if h.capacity > 0 && len(h.entries) > h.capacity {
		drop := len(h.entries) - h.capacity
		h.entries = append([]HistoryEntry(nil), h.entries[drop:]...)
		h.offset += drop
	}

	var firstErr error
	for _, w := range h.writers {
		if err := w.Append(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return e, firstErr
}

// undo returns the composite that reverts every entry from index on. The
// entries themselves stay until truncate.
func (h *History) undo(index int) (Change, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	lo, hi, err := h.bounds(index, h.offset+len(h.entries))
	if err != nil {
		return nil, err
	}
	redo := NewCompositeChange()
	for _, e := range h.entries[lo:hi] {
		redo.Add(e.Change)
	}
	return redo.Invert(), nil
}

func (h *History) truncate(ctx context.Context, length int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:length-h.offset]

	var firstErr error
	for _, w := range h.writers {
		if err := w.Truncate(ctx, length); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Replay performs the entries in [from, to) against target, in order. target
// must start from the same state this history's game had at entry from.
func (h *History) Replay(ctx context.Context, target *GameData, from, to int) error {
	entries, err := h.Entries(from, to)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := target.PerformChange(ctx, e.Change); err != nil {
			return fmt.Errorf("replay entry %d: %w", e.Index, err)
		}
	}
	return nil
}
