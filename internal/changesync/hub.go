package changesync

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

const defaultSubscriberBuffer = 256

// Hub fans performed changes out to subscribers. It is installed as a
// state.HistoryWriter, so frames are produced under the game's write lock in
// history order.
type Hub struct {
	d      *state.GameData
	buffer int
	logger zerolog.Logger

	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	closed bool
}

// Subscription receives frames until it is closed or dropped.
type Subscription struct {
	id   int
	hub  *Hub
	c    chan Frame
	once sync.Once
	err  error
}

// NewHub creates a hub for d and registers it as a history writer.
func NewHub(d *state.GameData, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	h := &Hub{
		d:      d,
		buffer: buffer,
		subs:   make(map[int]*Subscription),
		logger: log.With().Str("component", "change_hub").Str("game_id", d.GameID()).Logger(),
	}
	d.History().AddWriter(h)
	return h
}

// Subscribe returns the frames for history entries from index from onwards,
// plus a subscription that receives everything performed afterwards. No
// entry is missed or repeated between the two.
func (h *Hub) Subscribe(ctx context.Context, from int) ([]Frame, *Subscription, error) {
	_, release := h.d.AcquireReadLock(ctx)
	defer release()

	hist := h.d.History()
	entries, err := hist.Entries(from, hist.Len())
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe from %d: %w", from, err)
	}
	backlog := make([]Frame, 0, len(entries))
	for _, e := range entries {
		f, err := changeFrame(e)
		if err != nil {
			return nil, nil, err
		}
		backlog = append(backlog, f)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrHubClosed
	}
	h.nextID++
	sub := &Subscription{id: h.nextID, hub: h, c: make(chan Frame, h.buffer)}
	h.subs[sub.id] = sub

	h.logger.Debug().
		Int("subscription_id", sub.id).
		Int("from", from).
		Int("backlog", len(backlog)).
		Int("total_subscribers", len(h.subs)).
		Msg("Subscriber registered")
	return backlog, sub, nil
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Append implements state.HistoryWriter.
func (h *Hub) Append(_ context.Context, e state.HistoryEntry) error {
	f, err := changeFrame(e)
	if err != nil {
		return err
	}
	h.broadcast(f)
	return nil
}

// Truncate implements state.HistoryWriter.
func (h *Hub) Truncate(_ context.Context, length int) error {
	h.broadcast(Frame{Kind: FrameTruncate, Index: length})
	return nil
}

func (h *Hub) broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		select {
		case sub.c <- f:
		default:
			h.logger.Warn().
				Int("subscription_id", id).
				Int("history_index", f.Index).
				Msg("Subscriber too slow, dropping")
			h.drop(sub, ErrSubscriberLagged)
		}
	}
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, sub := range h.subs {
		h.drop(sub, ErrHubClosed)
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(sub *Subscription, err error) {
	delete(h.subs, sub.id)
	sub.once.Do(func() {
		sub.err = err
		close(sub.c)
	})
}

// C delivers frames. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Frame { return s.c }

// Err explains why C was closed: nil after Close, ErrSubscriberLagged or
// ErrHubClosed otherwise. Only valid once C is closed.
func (s *Subscription) Err() error { return s.err }

// Close ends the subscription.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.drop(s, nil)
}
