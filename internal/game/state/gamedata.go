// Package state holds the authoritative game state and the only sanctioned
// way to mutate it: a Change performed through GameData.PerformChange under
// the game's write lock.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/events"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/lock"
)

// DataChangeListener is told about every successfully performed change, in
// history order, after the write lock has been released. Listeners are called
// from one goroutine at a time. A change performed while another goroutine is
// delivering is handed to that goroutine, so PerformChange may return before
// its own listeners have run.
type DataChangeListener func(c Change)

// ChangeObserver receives timing for every performed or failed change.
type ChangeObserver interface {
	ObserveChange(changeType string, lockHeld time.Duration, err error)
}

// Option configures a GameData.
type Option func(*GameData)

// WithGameID sets the game ID used on published events.
func WithGameID(id string) Option { return func(d *GameData) { d.id = id } }

// WithMap installs the territory graph.
func WithMap(m *gamemap.GameMap) Option { return func(d *GameData) { d.gameMap = m } }

// WithEventBus publishes gateway events on bus instead of a private one.
func WithEventBus(bus events.Bus) Option { return func(d *GameData) { d.bus = bus } }

// WithChangeGuard installs a check run on every PerformChange. When it
// returns false the call panics with ErrGuardViolation.
func WithChangeGuard(allowed func() bool) Option { return func(d *GameData) { d.guard = allowed } }

// WithLockAssertions makes AssertLockHeld report unguarded reads.
func WithLockAssertions(enabled bool) Option { return func(d *GameData) { d.assertLocks = enabled } }

// WithHistoryCapacity bounds the in-memory history. Zero keeps everything.
func WithHistoryCapacity(n int) Option { return func(d *GameData) { d.historyCap = n } }

// WithObserver reports change timings to o.
func WithObserver(o ChangeObserver) Option { return func(d *GameData) { d.observer = o } }

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *GameData) {
		d.logger = l
		d.loggerSet = true
	}
}

// GameData is the aggregate root of one game session.
//
// Readers bracket access with AcquireReadLock. The accessors below do not
// lock on their own; they return live collections that are only safe to use
// while a lock is held.
type GameData struct {
	id   string
	lock *lock.RWLock

	gameMap             *gamemap.GameMap
	canals              *gamemap.CanalValidator
	players             PlayerList
	units               *UnitsList
	unitTypes           UnitTypeList
	resources           ResourceList
	relationshipTypes   RelationshipTypeList
	relationships       *RelationshipTracker
	alliances           *AllianceTracker
	productionRules     RuleList
	repairRules         RuleList
	productionFrontiers *FrontierList
	repairFrontiers     *FrontierList
	properties          *GameProperties
	sequence            *GameSequence
	battles             *BattleRecords
	delegates           DelegateRegistry
	history             *History
	historyCap          int

	bus         events.Bus
	guard       func() bool
	assertLocks bool
	observer    ChangeObserver
	logger      zerolog.Logger
	loggerSet   bool

	listenersMu  sync.Mutex
	listeners    []registeredListener
	nextListener int

	notifyMu   sync.Mutex
	pending    []Change
	delivering bool
}

type registeredListener struct {
	id int
	fn DataChangeListener
}

// New creates an empty GameData.
func New(opts ...Option) *GameData {
	d := &GameData{
		id:         uuid.NewString(),
		lock:       lock.New(),
		units:      newUnitsList(),
		alliances:  newAllianceTracker(),
		properties: newGameProperties(),
		sequence:   newGameSequence(),
		battles:    newBattleRecords(),
	}
	d.relationships = newRelationshipTracker(&d.relationshipTypes)
	d.productionFrontiers = newFrontierList(core.RuleProduction, &d.productionRules)
	d.repairFrontiers = newFrontierList(core.RuleRepair, &d.repairRules)
	for _, opt := range opts {
		opt(d)
	}
	if d.gameMap == nil {
		d.gameMap = gamemap.New()
	}
	if d.bus == nil {
		d.bus = events.NewEventBus()
	}
	if !d.loggerSet {
		d.logger = log.With().Str("component", "game_data").Str("game_id", d.id).Logger()
	}
	d.history = newHistory(d.historyCap)
	return d
}

func (d *GameData) GameID() string                           { return d.id }
func (d *GameData) Map() *gamemap.GameMap                    { return d.gameMap }
func (d *GameData) Players() *PlayerList                     { return &d.players }
func (d *GameData) Units() *UnitsList                        { return d.units }
func (d *GameData) UnitTypes() *UnitTypeList                 { return &d.unitTypes }
func (d *GameData) Resources() *ResourceList                 { return &d.resources }
func (d *GameData) RelationshipTypes() *RelationshipTypeList { return &d.relationshipTypes }
func (d *GameData) Relationships() *RelationshipTracker      { return d.relationships }
func (d *GameData) Alliances() *AllianceTracker              { return d.alliances }
func (d *GameData) ProductionRules() *RuleList               { return &d.productionRules }
func (d *GameData) RepairRules() *RuleList                   { return &d.repairRules }
func (d *GameData) ProductionFrontiers() *FrontierList       { return d.productionFrontiers }
func (d *GameData) RepairFrontiers() *FrontierList           { return d.repairFrontiers }
func (d *GameData) Properties() *GameProperties              { return d.properties }
func (d *GameData) Sequence() *GameSequence                  { return d.sequence }
func (d *GameData) BattleRecords() *BattleRecords            { return d.battles }
func (d *GameData) Delegates() *DelegateRegistry             { return &d.delegates }
func (d *GameData) History() *History                        { return d.history }
func (d *GameData) Bus() events.Bus                          { return d.bus }

// AddCanal registers a canal and makes the map enforce it. Allied control is
// judged by the game's relationship tracker.
func (d *GameData) AddCanal(c gamemap.Canal) {
	if d.canals == nil {
		d.canals = gamemap.NewCanalValidator(d.gameMap, d.relationships)
		d.gameMap.SetMoveValidator(d.canals)
	}
	d.canals.AddCanal(c)
}

// AcquireReadLock blocks until the read lock is held. Passing a context that
// already holds this game's lock returns immediately.
func (d *GameData) AcquireReadLock(ctx context.Context) (context.Context, lock.Release) {
	return d.lock.RLock(ctx)
}

// AcquireWriteLock blocks until the write lock is held. Asking for it while
// ctx holds only the read lock panics with lock.ErrUpgrade.
func (d *GameData) AcquireWriteLock(ctx context.Context) (context.Context, lock.Release) {
	return d.lock.Lock(ctx)
}

// LockMode reports which hold ctx carries on this game's lock.
func (d *GameData) LockMode(ctx context.Context) lock.Mode { return d.lock.Held(ctx) }

// AssertLockHeld logs an error when lock assertions are on and ctx holds no
// lock. It never panics.
func (d *GameData) AssertLockHeld(ctx context.Context) bool {
	if !d.assertLocks || d.lock.Held(ctx) != lock.Unlocked {
		return true
	}
	d.logger.Error().
		Caller(1).
		Msg("Game data accessed without holding a lock")
	return false
}

// PerformChange applies c atomically under the write lock, records it in
// history and then notifies listeners. A change whose Perform fails is
// returned to the caller as is: whatever it managed to apply stays applied,
// nothing is recorded and no listener hears about it.
func (d *GameData) PerformChange(ctx context.Context, c Change) error {
	if c == nil {
		panic("state: PerformChange called with a nil change")
	}
	d.checkGuard(ChangeTypeOf(c))
	if c.IsEmpty() {
		return nil
	}

	changeType := ChangeTypeOf(c)
	entry, held, err := d.apply(ctx, c)
	if d.observer != nil {
		d.observer.ObserveChange(changeType, held, err)
	}
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("change_type", changeType).
			Msg("Change failed")
		d.bus.Publish(events.NewChangeFailedEvent(d.id, changeType, err, d.metadata()))
		return err
	}

	d.logger.Debug().
		Str("change_type", changeType).
		Int("history_index", entry.Index).
		Dur("lock_held", held).
		Msg("Change performed")

	meta := events.EventMetadata{Round: entry.Round, Step: entry.Step}
	d.notify()
	d.bus.Publish(events.NewChangePerformedEvent(d.id, changeType, entry.Index, held, meta))
	if eventType, ok := LookupGameDataEvent(c); ok {
		d.bus.Publish(events.NewGameDataEvent(d.id, eventType, entry.Index, meta))
	}
	return nil
}

func (d *GameData) apply(ctx context.Context, c Change) (HistoryEntry, time.Duration, error) {
	wctx, release := d.lock.Lock(ctx)
	defer release()

	round, step := d.sequence.Round(), d.sequence.StepName()
	start := time.Now()
	if err := c.Perform(wctx, d); err != nil {
		return HistoryEntry{}, time.Since(start), err
	}
	entry, err := d.history.append(wctx, c, round, step)
	d.enqueue(c)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Int("history_index", entry.Index).
			Msg("History writer failed")
	}
	return entry, time.Since(start), nil
}

func (d *GameData) checkGuard(changeType string) {
	if d.guard != nil && !d.guard() {
		panic(fmt.Errorf("%w (change %s)", ErrGuardViolation, changeType))
	}
}

// RollbackTo undoes every history entry from index on and drops them.
// Listeners are notified with the undoing change.
func (d *GameData) RollbackTo(ctx context.Context, index int) error {
	d.checkGuard("rollback")

	from := d.history.Len()
	if err := d.rollback(ctx, index); err != nil {
		return err
	}
	d.notify()
	d.logger.Info().
		Int("from_len", from).
		Int("to_len", index).
		Msg("History rolled back")
	d.bus.Publish(events.NewHistoryRolledBackEvent(d.id, from, index, d.metadata()))
	return nil
}

func (d *GameData) rollback(ctx context.Context, index int) error {
	wctx, release := d.lock.Lock(ctx)
	defer release()

	undo, err := d.history.undo(index)
	if err != nil {
		return fmt.Errorf("rollback to %d: %w", index, err)
	}
	if err := undo.Perform(wctx, d); err != nil {
		return fmt.Errorf("rollback to %d: %w", index, err)
	}
	if !undo.IsEmpty() {
		d.enqueue(undo)
	}
	if err := d.history.truncate(wctx, index); err != nil {
		d.logger.Warn().
			Err(err).
			Int("length", index).
			Msg("History writer failed to truncate")
	}
	return nil
}

// AddDataChangeListener registers l and returns an ID for removal.
func (d *GameData) AddDataChangeListener(l DataChangeListener) int {
	d.listenersMu.Lock()
	defer d.listenersMu.Unlock()
	d.nextListener++
	d.listeners = append(d.listeners, registeredListener{id: d.nextListener, fn: l})
	return d.nextListener
}

// RemoveDataChangeListener unregisters the listener with id.
func (d *GameData) RemoveDataChangeListener(id int) {
	d.listenersMu.Lock()
	defer d.listenersMu.Unlock()
	for i, l := range d.listeners {
		if l.id == id {
			d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
			return
		}
	}
}

// OnGameDataEvent subscribes fn to one of events.GameDataEventTypes. The
// returned ID can be passed to the bus's UnsubscribeFunc.
func (d *GameData) OnGameDataEvent(eventType string, fn events.EventHandler) string {
	return d.bus.SubscribeFunc(eventType, fn)
}

// enqueue queues c for the listeners. Callers hold the write lock, so the
// queue follows history order.
func (d *GameData) enqueue(c Change) {
	d.notifyMu.Lock()
	d.pending = append(d.pending, c)
	d.notifyMu.Unlock()
}

// notify delivers queued changes unless another goroutine already is.
func (d *GameData) notify() {
	d.notifyMu.Lock()
	if d.delivering {
		d.notifyMu.Unlock()
		return
	}
	d.delivering = true
	d.notifyMu.Unlock()

	drained := false
	defer func() {
		if !drained {
			d.notifyMu.Lock()
			d.delivering = false
			d.notifyMu.Unlock()
		}
	}()
	for {
		c, ok := d.nextPending()
		if !ok {
			drained = true
			return
		}
		d.listenersMu.Lock()
		listeners := append([]registeredListener(nil), d.listeners...)
		d.listenersMu.Unlock()
		for _, l := range listeners {
			l.fn(c)
		}
	}
}

// nextPending pops the oldest queued change. It clears delivering when the
// queue is empty.
func (d *GameData) nextPending() (Change, bool) {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	if len(d.pending) == 0 {
		d.delivering = false
		return nil, false
	}
	c := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]
	return c, true
}

func (d *GameData) metadata() events.EventMetadata {
	return events.EventMetadata{Round: d.sequence.Round(), Step: d.sequence.StepName()}
}

// PostDeserialize rebuilds what is not part of a saved game: listeners,
// cached frontier rules and the map's canal enforcement.
func (d *GameData) PostDeserialize() {
	d.listenersMu.Lock()
	d.listeners = nil
	d.listenersMu.Unlock()

	d.productionFrontiers.invalidate()
	d.repairFrontiers.invalidate()
	if d.canals != nil {
		d.gameMap.SetMoveValidator(d.canals)
	}
}

// PlaceInitialUnits puts the scenario's starting units into holder. It is
// for game setup only: nothing is recorded and no listener is told.
func (d *GameData) PlaceInitialUnits(holder core.UnitHolder, units ...*core.Unit) error {
	for _, u := range units {
		if _, exists := d.units.Get(u.ID()); exists {
			return fmt.Errorf("place unit %s: %w", u.ID(), core.ErrDuplicateUnit)
		}
	}
	if err := holder.AddUnitIDs(unitIDs(units)...); err != nil {
		return fmt.Errorf("place units in %s: %w", holder.HolderRef(), err)
	}
	for _, u := range units {
		d.units.put(u)
	}
	return nil
}

// Holder resolves a stable holder reference.
func (d *GameData) Holder(ref core.HolderRef) (core.UnitHolder, error) {
	switch ref.Kind {
	case core.HolderTerritory:
		if t, ok := d.gameMap.Territory(ref.Name); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%s: %w", ref, core.ErrUnknownTerritory)
	case core.HolderPlayer:
		if p, ok := d.players.Get(ref.Name); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%s: %w", ref, core.ErrUnknownPlayer)
	default:
		return nil, fmt.Errorf("%s: %w", ref, ErrUnknownHolder)
	}
}

// UnitsOf resolves every unit held by h, in holder order.
func (d *GameData) UnitsOf(h core.UnitHolder) []*core.Unit {
	units, err := d.units.Resolve(h.UnitIDs())
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("holder", h.HolderRef().String()).
			Msg("Holder references a unit missing from the arena")
	}
	return units
}

func (d *GameData) unitType(name string) (*core.UnitType, bool) { return d.unitTypes.Get(name) }
