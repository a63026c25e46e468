package events

import (
	"time"
)

// Event type constants
const (
	TypeGameStarted           = "game.started"
	TypeGameEnded             = "game.ended"
	TypeChangePerformed       = "change.performed"
	TypeChangeFailed          = "change.failed"
	TypeHistoryRolledBack     = "history.rolled_back"
	TypeUnitMoved             = "unit.moved"
	TypeTechAttachmentChanged = "tech.attachment_changed"
	TypeGameStepChanged       = "game.step_changed"
	TypePeerConnected         = "peer.connected"
	TypePeerDisconnected      = "peer.disconnected"
)

// GameDataEventTypes are the high-level tags derived from performed changes.
var GameDataEventTypes = []string{
	TypeUnitMoved,
	TypeTechAttachmentChanged,
	TypeGameStepChanged,
}

func newBase(eventType, gameID string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Game:      gameID,
	}
}

// GameStartedEvent is published when a game session is set up and ready to
// accept changes
type GameStartedEvent struct {
	BaseEvent
	Metadata    EventMetadata
	NumPlayers  int
	Territories int
}

// NewGameStartedEvent creates a new GameStartedEvent
func NewGameStartedEvent(gameID string, numPlayers, territories int) *GameStartedEvent {
	return &GameStartedEvent{
		BaseEvent:   newBase(TypeGameStarted, gameID),
		NumPlayers:  numPlayers,
		Territories: territories,
	}
}

// GameEndedEvent is published when a game session is shut down
type GameEndedEvent struct {
	BaseEvent
	Metadata EventMetadata
	Duration time.Duration
	Changes  int
}

// NewGameEndedEvent creates a new GameEndedEvent
func NewGameEndedEvent(gameID string, duration time.Duration, changes int) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: newBase(TypeGameEnded, gameID),
		Duration:  duration,
		Changes:   changes,
	}
}

// ChangePerformedEvent is published after a change has been applied and
// recorded in history
type ChangePerformedEvent struct {
	BaseEvent
	Metadata     EventMetadata
	ChangeType   string
	HistoryIndex int
	LockHeld     time.Duration
}

// NewChangePerformedEvent creates a new ChangePerformedEvent
func NewChangePerformedEvent(gameID, changeType string, index int, held time.Duration, meta EventMetadata) *ChangePerformedEvent {
	return &ChangePerformedEvent{
		BaseEvent:    newBase(TypeChangePerformed, gameID),
		Metadata:     meta,
		ChangeType:   changeType,
		HistoryIndex: index,
		LockHeld:     held,
	}
}

// ChangeFailedEvent is published when a change's Perform returned an error.
// Data change listeners are not notified for failed changes.
type ChangeFailedEvent struct {
	BaseEvent
	Metadata   EventMetadata
	ChangeType string
	Err        error
}

// NewChangeFailedEvent creates a new ChangeFailedEvent
func NewChangeFailedEvent(gameID, changeType string, err error, meta EventMetadata) *ChangeFailedEvent {
	return &ChangeFailedEvent{
		BaseEvent:  newBase(TypeChangeFailed, gameID),
		Metadata:   meta,
		ChangeType: changeType,
		Err:        err,
	}
}

// HistoryRolledBackEvent is published after history was rewound
type HistoryRolledBackEvent struct {
	BaseEvent
	Metadata EventMetadata
	FromLen  int
	ToLen    int
}

// NewHistoryRolledBackEvent creates a new HistoryRolledBackEvent
func NewHistoryRolledBackEvent(gameID string, fromLen, toLen int, meta EventMetadata) *HistoryRolledBackEvent {
	return &HistoryRolledBackEvent{
		BaseEvent: newBase(TypeHistoryRolledBack, gameID),
		Metadata:  meta,
		FromLen:   fromLen,
		ToLen:     toLen,
	}
}

// GameDataEvent is the high-level tag derived from the shape of a performed
// change. Its Type is one of GameDataEventTypes.
type GameDataEvent struct {
	BaseEvent
	Metadata     EventMetadata
	HistoryIndex int
}

// NewGameDataEvent creates a GameDataEvent of the given type
func NewGameDataEvent(gameID, eventType string, index int, meta EventMetadata) *GameDataEvent {
	return &GameDataEvent{
		BaseEvent:    newBase(eventType, gameID),
		Metadata:     meta,
		HistoryIndex: index,
	}
}

// PeerEvent is published when a sync peer connects or disconnects
type PeerEvent struct {
	BaseEvent
	PeerID    string
	Transport string
}

// NewPeerEvent creates a PeerEvent of TypePeerConnected or TypePeerDisconnected
func NewPeerEvent(gameID, eventType, peerID, transport string) *PeerEvent {
	return &PeerEvent{
		BaseEvent: newBase(eventType, gameID),
		PeerID:    peerID,
		Transport: transport,
	}
}
