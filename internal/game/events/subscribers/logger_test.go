package subscribers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/events"
	"github.com/mitchelldurbincs/wargame/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())

	// Interested in all events by default
	assert.True(t, logSub.InterestedIn(events.TypeGameStarted))
	assert.True(t, logSub.InterestedIn(events.TypeUnitMoved))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "GameStartedEvent",
			event: events.NewGameStartedEvent("test-game-1", 4, 20),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(4), logLine["num_players"])
				assert.Equal(t, float64(20), logLine["territories"])
			},
		},
		{
			name: "ChangePerformedEvent",
			event: events.NewChangePerformedEvent("test-game-1", "move", 7, 3*time.Millisecond,
				events.EventMetadata{Round: 2, Step: "russianNonCombatMove"}),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "move", logLine["change_type"])
				assert.Equal(t, float64(7), logLine["history_index"])
				assert.Equal(t, float64(2), logLine["round"])
				assert.Equal(t, "russianNonCombatMove", logLine["step"])
				assert.Contains(t, logLine, "lock_held")
			},
		},
		{
			name:  "ChangeFailedEvent",
			event: events.NewChangeFailedEvent("test-game-1", "resources", errors.New("insufficient"), events.EventMetadata{}),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "resources", logLine["change_type"])
				assert.Equal(t, "insufficient", logLine["error"])
				assert.NotContains(t, logLine, "round")
				assert.NotContains(t, logLine, "step")
			},
		},
		{
			name:  "GameDataEvent",
			event: events.NewGameDataEvent("test-game-1", events.TypeGameStepChanged, 12, events.EventMetadata{Round: 3}),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, events.TypeGameStepChanged, logLine["event_type"])
				assert.Equal(t, "game", logLine["category"])
				assert.Equal(t, float64(12), logLine["history_index"])
				assert.Equal(t, float64(3), logLine["round"])
			},
		},
		{
			name:  "PeerEvent",
			event: events.NewPeerEvent("test-game-1", events.TypePeerConnected, "peer-9", "websocket"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "peer-9", logLine["peer_id"])
				assert.Equal(t, "websocket", logLine["transport"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))

			assert.Equal(t, "Game event", logLine["message"])
			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, "test-game-1", logLine["game_id"])
			assert.Equal(t, "event_logger", logLine["subscriber"])
			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("filtered-logger", logger, zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeGameStarted, events.TypeGameEnded})

	assert.True(t, logSub.InterestedIn(events.TypeGameStarted))
	assert.True(t, logSub.InterestedIn(events.TypeGameEnded))
	assert.False(t, logSub.InterestedIn(events.TypeChangePerformed))
	assert.False(t, logSub.InterestedIn(events.TypeUnitMoved))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeUnitMoved))
}

func TestLoggerSubscriber_OnBus_OnlyFilteredEventsLogged(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("bus-logger", zerolog.New(&buf), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeGameStepChanged})

	bus := events.NewEventBus()
	bus.Subscribe(logSub)

	bus.Publish(events.NewGameDataEvent("g", events.TypeUnitMoved, 0, events.EventMetadata{}))
	assert.Empty(t, buf.String())

	bus.Publish(events.NewGameDataEvent("g", events.TypeGameStepChanged, 1, events.EventMetadata{}))
	assert.Contains(t, buf.String(), events.TypeGameStepChanged)
}

func TestLoggerSubscriberLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel zerolog.Level
		expected string
	}{
		{"Debug", zerolog.DebugLevel, "debug"},
		{"Info", zerolog.InfoLevel, "info"},
		{"Warn", zerolog.WarnLevel, "warn"},
		{"Error", zerolog.ErrorLevel, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(tc.logLevel)

			logSub := subscribers.NewLoggerSubscriber("level-logger", logger, tc.logLevel)
			logSub.HandleEvent(events.NewGameStartedEvent("game1", 2, 10))

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
			assert.Equal(t, tc.expected, logLine["level"])
		})
	}
}

func TestLoggerSubscriberDevelopmentMode(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("dev-logger", logger, zerolog.InfoLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewChangePerformedEvent("dev-game", "transfer", 4, time.Millisecond, events.EventMetadata{}))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))

	eventData, ok := logLine["event_data"]
	require.True(t, ok, "event_data should be present")

	eventDataBytes, err := json.Marshal(eventData)
	require.NoError(t, err)
	assert.Contains(t, string(eventDataBytes), events.TypeChangePerformed)
	assert.Contains(t, string(eventDataBytes), "ChangeType")
}
