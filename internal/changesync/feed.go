package changesync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/wargame/internal/game/events"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

const feedWriteWait = 10 * time.Second

// Feed serves a read-only websocket stream of frames. Clients pass the
// history index to start from as the "from" query parameter.
type Feed struct {
	d              *state.GameData
	hub            *Hub
	originPatterns []string
	logger         zerolog.Logger
}

// NewFeed creates a feed over hub. originPatterns is passed to
// websocket.Accept; empty means same-origin only.
func NewFeed(d *state.GameData, hub *Hub, originPatterns ...string) *Feed {
	return &Feed{
		d:              d,
		hub:            hub,
		originPatterns: originPatterns,
		logger:         log.With().Str("component", "change_feed").Str("game_id", d.GameID()).Logger(),
	}
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	from := 0
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = n
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: f.originPatterns})
	if err != nil {
		f.logger.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.CloseNow()

	peerID := uuid.NewString()
	ctx := conn.CloseRead(r.Context())

	backlog, sub, err := f.hub.Subscribe(ctx, from)
	if err != nil {
		code := websocket.StatusInternalError
		if errors.Is(err, state.ErrHistoryIndex) {
			code = websocket.StatusPolicyViolation
		}
		conn.Close(code, err.Error())
		return
	}
	defer sub.Close()

	f.d.Bus().Publish(events.NewPeerEvent(f.d.GameID(), events.TypePeerConnected, peerID, "websocket"))
	defer f.d.Bus().Publish(events.NewPeerEvent(f.d.GameID(), events.TypePeerDisconnected, peerID, "websocket"))
	f.logger.Info().
		Str("peer_id", peerID).
		Int("from", from).
		Str("remote_addr", r.RemoteAddr).
		Msg("Feed client connected")

	for _, fr := range backlog {
		if err := f.write(ctx, conn, fr); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case fr, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusTryAgainLater, "subscriber lagged")
				return
			}
			if err := f.write(ctx, conn, fr); err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
					f.logger.Debug().Err(err).Str("peer_id", peerID).Msg("Feed write failed")
				}
				return
			}
		}
	}
}

func (f *Feed) write(ctx context.Context, conn *websocket.Conn, fr Frame) error {
	data, err := json.Marshal(fr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, feedWriteWait)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
