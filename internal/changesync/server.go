// Package changesync keeps peers' copies of a game in step with a host. The
// host serves the ChangeSync gRPC service and a read-only websocket feed;
// every performed change is streamed as an encoded frame.
package changesync

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mitchelldurbincs/wargame/internal/game/events"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Server implements ChangeSyncServer for one hosted game.
type Server struct {
	d       *state.GameData
	hub     *Hub
	limiter *PeerLimiter
	logger  zerolog.Logger
}

// NewServer serves d through hub. limiter may be nil to accept every push.
func NewServer(d *state.GameData, hub *Hub, limiter *PeerLimiter) *Server {
	return &Server{
		d:       d,
		hub:     hub,
		limiter: limiter,
		logger:  log.With().Str("component", "change_sync").Str("game_id", d.GameID()).Logger(),
	}
}

// Push decodes and performs a change for a peer.
func (s *Server) Push(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.Int64Value, error) {
	peerID := peerIDFrom(ctx)
	if s.limiter != nil && !s.limiter.Allow(peerID) {
		s.logger.Warn().
			Str("peer_id", peerID).
			Msg("Push rate limited")
		return nil, status.Errorf(codes.ResourceExhausted, "peer %s: %v", peerID, ErrRateLimited)
	}

	c, err := state.UnmarshalChange(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode change: %v", err)
	}
	if c.IsEmpty() {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", state.ChangeTypeOf(c), ErrEmptyChange)
	}

	wctx, release := s.d.AcquireWriteLock(ctx)
	err = s.d.PerformChange(wctx, c)
	index := s.d.History().Len() - 1
	release()
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "perform %s: %v", state.ChangeTypeOf(c), err)
	}

	s.logger.Debug().
		Str("peer_id", peerID).
		Str("change_type", state.ChangeTypeOf(c)).
		Int("history_index", index).
		Msg("Peer change performed")
	return wrapperspb.Int64(int64(index)), nil
}

// Length reports the hosted game's history length.
func (s *Server) Length(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(int64(s.d.History().Len())), nil
}

// Subscribe streams frames from the requested index until the peer goes
// away or falls behind.
func (s *Server) Subscribe(req *wrapperspb.Int64Value, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	ctx := stream.Context()
	peerID := peerIDFrom(ctx)

	backlog, sub, err := s.hub.Subscribe(ctx, int(req.GetValue()))
	if err != nil {
		if errors.Is(err, state.ErrHistoryIndex) {
			return status.Errorf(codes.OutOfRange, "%v", err)
		}
		return status.Errorf(codes.Unavailable, "%v", err)
	}
	defer sub.Close()

	s.d.Bus().Publish(events.NewPeerEvent(s.d.GameID(), events.TypePeerConnected, peerID, "grpc"))
	defer s.d.Bus().Publish(events.NewPeerEvent(s.d.GameID(), events.TypePeerDisconnected, peerID, "grpc"))

	for _, f := range backlog {
		if err := sendFrame(stream, f); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-sub.C():
			if !ok {
				s.logger.Warn().
					Err(sub.Err()).
					Str("peer_id", peerID).
					Msg("Subscription ended")
				return status.Errorf(codes.Aborted, "%v", sub.Err())
			}
			if err := sendFrame(stream, f); err != nil {
				return err
			}
		}
	}
}

func sendFrame(stream grpc.ServerStreamingServer[wrapperspb.BytesValue], f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return status.Errorf(codes.Internal, "encode frame %d: %v", f.Index, err)
	}
	return stream.Send(wrapperspb.Bytes(data))
}

func peerIDFrom(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(PeerIDKey); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}
