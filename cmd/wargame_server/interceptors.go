package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mitchelldurbincs/wargame/internal/changesync"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// rpcInterceptors logs and guards every ChangeSync call.
type rpcInterceptors struct {
	logger zerolog.Logger
}

func newRPCInterceptors(logger zerolog.Logger) *rpcInterceptors {
	return &rpcInterceptors{logger: logger.With().Str("component", "grpc").Logger()}
}

// peerID returns the peer ID a client sent, or "" if it sent none.
func peerID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if ids := md.Get(changesync.PeerIDKey); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// levelFor picks the log level for a finished call.
func levelFor(code codes.Code) zerolog.Level {
	switch code {
	case codes.OK, codes.Canceled:
		return zerolog.DebugLevel
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition,
		codes.ResourceExhausted, codes.Aborted, codes.Unavailable:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// panicStatus converts a recovered handler panic into the status sent to
// the peer. Guard violations become FailedPrecondition, the rest Internal.
func panicStatus(r any) error {
	if err, ok := r.(error); ok && errors.Is(err, state.ErrGuardViolation) {
		return status.Error(codes.FailedPrecondition, "game is not accepting changes")
	}
	return status.Error(codes.Internal, "internal server error")
}

func (ri *rpcInterceptors) logCall(ctx context.Context, method string, start time.Time, err error) *zerolog.Event {
	code := status.Code(err)
	return ri.logger.WithLevel(levelFor(code)).
		Str("method", method).
		Str("peer_id", peerID(ctx)).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Err(err)
}

func (ri *rpcInterceptors) unaryLogging(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	ri.logCall(ctx, info.FullMethod, start, err).Msg("gRPC call")
	return resp, err
}

func (ri *rpcInterceptors) unaryRecovery(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ri.logger.Error().
				Str("method", info.FullMethod).
				Str("peer_id", peerID(ctx)).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC handler")
			err = panicStatus(r)
		}
	}()
	return handler(ctx, req)
}

func (ri *rpcInterceptors) streamLogging(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	ri.logCall(ss.Context(), info.FullMethod, start, err).
		Bool("is_server_stream", info.IsServerStream).
		Msg("gRPC stream")
	return err
}

func (ri *rpcInterceptors) streamRecovery(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ri.logger.Error().
				Str("method", info.FullMethod).
				Str("peer_id", peerID(ss.Context())).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC stream handler")
			err = panicStatus(r)
		}
	}()
	return handler(srv, ss)
}
