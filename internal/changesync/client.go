package changesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Client is a peer of a ChangeSync host.
type Client struct {
	rpc    ChangeSyncClient
	peerID string
	logger zerolog.Logger
}

// NewClient wraps a connection to the host. peerID is sent with every call.
func NewClient(cc grpc.ClientConnInterface, peerID string) *Client {
	return &Client{
		rpc:    NewChangeSyncClient(cc),
		peerID: peerID,
		logger: log.With().Str("component", "change_sync_client").Str("peer_id", peerID).Logger(),
	}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, PeerIDKey, c.peerID)
}

// Push sends c to the host and returns the history index it was recorded at.
func (c *Client) Push(ctx context.Context, change state.Change) (int, error) {
	data, err := state.MarshalChange(change)
	if err != nil {
		return 0, err
	}
	resp, err := c.rpc.Push(c.outgoing(ctx), wrapperspb.Bytes(data))
	if err != nil {
		return 0, fmt.Errorf("push %s: %w", state.ChangeTypeOf(change), err)
	}
	return int(resp.GetValue()), nil
}

// Length returns the host's history length.
func (c *Client) Length(ctx context.Context) (int, error) {
	resp, err := c.rpc.Length(c.outgoing(ctx), &emptypb.Empty{})
	if err != nil {
		return 0, err
	}
	return int(resp.GetValue()), nil
}

// Follow subscribes from target's current history length and applies every
// frame to target until ctx ends or the stream fails. onFrame, if set, runs
// after each applied frame.
func (c *Client) Follow(ctx context.Context, target *state.GameData, onFrame func(Frame)) error {
	from := target.History().Len()
	stream, err := c.rpc.Subscribe(c.outgoing(ctx), wrapperspb.Int64(int64(from)))
	if err != nil {
		return fmt.Errorf("subscribe from %d: %w", from, err)
	}
	c.logger.Info().
		Int("from", from).
		Msg("Following host")

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive frame: %w", err)
		}
		var f Frame
		if err := json.Unmarshal(msg.GetValue(), &f); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if err := f.Apply(ctx, target); err != nil {
			return fmt.Errorf("apply frame %d: %w", f.Index, err)
		}
		if onFrame != nil {
			onFrame(f)
		}
	}
}
