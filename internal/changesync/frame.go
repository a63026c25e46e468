package changesync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Frame kinds.
const (
	FrameChange   = "change"
	FrameTruncate = "truncate"
)

// Frame is one message on a change stream. A change frame carries the
// encoded change performed at Index. A truncate frame says history was
// rolled back to length Index.
type Frame struct {
	Kind   string          `json:"kind"`
	Index  int             `json:"index"`
	Round  int             `json:"round,omitempty"`
	Step   string          `json:"step,omitempty"`
	Change json.RawMessage `json:"change,omitempty"`
}

func changeFrame(e state.HistoryEntry) (Frame, error) {
	data, err := state.MarshalChange(e.Change)
	if err != nil {
		return Frame{}, fmt.Errorf("encode entry %d: %w", e.Index, err)
	}
	return Frame{Kind: FrameChange, Index: e.Index, Round: e.Round, Step: e.Step, Change: data}, nil
}

// Apply performs the frame against target. Change frames must arrive in
// order: Index has to equal target's history length.
func (f Frame) Apply(ctx context.Context, target *state.GameData) error {
	switch f.Kind {
	case FrameChange:
		if n := target.History().Len(); f.Index != n {
			return fmt.Errorf("frame %d at history length %d: %w", f.Index, n, ErrOutOfSync)
		}
		c, err := state.UnmarshalChange(f.Change)
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", f.Index, err)
		}
		return target.PerformChange(ctx, c)
	case FrameTruncate:
		return target.RollbackTo(ctx, f.Index)
	default:
		return fmt.Errorf("frame kind %q: %w", f.Kind, ErrOutOfSync)
	}
}
