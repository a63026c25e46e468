package changesync

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
	"github.com/mitchelldurbincs/wargame/internal/testutil"
)

const bufSize = 1024 * 1024

type testHost struct {
	world *testutil.World
	hub   *Hub
	conn  *grpc.ClientConn
}

// setupTestHost serves a World over an in-memory listener.
func setupTestHost(t *testing.T, limiter *PeerLimiter) *testHost {
	t.Helper()
	w := testutil.NewWorld(t)
	hub := NewHub(w.Data, 0)

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	RegisterChangeSyncServer(s, NewServer(w.Data, hub, limiter))
	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		hub.Close()
		s.Stop()
		lis.Close()
	})
	return &testHost{world: w, hub: hub, conn: conn}
}

func TestPush_PerformsOnHost(t *testing.T) {
	host := setupTestHost(t, nil)
	w := host.world
	client := NewClient(host.conn, "peer-1")
	ctx := context.Background()

	move, err := state.MoveUnits(w.Data, gamemap.MustRoute(w.Germany, w.Poland), w.UnitsOfType(w.Germany, w.Armour))
	require.NoError(t, err)

	index, err := client.Push(ctx, move)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	assert.Equal(t, 1, w.Poland.UnitCount())

	index, err = client.Push(ctx, state.ChangeOwner(w.Poland, w.Germans.Name()))
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	n, err := client.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPush_Errors(t *testing.T) {
	host := setupTestHost(t, nil)
	w := host.world
	rpc := NewChangeSyncClient(host.conn)
	ctx := context.Background()

	_, err := rpc.Push(ctx, wrapperspb.Bytes([]byte(`{"type":"teleport","data":{}}`)))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	client := NewClient(host.conn, "peer-1")
	_, err = client.Push(ctx, state.ChangeResources(w.Germans, testutil.PUs, -100))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, 0, w.Data.History().Len())
}

func TestPush_EmptyChange_IsRejected(t *testing.T) {
	host := setupTestHost(t, nil)
	w := host.world
	client := NewClient(host.conn, "peer-1")
	ctx := context.Background()

	index, err := client.Push(ctx, state.ChangeOwner(w.Poland, w.Germans.Name()))
	require.NoError(t, err)
	require.Equal(t, 0, index)

	_, err = client.Push(ctx, state.NewCompositeChange())
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), ErrEmptyChange.Error())

	_, err = client.Push(ctx, state.ChangeResources(w.Germans, testutil.PUs, 0))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, 1, w.Data.History().Len())
}

func TestPush_RateLimitedPerPeer(t *testing.T) {
	host := setupTestHost(t, NewPeerLimiter(1, 1))
	w := host.world
	ctx := context.Background()
	spend := state.ChangeResources(w.Germans, testutil.PUs, -1)

	first := NewClient(host.conn, "peer-1")
	_, err := first.Push(ctx, spend)
	require.NoError(t, err)
	_, err = first.Push(ctx, spend)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	second := NewClient(host.conn, "peer-2")
	_, err = second.Push(ctx, spend)
	assert.NoError(t, err, "buckets are per peer")
	assert.Equal(t, 28, w.Germans.Resources().Quantity(testutil.PUs))
}

func TestFollow_ReplicatesChangesAndRollbacks(t *testing.T) {
	host := setupTestHost(t, nil)
	w := host.world
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buy, err := state.Purchase(w.Data, w.Germans, testutil.BuyInfantry, 2)
	require.NoError(t, err)
	require.NoError(t, w.Data.PerformChange(ctx, buy))

	replica := testutil.NewWorld(t)
	frames := make(chan Frame, 16)
	done := make(chan error, 1)
	go func() {
		done <- NewClient(host.conn, "replica").Follow(ctx, replica.Data, func(f Frame) { frames <- f })
	}()

	next := func() Frame {
		t.Helper()
		select {
		case f := <-frames:
			return f
		case err := <-done:
			t.Fatalf("follow ended early: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
		return Frame{}
	}

	assert.Equal(t, 0, next().Index, "backlog first")

	require.Eventually(t, func() bool { return host.hub.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Data.PerformChange(ctx, state.AdvanceStep(w.Data.Sequence())))
	require.NoError(t, w.Data.PerformChange(ctx, state.Conquer(w.Data, w.Poland, w.Germans)))
	assert.Equal(t, 1, next().Index)
	assert.Equal(t, 2, next().Index)
	assert.Equal(t, w.TakeSnapshot(), replica.TakeSnapshot())

	require.NoError(t, w.Data.RollbackTo(ctx, 1))
	f := next()
	assert.Equal(t, FrameTruncate, f.Kind)
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, w.TakeSnapshot(), replica.TakeSnapshot())
	assert.Equal(t, 1, replica.Data.History().Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestSubscribe_FromUnknownIndex(t *testing.T) {
	host := setupTestHost(t, nil)
	stream, err := NewChangeSyncClient(host.conn).Subscribe(context.Background(), wrapperspb.Int64(5))
	require.NoError(t, err)

	_, err = stream.Recv()
	assert.Equal(t, codes.OutOfRange, status.Code(err))
}

func TestHub_DropsLaggingSubscriber(t *testing.T) {
	w := testutil.NewWorld(t)
	hub := NewHub(w.Data, 1)
	ctx := context.Background()

	backlog, sub, err := hub.Subscribe(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, backlog)

	spend := state.ChangeResources(w.Germans, testutil.PUs, -1)
	require.NoError(t, w.Data.PerformChange(ctx, spend))
	require.NoError(t, w.Data.PerformChange(ctx, spend))

	f, ok := <-sub.C()
	require.True(t, ok)
	assert.Equal(t, 0, f.Index)
	_, ok = <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), ErrSubscriberLagged)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	w := testutil.NewWorld(t)
	hub := NewHub(w.Data, 0)
	_, sub, err := hub.Subscribe(context.Background(), 0)
	require.NoError(t, err)

	hub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), ErrHubClosed)

	_, _, err = hub.Subscribe(context.Background(), 0)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestFeed_StreamsBacklogOverWebsocket(t *testing.T) {
	w := testutil.NewWorld(t)
	hub := NewHub(w.Data, 0)
	ctx := context.Background()
	require.NoError(t, w.Data.PerformChange(ctx, state.ChangeOwner(w.Poland, w.Germans.Name())))
	require.NoError(t, w.Data.PerformChange(ctx, state.ChangeOwner(w.Finland, w.Russians.Name())))

	srv := httptest.NewServer(NewFeed(w.Data, hub))
	defer srv.Close()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?from=1", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	msgType, data, err := conn.Read(dialCtx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, FrameChange, f.Kind)
	assert.Equal(t, 1, f.Index)
	assert.JSONEq(t, `{"type":"owner","data":{"territory":"Finland","old":"","new":"Russians"}}`, string(f.Change))

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestFeed_RejectsBadFrom(t *testing.T) {
	w := testutil.NewWorld(t)
	srv := httptest.NewServer(NewFeed(w.Data, NewHub(w.Data, 0)))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "?from=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

func TestPeerLimiter(t *testing.T) {
	pl := NewPeerLimiter(1, 2)
	assert.True(t, pl.Allow("a"))
	assert.True(t, pl.Allow("a"))
	assert.False(t, pl.Allow("a"))
	assert.True(t, pl.Allow("b"))
	assert.Equal(t, 2, pl.Peers())

	unlimited := NewPeerLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("a"))
	}
	assert.Zero(t, unlimited.Peers())
}

func TestPeerLimiter_PrunesOnlyRefilledBuckets(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	pl := NewPeerLimiter(0.01, 2)

	assert.True(t, pl.allowAt("slow", t0))
	assert.True(t, pl.allowAt("slow", t0))
	assert.False(t, pl.allowAt("slow", t0))
	assert.True(t, pl.allowAt("idle", t0))

	// One sweep later neither bucket is full again at 0.01 tokens per second.
	later := t0.Add(pruneInterval)
	assert.False(t, pl.allowAt("slow", later), "drained bucket survives the sweep")
	assert.Equal(t, 2, pl.Peers())

	// 2 tokens take 200s to refill.
	refilled := t0.Add(5 * pruneInterval)
	assert.True(t, pl.allowAt("new", refilled))
	assert.Equal(t, 1, pl.Peers())
}

func TestPush_RateLimit_SurvivesResubscribe(t *testing.T) {
	host := setupTestHost(t, NewPeerLimiter(0.01, 1))
	w := host.world
	client := NewClient(host.conn, "peer-1")
	ctx := context.Background()
	spend := state.ChangeResources(w.Germans, testutil.PUs, -1)

	_, err := client.Push(ctx, spend)
	require.NoError(t, err)

	subCtx, cancel := context.WithCancel(ctx)
	stream, err := NewChangeSyncClient(host.conn).Subscribe(client.outgoing(subCtx), wrapperspb.Int64(0))
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)
	cancel()

	_, err = client.Push(ctx, spend)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Equal(t, 29, w.Germans.Resources().Quantity(testutil.PUs))
}
