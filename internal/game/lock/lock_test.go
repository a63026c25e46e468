package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRLock_Reentrant(t *testing.T) {
	l := New()
	ctx, release := l.RLock(context.Background())
	defer release()
	assert.Equal(t, Read, l.Held(ctx))

	inner, innerRelease := l.RLock(ctx)
	assert.Equal(t, ctx, inner, "reentry returns the same context")
	innerRelease()
	assert.Equal(t, 1, l.ReadHolders())
}

func TestLock_ReentrantAndReadInsideWrite(t *testing.T) {
	l := New()
	ctx, release := l.Lock(context.Background())
	defer release()

	_, again := l.Lock(ctx)
	again()
	_, read := l.RLock(ctx)
	read()

	assert.True(t, l.IsWriteLocked())
	assert.Equal(t, Write, l.Held(ctx))
}

func TestLock_UpgradePanics(t *testing.T) {
	l := New()
	ctx, release := l.RLock(context.Background())
	defer release()

	assert.PanicsWithValue(t, ErrUpgrade, func() { l.Lock(ctx) })
}

func TestRelease_Idempotent(t *testing.T) {
	l := New()
	_, release := l.Lock(context.Background())
	release()
	release()

	assert.False(t, l.IsWriteLocked())
	_, again := l.Lock(context.Background())
	again()
}

func TestHeld_DistinctLocks(t *testing.T) {
	a, b := New(), New()
	ctx, release := a.Lock(context.Background())
	defer release()

	assert.Equal(t, Write, a.Held(ctx))
	assert.Equal(t, Unlocked, b.Held(ctx))
}

func TestLock_WriterExcludesReaders(t *testing.T) {
	l := New()
	_, release := l.Lock(context.Background())

	acquired := make(chan struct{})
	go func() {
		_, r := l.RLock(context.Background())
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired the lock while a writer held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never acquired the lock after the writer released")
	}
}

func TestLock_ConcurrentReaders(t *testing.T) {
	l := New()
	const readers = 8
	var wg sync.WaitGroup
	inside := make(chan struct{}, readers)
	proceed := make(chan struct{})

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, r := l.RLock(context.Background())
			defer r()
			inside <- struct{}{}
			<-proceed
		}()
	}

	for i := 0; i < readers; i++ {
		select {
		case <-inside:
		case <-time.After(2 * time.Second):
			t.Fatal("readers did not share the lock")
		}
	}
	require.Equal(t, readers, l.ReadHolders())
	close(proceed)
	wg.Wait()
	assert.Equal(t, 0, l.ReadHolders())
}

func TestLock_WaitingWriterBlocksNewReaders(t *testing.T) {
	l := New()
	_, first := l.RLock(context.Background())

	order := make(chan string, 2)
	go func() {
		_, r := l.Lock(context.Background())
		order <- "writer"
		r()
	}()
	// Let the writer queue up behind the first reader.
	time.Sleep(50 * time.Millisecond)
	go func() {
		_, r := l.RLock(context.Background())
		order <- "reader"
		r()
	}()

	select {
	case got := <-order:
		t.Fatalf("%s acquired while the first reader held the lock", got)
	case <-time.After(50 * time.Millisecond):
	}

	first()
	assert.Equal(t, "writer", <-order)
	assert.Equal(t, "reader", <-order)
}
