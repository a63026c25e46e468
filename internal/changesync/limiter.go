package changesync

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneInterval is how often Allow sweeps buckets that have refilled.
const pruneInterval = time.Minute

// PeerLimiter applies a token bucket per peer ID. A bucket is dropped only
// once it has refilled completely, so a peer gains nothing by reconnecting.
type PeerLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

// NewPeerLimiter allows each peer perSecond pushes with the given burst.
// A non-positive perSecond disables limiting.
func NewPeerLimiter(perSecond float64, burst int) *PeerLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &PeerLimiter{limiters: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

// Allow reports whether peer may act now, consuming a token if so.
func (pl *PeerLimiter) Allow(peer string) bool {
	return pl.allowAt(peer, time.Now())
}

func (pl *PeerLimiter) allowAt(peer string, now time.Time) bool {
	if pl.limit == rate.Inf {
		return true
	}
	pl.mu.Lock()
	if now.Sub(pl.lastPrune) >= pruneInterval {
		pl.pruneLocked(now)
		pl.lastPrune = now
	}
	limiter, exists := pl.limiters[peer]
	if !exists {
		limiter = rate.NewLimiter(pl.limit, pl.burst)
		pl.limiters[peer] = limiter
	}
	pl.mu.Unlock()
	return limiter.AllowN(now, 1)
}

func (pl *PeerLimiter) pruneLocked(now time.Time) {
	for peer, limiter := range pl.limiters {
		if limiter.TokensAt(now) >= float64(pl.burst) {
			delete(pl.limiters, peer)
		}
	}
}

// Peers is the number of tracked peers.
func (pl *PeerLimiter) Peers() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.limiters)
}
