package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GatewayMonitor tracks what passes through GameData.PerformChange. It
// implements state.ChangeObserver.
type GatewayMonitor struct {
	mu             sync.RWMutex
	byType         map[string]*typeStats
	slowWrites     int
	slowThreshold  time.Duration
	lastAlert      time.Time
	alertCooldown  time.Duration
	checkInterval  time.Duration
	peakGoroutines int
	stopChan       chan struct{}
	stopOnce       sync.Once
	logger         zerolog.Logger
}

type typeStats struct {
	performed int
	failed    int
	totalHeld time.Duration
	maxHeld   time.Duration
}

// NewGatewayMonitor flags writes that hold the game lock longer than
// slowThreshold. A zero threshold disables slow-write alerts.
func NewGatewayMonitor(slowThreshold time.Duration) *GatewayMonitor {
	return &GatewayMonitor{
		byType:         make(map[string]*typeStats),
		slowThreshold:  slowThreshold,
		alertCooldown:  time.Minute,
		checkInterval:  30 * time.Second,
		peakGoroutines: runtime.NumGoroutine(),
		stopChan:       make(chan struct{}),
		logger:         log.With().Str("component", "gateway_monitor").Logger(),
	}
}

// SetCheckInterval changes how often Start reports. Call before Start.
func (gm *GatewayMonitor) SetCheckInterval(d time.Duration) { gm.checkInterval = d }

// ObserveChange records one PerformChange call.
func (gm *GatewayMonitor) ObserveChange(changeType string, lockHeld time.Duration, err error) {
	gm.mu.Lock()
	st, ok := gm.byType[changeType]
	if !ok {
		st = &typeStats{}
		gm.byType[changeType] = st
	}
	if err != nil {
		st.failed++
	} else {
		st.performed++
	}
	st.totalHeld += lockHeld
	if lockHeld > st.maxHeld {
		st.maxHeld = lockHeld
	}

	slow := gm.slowThreshold > 0 && lockHeld > gm.slowThreshold
	shouldAlert := false
	if slow {
		gm.slowWrites++
		shouldAlert = time.Since(gm.lastAlert) > gm.alertCooldown
		if shouldAlert {
			gm.lastAlert = time.Now()
		}
	}
	gm.mu.Unlock()

	if shouldAlert {
		gm.logger.Warn().
			Str("change_type", changeType).
			Dur("lock_held", lockHeld).
			Dur("threshold", gm.slowThreshold).
			Msg("Slow write detected - game lock held too long")
	}
}

// Start begins periodic metric reports.
func (gm *GatewayMonitor) Start() {
	go gm.monitor()
	gm.logger.Info().
		Dur("interval", gm.checkInterval).
		Dur("slow_threshold", gm.slowThreshold).
		Msg("Started gateway monitoring")
}

// Stop stops periodic reports. It is safe to call more than once.
func (gm *GatewayMonitor) Stop() {
	gm.stopOnce.Do(func() { close(gm.stopChan) })
}

func (gm *GatewayMonitor) monitor() {
	defer func() {
		if r := recover(); r != nil {
			gm.logger.Error().
				Interface("panic", r).
				Msg("Gateway monitor panicked - restarting")
			time.Sleep(5 * time.Second)
			go gm.monitor()
		}
	}()

	ticker := time.NewTicker(gm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.report()
		case <-gm.stopChan:
			return
		}
	}
}

func (gm *GatewayMonitor) report() {
	goroutines := runtime.NumGoroutine()
	gm.mu.Lock()
	if goroutines > gm.peakGoroutines {
		gm.peakGoroutines = goroutines
	}
	gm.mu.Unlock()

	m := gm.GetMetrics()
	gm.logger.Debug().
		Int("performed", m.Performed).
		Int("failed", m.Failed).
		Int("slow_writes", m.SlowWrites).
		Dur("max_lock_held", m.MaxLockHeld).
		Int("goroutines", goroutines).
		Int("peak_goroutines", m.PeakGoroutines).
		Msg("Gateway metrics")
}

// GetMetrics returns a snapshot of the collected metrics.
func (gm *GatewayMonitor) GetMetrics() GatewayMetrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	m := GatewayMetrics{
		SlowWrites:     gm.slowWrites,
		PeakGoroutines: gm.peakGoroutines,
		ByType:         make(map[string]ChangeTypeMetrics, len(gm.byType)),
	}
	var total time.Duration
	for name, st := range gm.byType {
		m.Performed += st.performed
		m.Failed += st.failed
		total += st.totalHeld
		if st.maxHeld > m.MaxLockHeld {
			m.MaxLockHeld = st.maxHeld
		}
		m.ByType[name] = ChangeTypeMetrics{
			Performed:    st.performed,
			Failed:       st.failed,
			MaxLockHeld:  st.maxHeld,
			MeanLockHeld: mean(st.totalHeld, st.performed+st.failed),
		}
	}
	m.MeanLockHeld = mean(total, m.Performed+m.Failed)
	return m
}

// ChangeTypes lists observed change types, sorted.
func (gm *GatewayMonitor) ChangeTypes() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	names := make([]string, 0, len(gm.byType))
	for name := range gm.byType {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GatewayMetrics contains change gateway statistics
type GatewayMetrics struct {
	Performed      int                          `json:"performed"`
	Failed         int                          `json:"failed"`
	SlowWrites     int                          `json:"slow_writes"`
	MaxLockHeld    time.Duration                `json:"max_lock_held"`
	MeanLockHeld   time.Duration                `json:"mean_lock_held"`
	PeakGoroutines int                          `json:"peak_goroutines"`
	ByType         map[string]ChangeTypeMetrics `json:"by_type"`
}

// ChangeTypeMetrics are the statistics of one change type.
type ChangeTypeMetrics struct {
	Performed    int           `json:"performed"`
	Failed       int           `json:"failed"`
	MaxLockHeld  time.Duration `json:"max_lock_held"`
	MeanLockHeld time.Duration `json:"mean_lock_held"`
}

func mean(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}
