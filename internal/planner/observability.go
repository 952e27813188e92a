package planner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Phases reported to a PhaseObserver.
const (
	PhaseFilter   = "filter"
	PhaseBuild    = "build"
	PhaseSolve    = "solve"
	PhaseExtract  = "extract"
	PhaseFallback = "fallback"
)

type PhaseObserver interface {
	ObservePhase(runID, phase string, duration time.Duration)
}

type PhaseLogger struct {
	logger zerolog.Logger
}

func NewPhaseLogger(logger zerolog.Logger) *PhaseLogger {
	return &PhaseLogger{logger: logger}
}

func (l *PhaseLogger) ObservePhase(runID, phase string, duration time.Duration) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("run_id", runID).
		Str("phase", phase).
		Float64("duration_ms", float64(duration.Microseconds())/1000.0).
		Msg("planner_phase_latency")
}

// AsyncPhaseObserver forwards observations to next from a single goroutine.
// Observations are dropped when the buffer is full or after Close.
type AsyncPhaseObserver struct {
	next    PhaseObserver
	events  chan phaseEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type phaseEvent struct {
	runID    string
	phase    string
	duration time.Duration
}

func NewAsyncPhaseObserver(next PhaseObserver, buffer int) *AsyncPhaseObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncPhaseObserver{
		next:   next,
		events: make(chan phaseEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObservePhase(ev.runID, ev.phase, ev.duration)
		}
	}()

	return o
}

func (o *AsyncPhaseObserver) ObservePhase(runID, phase string, duration time.Duration) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- phaseEvent{runID: runID, phase: phase, duration: duration}:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncPhaseObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close drains pending observations. It is safe to call more than once.
func (o *AsyncPhaseObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}

func observe(o PhaseObserver, runID, phase string, start time.Time) {
	if o == nil {
		return
	}
	o.ObservePhase(runID, phase, time.Since(start))
}
