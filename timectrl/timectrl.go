package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the TimeController paces simulation time.
type Mode int

const (
	// RealTime advances one Tick per Tick of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the listeners allow.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// Listener is invoked once per tick with the 1-based tick index and the
// simulation time at the end of that tick. Returning an error stops the run.
type Listener func(tick int, simTime time.Time) error

// TimeController drives simulation time and notifies registered listeners
// in registration order.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	ticks       int

	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Ticks returns the number of ticks completed so far.
func (tc *TimeController) Ticks() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ticks
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Run advances up to ticks ticks on the calling goroutine (ticks <= 0 runs
// until ctx is done). It returns nil when the tick budget is exhausted,
// ctx.Err() on cancellation, or the first listener error. Listeners never
// run concurrently with each other.
func (tc *TimeController) Run(ctx context.Context, ticks int) error {
	var pace <-chan time.Time
	if tc.Mode == RealTime && tc.Tick > 0 {
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()
		pace = ticker.C
	}

	tc.mu.RLock()
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.RUnlock()

	for n := 0; ticks <= 0 || n < ticks; n++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		tc.mu.Lock()
		tc.currentTime = tc.currentTime.Add(tc.Tick)
		tc.ticks++
		tick, simTime := tc.ticks, tc.currentTime
		tc.mu.Unlock()

		for _, fn := range listeners {
			if err := fn(tick, simTime); err != nil {
				return err
			}
		}
	}
	return nil
}

// Start runs the controller for the specified number of ticks in a separate
// goroutine. The returned channel receives Run's result and is then closed.
func (tc *TimeController) Start(ctx context.Context, ticks int) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- tc.Run(ctx, ticks)
	}()
	return done
}
