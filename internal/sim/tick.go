package sim

import (
	"context"
	"time"

	"lnops-sim/internal/logging"
)

// Ticker is the subset of *time.Ticker the clock loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Run drives the simulation clock until ctx is done or the session exits.
// A ticker runs only while a run is RUNNING; each run that Start arms gets
// its own ticker, which is stopped as soon as the run leaves RUNNING.
func (e *Engine) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting stress test clock", "tick_interval", e.tickInterval)
	defer func() {
		e.mu.Lock()
		e.stopClockLocked()
		e.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping stress test clock")
			return
		case <-e.done:
			log.Info("stopping stress test clock")
			return
		case <-e.started:
			e.runClock(ctx)
		}
	}
}

// runClock ticks the current run until it terminates.
func (e *Engine) runClock(ctx context.Context) {
	e.mu.Lock()
	stop := e.stop
	e.mu.Unlock()
	if stop == nil {
		return
	}

	t := e.newTicker(e.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.C():
			if !e.Step() {
				return
			}
		}
	}
}

// Done is closed once Exit has been called.
func (e *Engine) Done() <-chan struct{} { return e.done }
