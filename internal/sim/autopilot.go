package sim

import (
	"context"
	"errors"
	"log/slog"

	"lnops-sim/internal/incident"
)

// ErrExited is returned when the session is abandoned before the run finished.
var ErrExited = errors.New("session exited")

// Autopilot plays a run without a human: one mitigation per tick against
// the oldest open incident.
type Autopilot struct {
	ctrl Controller
	rand Random
	log  *slog.Logger
}

// NewAutopilot returns an autopilot driving ctrl. A nil r uses a time seeded source.
func NewAutopilot(ctrl Controller, r Random, log *slog.Logger) *Autopilot {
	if r == nil {
		r = NewRandom(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Autopilot{ctrl: ctrl, rand: r, log: log}
}

// Decide picks the next move for s. ok is false when there is nothing to do.
func (a *Autopilot) Decide(s Snapshot) (action Action, id string, ok bool) {
	if s.State.Phase != PhaseRunning || len(s.Unresolved) == 0 {
		return "", "", false
	}
	ev := s.Unresolved[0]
	if ev.Severity == incident.SeverityLow {
		return ActionWait, ev.ID, true
	}
	mitigations := Actions[1:]
	return mitigations[a.rand.Intn(len(mitigations))], ev.ID, true
}

func (a *Autopilot) act(s Snapshot) {
	action, id, ok := a.Decide(s)
	if !ok {
		return
	}
	a.ctrl.SelectEvent(id)
	res := a.ctrl.ApplyAction(action, id)
	a.log.Debug("autopilot action", "tick", s.State.Tick, "action", action, "event_id", id, "success", res.Success)
}

// Drive plays one run synchronously, stepping the engine itself instead of
// waiting for the clock.
func (a *Autopilot) Drive(ctx context.Context, step func() bool) (incident.OutcomeRow, error) {
	a.ctrl.Start()
	for {
		if err := ctx.Err(); err != nil {
			return incident.OutcomeRow{}, err
		}
		running := step()
		s := a.ctrl.Snapshot()
		if !running {
			return outcomeOf(s)
		}
		a.act(s)
	}
}

// Play starts the run and acts once per observed tick until the run ends.
// The engine clock must be running (see Engine.Run).
func (a *Autopilot) Play(ctx context.Context) (incident.OutcomeRow, error) {
	signal := make(chan struct{}, 1)
	unsubscribe := a.ctrl.Subscribe(func(Snapshot) {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	a.ctrl.Start()
	lastTick := -1
	for {
		s := a.ctrl.Snapshot()
		if s.State.Phase.Terminal() || s.Exited {
			return outcomeOf(s)
		}
		if s.State.Tick > lastTick {
			lastTick = s.State.Tick
			if s.State.Tick > 0 {
				a.act(s)
			}
		}
		select {
		case <-ctx.Done():
			return incident.OutcomeRow{}, ctx.Err()
		case <-signal:
		}
	}
}

func outcomeOf(s Snapshot) (incident.OutcomeRow, error) {
	if s.Outcome == nil {
		return incident.OutcomeRow{}, ErrExited
	}
	if s.Outcome.Result == incident.ResultAbandoned {
		return *s.Outcome, ErrExited
	}
	return *s.Outcome, nil
}
