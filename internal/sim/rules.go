package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"lnops-sim/internal/config"
	"lnops-sim/internal/incident"
)

// Rules are the constants that drive spawn, decay and action outcomes.
type Rules struct {
	Duration           int
	MaxActive          int
	SpawnThreshold     float64
	JitterThreshold    float64
	Jitter             float64
	SuccessProbability float64
	WaitPenalty        float64
	FailurePenalty     float64
	RecoveryBonus      float64
	LogLimit           int
}

// RulesFrom converts configured rules.
func RulesFrom(c config.Rules) Rules {
	return Rules{
		Duration:           c.DurationSeconds,
		MaxActive:          c.MaxActive,
		SpawnThreshold:     c.SpawnThreshold,
		JitterThreshold:    c.JitterThreshold,
		Jitter:             c.Jitter,
		SuccessProbability: c.SuccessProbability,
		WaitPenalty:        c.WaitPenalty,
		FailurePenalty:     c.FailurePenalty,
		RecoveryBonus:      c.RecoveryBonus,
		LogLimit:           c.LogLimit,
	}
}

// DefaultRules returns the standard exam rules.
func DefaultRules() Rules {
	return RulesFrom(config.DefaultRules())
}

// Env carries the collaborators a transition needs besides the state.
type Env struct {
	Rand      Random
	Templates []incident.Template
	NewID     func() string
	Now       func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Rand == nil {
		e.Rand = NewRandom(0)
	}
	if e.NewID == nil {
		e.NewID = uuid.NewString
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// TickResult describes what one tick did.
type TickResult struct {
	Spawned *incident.Event
	Decay   float64
	// Ended is set when the tick moved the run into a terminal phase.
	Ended bool
}

// ActionResult describes the outcome of one mitigation attempt.
type ActionResult struct {
	// Applied is false when the call was ignored.
	Applied bool
	Success bool
	Delta   float64
	Event   incident.Event
}

// Tick advances a running state by one clock period: countdown, spawn,
// decay, termination check. Non-running states are returned unchanged.
func (r Rules) Tick(st State, env Env) (State, TickResult) {
	if st.Phase != PhaseRunning {
		return st, TickResult{}
	}
	env = env.withDefaults()
	next := st.Clone()
	var res TickResult

	next.Tick++
	next.TimeRemaining--
	res.Spawned = r.spawn(&next, env)
	res.Decay = r.decay(&next, env)

	switch {
	case next.Uptime <= 0:
		next.Phase = PhaseFailed
		res.Ended = true
	case next.TimeRemaining <= 0:
		next.Phase = PhaseSuccess
		res.Ended = true
	}
	return next, res
}

// spawn appends at most one event, never exceeding MaxActive open incidents.
func (r Rules) spawn(st *State, env Env) *incident.Event {
	if st.UnresolvedCount() >= r.MaxActive || len(env.Templates) == 0 {
		return nil
	}
	if env.Rand.Float64() <= r.SpawnThreshold {
		return nil
	}
	tpl := env.Templates[env.Rand.Intn(len(env.Templates))]
	ev := incident.NewEvent(tpl, env.NewID(), env.Now())
	st.Events = append(st.Events, ev)
	r.log(st, env, ev.Symptom)
	return &ev
}

func (r Rules) decay(st *State, env Env) float64 {
	total := 0.0
	for _, e := range st.Events {
		if !e.Resolved {
			total += e.DecayRate
		}
	}
	if env.Rand.Float64() > r.JitterThreshold {
		total += r.Jitter
	}
	st.Uptime = clampUptime(st.Uptime - total)
	return total
}

// Apply resolves a mitigation against the event with id. Unknown or resolved
// targets, and states that are not running, are returned unchanged.
func (r Rules) Apply(st State, action Action, id string, env Env) (State, ActionResult) {
	if st.Phase != PhaseRunning {
		return st, ActionResult{}
	}
	idx := st.Find(id)
	if idx < 0 || st.Events[idx].Resolved {
		return st, ActionResult{}
	}
	env = env.withDefaults()
	next := st.Clone()
	ev := next.Events[idx]
	res := ActionResult{Applied: true, Event: ev}

	if action == ActionWait && ev.Severity != incident.SeverityLow {
		res.Delta = r.adjust(&next, -r.WaitPenalty)
		r.log(&next, env, fmt.Sprintf("FAILURE: Waiting is not an option for %s", ev.Type))
		return next, res
	}

	if env.Rand.Float64() >= 1-r.SuccessProbability {
		next.Events[idx].Resolved = true
		res.Success = true
		res.Event = next.Events[idx]
		res.Delta = r.adjust(&next, r.RecoveryBonus)
		if next.SelectedEventID == id {
			next.SelectedEventID = ""
		}
		r.log(&next, env, "SUCCESS: Threat mitigated.")
		return next, res
	}

	res.Delta = r.adjust(&next, -r.FailurePenalty)
	r.log(&next, env, "FAILURE: Action failed execution. Retry.")
	return next, res
}

// adjust shifts uptime by delta and returns the change actually applied.
func (r Rules) adjust(st *State, delta float64) float64 {
	before := st.Uptime
	st.Uptime = clampUptime(st.Uptime + delta)
	return st.Uptime - before
}

// log prepends a timestamped line and trims to LogLimit.
func (r Rules) log(st *State, env Env, msg string) {
	line := fmt.Sprintf("> %s %s", env.Now().Format("15:04:05"), msg)
	st.Log = append([]string{line}, st.Log...)
	if r.LogLimit > 0 && len(st.Log) > r.LogLimit {
		st.Log = st.Log[:r.LogLimit]
	}
}
