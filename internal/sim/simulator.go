// Engine owning one stress-test run: phases, events, uptime and actions
package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lnops-sim/internal/config"
	"lnops-sim/internal/incident"
	"lnops-sim/internal/scenario"
)

// Snapshot is a read-only copy of the engine published after every mutation.
type Snapshot struct {
	RunID      string               `json:"run_id"`
	Track      string               `json:"track"`
	Version    uint64               `json:"version"`
	State      State                `json:"state"`
	Unresolved []incident.Event     `json:"unresolved"`
	Resolved   []incident.Event     `json:"resolved"`
	Outcome    *incident.OutcomeRow `json:"outcome,omitempty"`
	Exited     bool                 `json:"exited"`
}

// Option customises an Engine.
type Option func(*Engine)

// WithRandom injects the random source.
func WithRandom(r Random) Option { return func(e *Engine) { e.env.Rand = r } }

// WithClock injects the wall clock used for timestamps and log lines.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.env.Now = now } }

// WithIDs injects the event id generator.
func WithIDs(fn func() string) Option { return func(e *Engine) { e.env.NewID = fn } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithTicker replaces time.NewTicker for the clock loop.
func WithTicker(fn func(time.Duration) Ticker) Option { return func(e *Engine) { e.newTicker = fn } }

// WithOutcome registers the completion callback fired once per finished run.
func WithOutcome(fn func(incident.OutcomeRow)) Option { return func(e *Engine) { e.onOutcome = fn } }

// Engine orchestrates one stress-test session. All mutation goes through its
// methods, which are serialised by mu.
type Engine struct {
	track        string
	rules        Rules
	env          Env
	tickInterval time.Duration
	writer       TraceWriter
	log          *slog.Logger
	onOutcome    func(incident.OutcomeRow)
	newTicker    func(time.Duration) Ticker

	mu      sync.Mutex
	state   State
	runID   string
	version uint64
	outcome *incident.OutcomeRow
	exited  bool
	stop    chan struct{}
	started chan struct{}
	done    chan struct{}
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewEngine builds an engine for the configured track. Unknown tracks fall
// back to the catalog default. A nil writer discards the trace.
func NewEngine(cfg *config.Config, cat *scenario.Catalog, writer TraceWriter, opts ...Option) *Engine {
	if writer == nil {
		writer = nopWriter{}
	}
	if cat == nil {
		cat = scenario.Default()
	}
	e := &Engine{
		track:        cat.Resolve(cfg.Track),
		rules:        RulesFrom(cfg.Rules),
		tickInterval: cfg.TickInterval,
		writer:       writer,
		log:          slog.Default(),
		newTicker:    newTimeTicker,
		started:      make(chan struct{}, 1),
		done:         make(chan struct{}),
		subs:         make(map[int]func(Snapshot)),
	}
	e.env.Templates = cat.Templates(cfg.Track)
	if cfg.Seed != 0 {
		e.env.Rand = NewRandom(cfg.Seed)
	}
	for _, opt := range opts {
		opt(e)
	}
	e.env = e.env.withDefaults()
	e.state = NewState(e.rules.Duration)
	e.runID = uuid.NewString()
	return e
}

// Track returns the catalog track this engine spawns from.
func (e *Engine) Track() string { return e.track }

// TickInterval returns the clock period.
func (e *Engine) TickInterval() time.Duration { return e.tickInterval }

// Start moves a briefing run into RUNNING and arms the clock.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.exited || e.state.Phase != PhaseBriefing {
		e.mu.Unlock()
		return false
	}
	e.state = e.state.Clone()
	e.state.Phase = PhaseRunning
	e.stop = make(chan struct{})
	select {
	case e.started <- struct{}{}:
	default:
	}
	e.log.Info("stress test started", "run_id", e.runID, "track", e.track, "duration", e.rules.Duration)
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(subs, snap)
	return true
}

// Step applies one tick. It returns whether the run is still RUNNING afterwards.
func (e *Engine) Step() bool {
	e.mu.Lock()
	if e.exited || e.state.Phase != PhaseRunning {
		e.mu.Unlock()
		return false
	}
	next, res := e.rules.Tick(e.state, e.env)
	e.state = next

	row := incident.TickRow{
		RunID:         e.runID,
		Tick:          next.Tick,
		Phase:         string(next.Phase),
		Uptime:        next.Uptime,
		TimeRemaining: next.TimeRemaining,
		Unresolved:    next.UnresolvedCount(),
		Resolved:      len(next.Events) - next.UnresolvedCount(),
		Decay:         res.Decay,
		Timestamp:     e.env.Now().UTC(),
	}
	if res.Spawned != nil {
		row.SpawnedID = res.Spawned.ID
		e.log.Debug("incident spawned", "run_id", e.runID, "event_id", res.Spawned.ID, "type", res.Spawned.Type)
	}
	if err := e.writer.WriteTick(row); err != nil {
		e.log.Error("tick write failed", "tick", row.Tick, "err", err)
	}

	var outcome *incident.OutcomeRow
	if res.Ended {
		e.stopClockLocked()
		outcome = e.finishLocked(resultFor(next.Phase))
	}
	running := next.Phase == PhaseRunning
	snap, subs := e.publishLocked()
	e.mu.Unlock()

	notify(subs, snap)
	e.fireOutcome(outcome)
	return running
}

// SelectEvent marks an open event as the player's target. An empty id clears
// the selection. Unknown or resolved ids are ignored.
func (e *Engine) SelectEvent(id string) bool {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return false
	}
	if id != "" {
		i := e.state.Find(id)
		if i < 0 || e.state.Events[i].Resolved {
			e.mu.Unlock()
			return false
		}
	}
	e.state.SelectedEventID = id
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(subs, snap)
	return true
}

// ApplyAction attempts a mitigation on the event with id.
func (e *Engine) ApplyAction(action Action, id string) ActionResult {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return ActionResult{}
	}
	next, res := e.rules.Apply(e.state, action, id, e.env)
	if !res.Applied {
		e.mu.Unlock()
		return res
	}
	e.state = next
	row := incident.ActionRow{
		RunID:     e.runID,
		Action:    string(action),
		EventID:   id,
		EventType: res.Event.Type,
		Severity:  res.Event.Severity,
		Success:   res.Success,
		Delta:     res.Delta,
		Uptime:    next.Uptime,
		Timestamp: e.env.Now().UTC(),
	}
	if err := e.writer.WriteAction(row); err != nil {
		e.log.Error("action write failed", "event_id", id, "err", err)
	}
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(subs, snap)
	return res
}

// Retry resets a finished run back to BRIEFING.
func (e *Engine) Retry() bool {
	e.mu.Lock()
	if e.exited || !e.state.Phase.Terminal() {
		e.mu.Unlock()
		return false
	}
	e.state = NewState(e.rules.Duration)
	e.runID = uuid.NewString()
	e.outcome = nil
	e.log.Info("stress test reset", "run_id", e.runID)
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(subs, snap)
	return true
}

// Exit abandons the session and cancels the clock. It is safe to call more than once.
func (e *Engine) Exit() {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return
	}
	e.exited = true
	close(e.done)
	e.stopClockLocked()
	var outcome *incident.OutcomeRow
	if e.state.Phase == PhaseRunning {
		outcome = e.finishLocked(incident.ResultAbandoned)
	}
	e.log.Info("stress test exited", "run_id", e.runID, "phase", e.state.Phase)
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(subs, snap)
	e.fireOutcome(outcome)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Outcome returns the report of the last finished run, if any.
func (e *Engine) Outcome() (incident.OutcomeRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome == nil {
		return incident.OutcomeRow{}, false
	}
	return *e.outcome, true
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned function removes the subscription.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	st := e.state.Clone()
	snap := Snapshot{
		RunID:      e.runID,
		Track:      e.track,
		Version:    e.version,
		State:      st,
		Unresolved: st.Unresolved(),
		Resolved:   st.Resolved(),
		Exited:     e.exited,
	}
	if e.outcome != nil {
		o := *e.outcome
		snap.Outcome = &o
	}
	return snap
}

func (e *Engine) publishLocked() (Snapshot, []func(Snapshot)) {
	e.version++
	subs := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return e.snapshotLocked(), subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

// stopClockLocked cancels the pending clock for the current run, once.
func (e *Engine) stopClockLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (e *Engine) finishLocked(result string) *incident.OutcomeRow {
	st := e.state
	o := incident.OutcomeRow{
		RunID:     e.runID,
		Track:     e.track,
		Result:    result,
		Score:     st.Uptime,
		Resolved:  len(st.Resolved()),
		Ticks:     st.Tick,
		Timestamp: e.env.Now().UTC(),
	}
	if result != incident.ResultSuccess {
		for _, ev := range st.Unresolved() {
			o.Unresolved = append(o.Unresolved, incident.Unresolved{
				ID:        ev.ID,
				Title:     ev.Title,
				RootCause: ev.RootCause,
				Severity:  ev.Severity,
			})
		}
	}
	e.outcome = &o
	if err := e.writer.WriteOutcome(o); err != nil {
		e.log.Error("outcome write failed", "run_id", e.runID, "err", err)
	}
	e.log.Info("stress test finished", "run_id", e.runID, "result", result, "score", o.Score, "resolved", o.Resolved)
	return &o
}

func (e *Engine) fireOutcome(o *incident.OutcomeRow) {
	if o != nil && e.onOutcome != nil {
		e.onOutcome(*o)
	}
}

func resultFor(p Phase) string {
	if p == PhaseSuccess {
		return incident.ResultSuccess
	}
	return incident.ResultFailed
}
