package sim

import (
	"fmt"
	"strings"

	"lnops-sim/internal/incident"
)

// Phase is the coarse run state.
type Phase string

const (
	PhaseBriefing Phase = "BRIEFING"
	PhaseRunning  Phase = "RUNNING"
	PhaseFailed   Phase = "FAILED"
	PhaseSuccess  Phase = "SUCCESS"
)

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool { return p == PhaseFailed || p == PhaseSuccess }

// Action is a mitigation the player can apply to an incident.
type Action string

const (
	ActionWait           Action = "WAIT"
	ActionRestartService Action = "RESTART_SERVICE"
	ActionBumpFee        Action = "BUMP_FEE"
	ActionLimitGossip    Action = "LIMIT_GOSSIP"
	ActionForceClose     Action = "FORCE_CLOSE"
	ActionJusticeTx      Action = "JUSTICE_TX"
)

// Actions lists every mitigation in the order the console offers them.
var Actions = []Action{
	ActionWait,
	ActionRestartService,
	ActionBumpFee,
	ActionLimitGossip,
	ActionForceClose,
	ActionJusticeTx,
}

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Label is the console caption for an action.
func (a Action) Label() string {
	switch a {
	case ActionWait:
		return "Wait / Monitor"
	case ActionRestartService:
		return "Restart Svc"
	case ActionBumpFee:
		return "Bump Fee (CPFP)"
	case ActionLimitGossip:
		return "Filter Spam"
	case ActionForceClose:
		return "Force Close"
	case ActionJusticeTx:
		return "Broadcast Justice"
	}
	return string(a)
}

const (
	maxUptime  = 100.0
	initialLog = "> System initialized. Monitoring daemon active..."
)

// State is the mutable aggregate of one run. Values returned by the engine
// are deep copies and never alias engine internals.
type State struct {
	Phase           Phase            `json:"phase"`
	Uptime          float64          `json:"uptime"`
	TimeRemaining   int              `json:"time_remaining"`
	Tick            int              `json:"tick"`
	Events          []incident.Event `json:"events"`
	SelectedEventID string           `json:"selected_event_id,omitempty"`
	Log             []string         `json:"log"`
}

// NewState returns a fresh briefing state for a run of duration seconds.
func NewState(duration int) State {
	return State{
		Phase:         PhaseBriefing,
		Uptime:        maxUptime,
		TimeRemaining: duration,
		Events:        []incident.Event{},
		Log:           []string{initialLog},
	}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	c := s
	c.Events = make([]incident.Event, len(s.Events))
	copy(c.Events, s.Events)
	c.Log = make([]string, len(s.Log))
	copy(c.Log, s.Log)
	return c
}

// Find returns the index of the event with id, or -1.
func (s State) Find(id string) int {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return i
		}
	}
	return -1
}

// Unresolved returns the open events in spawn order.
func (s State) Unresolved() []incident.Event {
	var out []incident.Event
	for _, e := range s.Events {
		if !e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// Resolved returns the mitigated events in spawn order.
func (s State) Resolved() []incident.Event {
	var out []incident.Event
	for _, e := range s.Events {
		if e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// UnresolvedCount counts open events.
func (s State) UnresolvedCount() int {
	n := 0
	for _, e := range s.Events {
		if !e.Resolved {
			n++
		}
	}
	return n
}

// Selected returns the selected event if it is still open.
func (s State) Selected() (incident.Event, bool) {
	if s.SelectedEventID == "" {
		return incident.Event{}, false
	}
	i := s.Find(s.SelectedEventID)
	if i < 0 || s.Events[i].Resolved {
		return incident.Event{}, false
	}
	return s.Events[i], true
}

func clampUptime(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxUptime {
		return maxUptime
	}
	return v
}
