package incident

import "time"

// TickRow captures the engine state after one clock tick.
type TickRow struct {
	RunID         string    `json:"run_id"`
	Tick          int       `json:"tick"`
	Phase         string    `json:"phase"`
	Uptime        float64   `json:"uptime"`
	TimeRemaining int       `json:"time_remaining"`
	Unresolved    int       `json:"unresolved"`
	Resolved      int       `json:"resolved"`
	Decay         float64   `json:"decay"`
	SpawnedID     string    `json:"spawned_id,omitempty"`
	Timestamp     time.Time `json:"ts"`
}

// ActionRow records one mitigation attempt.
type ActionRow struct {
	RunID     string    `json:"run_id"`
	Action    string    `json:"action"`
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Severity  Severity  `json:"severity"`
	Success   bool      `json:"success"`
	Delta     float64   `json:"uptime_delta"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"ts"`
}

// Unresolved summarises an event still open when a run ended.
type Unresolved struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	RootCause string   `json:"root_cause"`
	Severity  Severity `json:"severity"`
}

// Outcome values for OutcomeRow.Result.
const (
	ResultSuccess   = "SUCCESS"
	ResultFailed    = "FAILED"
	ResultAbandoned = "ABANDONED"
)

// OutcomeRow is the end-of-run report.
type OutcomeRow struct {
	RunID      string       `json:"run_id"`
	Track      string       `json:"track"`
	Result     string       `json:"result"`
	Score      float64      `json:"score"`
	Resolved   int          `json:"resolved"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
	Ticks      int          `json:"ticks"`
	Timestamp  time.Time    `json:"ts"`
}

// Success reports whether the run survived the countdown.
func (o OutcomeRow) Success() bool { return o.Result == ResultSuccess }
