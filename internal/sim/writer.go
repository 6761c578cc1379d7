package sim

import "lnops-sim/internal/incident"

// TickWriter receives one row per clock tick.
type TickWriter interface {
	WriteTick(incident.TickRow) error
}

// ActionWriter receives one row per applied mitigation.
type ActionWriter interface {
	WriteAction(incident.ActionRow) error
}

// OutcomeWriter receives the end-of-run report.
type OutcomeWriter interface {
	WriteOutcome(incident.OutcomeRow) error
}

// TraceWriter is an interface to support different run trace sinks.
type TraceWriter interface {
	TickWriter
	ActionWriter
	OutcomeWriter
}

// Optional: writers can accept a replayed batch of ticks at once.
type batchTickWriter interface {
	WriteTicks([]incident.TickRow) error
}

// nopWriter drops everything.
type nopWriter struct{}

func (nopWriter) WriteTick(incident.TickRow) error       { return nil }
func (nopWriter) WriteAction(incident.ActionRow) error   { return nil }
func (nopWriter) WriteOutcome(incident.OutcomeRow) error { return nil }
