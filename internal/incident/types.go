// Incident structs shared by the catalog, the engine and the trace writers
package incident

import (
	"fmt"
	"strings"
	"time"
)

// Severity grades how urgent an incident is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// EventType tags the kind of simulated problem, e.g. CHANNEL_BREACH.
type EventType string

// Template is an immutable catalog entry events are instantiated from.
type Template struct {
	Type      EventType `json:"type" yaml:"type"`
	Title     string    `json:"title" yaml:"title"`
	Symptom   string    `json:"symptom" yaml:"symptom"`
	RootCause string    `json:"root_cause" yaml:"root_cause"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	DecayRate float64   `json:"decay_rate" yaml:"decay_rate"`
}

// Event is one live incident spawned from a Template.
type Event struct {
	Template
	ID        string    `json:"id"`
	SpawnedAt time.Time `json:"spawned_at"`
	Resolved  bool      `json:"resolved"`
}

// NewEvent copies the template into a fresh unresolved event.
func NewEvent(t Template, id string, at time.Time) Event {
	return Event{Template: t, ID: id, SpawnedAt: at}
}
