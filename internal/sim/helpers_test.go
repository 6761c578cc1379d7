package sim

import (
	"fmt"
	"time"

	"lnops-sim/internal/config"
	"lnops-sim/internal/incident"
	"lnops-sim/internal/logging"
	"lnops-sim/internal/scenario"
)

// scriptRand replays fixed draws, then repeats the fallback values.
type scriptRand struct {
	floats   []float64
	ints     []int
	fallback float64
	fi, ii   int
}

func (s *scriptRand) Float64() float64 {
	if s.fi < len(s.floats) {
		v := s.floats[s.fi]
		s.fi++
		return v
	}
	return s.fallback
}

func (s *scriptRand) Intn(n int) int {
	if s.ii < len(s.ints) {
		v := s.ints[s.ii]
		s.ii++
		return v % n
	}
	return 0
}

var fixedNow = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

func testClock() time.Time { return fixedNow }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ev-%d", n)
	}
}

var (
	critical = incident.Template{Type: "CHANNEL_BREACH", Title: "HTLC Breach Attempt", Symptom: "WARN: old commitment", RootCause: "Malicious Peer", Severity: incident.SeverityCritical, DecayRate: 1.5}
	high     = incident.Template{Type: "FEE_SPIKE", Title: "Mempool Congestion", Symptom: "ERROR: fee below relay", RootCause: "Fee Market Volatility", Severity: incident.SeverityHigh, DecayRate: 0.5}
	low      = incident.Template{Type: "GOSSIP_FLOOD", Title: "Gossip Spam", Symptom: "INFO: gossip flood", RootCause: "Noisy peer", Severity: incident.SeverityLow, DecayRate: 0.2}
)

func testEnv(r Random, tpls ...incident.Template) Env {
	return Env{Rand: r, Templates: tpls, NewID: seqIDs(), Now: testClock}
}

func running() State {
	st := NewState(60)
	st.Phase = PhaseRunning
	return st
}

// newTestEngine builds an engine over a single-track catalog.
func newTestEngine(r Random, w TraceWriter, tpls []incident.Template, opts ...Option) *Engine {
	return newTestEngineWith(config.Default(), r, w, tpls, opts...)
}

func newTestEngineWith(cfg *config.Config, r Random, w TraceWriter, tpls []incident.Template, opts ...Option) *Engine {
	cfg.Track = "drill"
	cat := scenario.New(map[string][]incident.Template{"drill": tpls}, "drill")
	base := []Option{WithRandom(r), WithClock(testClock), WithIDs(seqIDs()), WithLogger(logging.Discard())}
	return NewEngine(cfg, cat, w, append(base, opts...)...)
}
