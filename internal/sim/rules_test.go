package sim

import (
	"math"
	"strings"
	"testing"

	"lnops-sim/internal/incident"
)

func TestTickIgnoresNonRunning(t *testing.T) {
	r := DefaultRules()
	for _, p := range []Phase{PhaseBriefing, PhaseFailed, PhaseSuccess} {
		st := NewState(60)
		st.Phase = p
		next, res := r.Tick(st, testEnv(&scriptRand{fallback: 0.99}, high))
		if next.Tick != 0 || next.TimeRemaining != 60 || len(next.Events) != 0 || res.Ended {
			t.Fatalf("phase %s: tick should be a no-op, got %+v", p, next)
		}
	}
}

func TestTickSpawnsAndDecays(t *testing.T) {
	r := DefaultRules()
	env := testEnv(&scriptRand{floats: []float64{0.9, 0.9}}, high)
	next, res := r.Tick(running(), env)
	if res.Spawned == nil || res.Spawned.ID != "ev-1" {
		t.Fatalf("expected spawn, got %+v", res)
	}
	if next.Tick != 1 || next.TimeRemaining != 59 {
		t.Fatalf("countdown not applied: %+v", next)
	}
	if want := 99.4; math.Abs(next.Uptime-want) > 1e-9 {
		t.Fatalf("uptime = %v, want %v", next.Uptime, want)
	}
	if !strings.HasSuffix(next.Log[0], high.Symptom) || !strings.HasPrefix(next.Log[0], "> 12:30:45 ") {
		t.Fatalf("spawn log line = %q", next.Log[0])
	}
	if !next.Events[0].SpawnedAt.Equal(fixedNow) {
		t.Fatalf("spawn time not stamped")
	}
}

func TestTickNoSpawnAtThreshold(t *testing.T) {
	r := DefaultRules()
	next, res := r.Tick(running(), testEnv(&scriptRand{floats: []float64{0.7, 0.5}}, high))
	if res.Spawned != nil || len(next.Events) != 0 {
		t.Fatal("draw equal to the threshold must not spawn")
	}
	if next.Uptime != 100 || res.Decay != 0 {
		t.Fatalf("no jitter expected at 0.5, got uptime %v decay %v", next.Uptime, res.Decay)
	}
}

func TestTickRespectsCap(t *testing.T) {
	r := DefaultRules()
	env := testEnv(&scriptRand{fallback: 0.99}, low)
	st := running()
	for i := 0; i < 10; i++ {
		st, _ = r.Tick(st, env)
		if n := st.UnresolvedCount(); n > r.MaxActive {
			t.Fatalf("tick %d: %d open incidents exceeds cap", i, n)
		}
	}
	if st.UnresolvedCount() != r.MaxActive {
		t.Fatalf("expected cap to be reached, got %d", st.UnresolvedCount())
	}
}

func TestTickEmptyCatalogOnlyJitters(t *testing.T) {
	r := DefaultRules()
	st := running()
	for st.Phase == PhaseRunning {
		st, _ = r.Tick(st, testEnv(&scriptRand{fallback: 0.99}))
	}
	if st.Phase != PhaseSuccess || st.Tick != 60 {
		t.Fatalf("expected success after 60 ticks, got %s at %d", st.Phase, st.Tick)
	}
	if st.Uptime < 94-1e-9 {
		t.Fatalf("jitter alone drained too much: %v", st.Uptime)
	}
}

func TestTickFailsAtZeroUptime(t *testing.T) {
	r := DefaultRules()
	st := running()
	st.Uptime = 0.3
	st.Events = []incident.Event{incident.NewEvent(high, "x", fixedNow)}
	next, res := r.Tick(st, testEnv(&scriptRand{fallback: 0.1}))
	if next.Phase != PhaseFailed || !res.Ended || next.Uptime != 0 {
		t.Fatalf("expected FAILED at 0, got %s %v", next.Phase, next.Uptime)
	}
}

func TestTickFailureBeatsSuccessOnLastTick(t *testing.T) {
	r := DefaultRules()
	st := running()
	st.TimeRemaining = 1
	st.Uptime = 0.2
	st.Events = []incident.Event{incident.NewEvent(high, "x", fixedNow)}
	next, _ := r.Tick(st, testEnv(&scriptRand{fallback: 0.1}))
	if next.Phase != PhaseFailed {
		t.Fatalf("expected FAILED, got %s", next.Phase)
	}
}

func TestTickSucceedsWhenTimeRunsOut(t *testing.T) {
	r := DefaultRules()
	st := running()
	st.TimeRemaining = 1
	next, res := r.Tick(st, testEnv(&scriptRand{fallback: 0.1}))
	if next.Phase != PhaseSuccess || !res.Ended || next.TimeRemaining != 0 {
		t.Fatalf("expected SUCCESS, got %+v", next)
	}
}

func TestTickDoesNotMutateInput(t *testing.T) {
	r := DefaultRules()
	st := running()
	_, _ = r.Tick(st, testEnv(&scriptRand{fallback: 0.99}, high))
	if len(st.Events) != 0 || st.Tick != 0 || len(st.Log) != 1 {
		t.Fatalf("input state mutated: %+v", st)
	}
}

func withEvent(tpl incident.Template) State {
	st := running()
	st.Uptime = 90
	st.Events = []incident.Event{incident.NewEvent(tpl, "e1", fixedNow)}
	st.SelectedEventID = "e1"
	return st
}

func TestApplyWaitOnSevereEvent(t *testing.T) {
	r := DefaultRules()
	rnd := &scriptRand{fallback: 0.99}
	next, res := r.Apply(withEvent(high), ActionWait, "e1", testEnv(rnd))
	if !res.Applied || res.Success || res.Delta != -10 || next.Uptime != 80 {
		t.Fatalf("expected -10 penalty, got %+v uptime %v", res, next.Uptime)
	}
	if next.Events[0].Resolved {
		t.Fatal("waiting must not resolve a severe event")
	}
	if next.SelectedEventID != "e1" {
		t.Fatal("selection should be kept after a penalty")
	}
	if !strings.HasSuffix(next.Log[0], "FAILURE: Waiting is not an option for FEE_SPIKE") {
		t.Fatalf("log = %q", next.Log[0])
	}
	if rnd.fi != 0 {
		t.Fatal("wait penalty must not draw")
	}
}

func TestApplyWaitOnLowEventRolls(t *testing.T) {
	r := DefaultRules()
	next, res := r.Apply(withEvent(low), ActionWait, "e1", testEnv(&scriptRand{floats: []float64{0.5}}))
	if !res.Success || !next.Events[0].Resolved {
		t.Fatalf("wait on LOW should roll normally: %+v", res)
	}
}

func TestApplySuccess(t *testing.T) {
	r := DefaultRules()
	next, res := r.Apply(withEvent(critical), ActionJusticeTx, "e1", testEnv(&scriptRand{floats: []float64{0.2}}))
	if !res.Success || res.Delta != 5 || next.Uptime != 95 {
		t.Fatalf("expected +5, got %+v uptime %v", res, next.Uptime)
	}
	if !next.Events[0].Resolved || next.SelectedEventID != "" {
		t.Fatalf("event should be resolved and deselected: %+v", next)
	}
	if !strings.HasSuffix(next.Log[0], "SUCCESS: Threat mitigated.") {
		t.Fatalf("log = %q", next.Log[0])
	}
}

func TestApplySuccessClampsAtMax(t *testing.T) {
	r := DefaultRules()
	st := withEvent(high)
	st.Uptime = 98
	next, res := r.Apply(st, ActionBumpFee, "e1", testEnv(&scriptRand{floats: []float64{0.9}}))
	if next.Uptime != 100 || res.Delta != 2 {
		t.Fatalf("expected clamp to 100 with delta 2, got %v %v", next.Uptime, res.Delta)
	}
}

func TestApplyFailure(t *testing.T) {
	r := DefaultRules()
	next, res := r.Apply(withEvent(high), ActionRestartService, "e1", testEnv(&scriptRand{floats: []float64{0.19}}))
	if !res.Applied || res.Success || res.Delta != -5 || next.Uptime != 85 {
		t.Fatalf("expected -5, got %+v uptime %v", res, next.Uptime)
	}
	if next.Events[0].Resolved || next.SelectedEventID != "e1" {
		t.Fatal("failed action must leave the event open and selected")
	}
	if !strings.HasSuffix(next.Log[0], "FAILURE: Action failed execution. Retry.") {
		t.Fatalf("log = %q", next.Log[0])
	}
}

func TestApplyIgnoresBadTargets(t *testing.T) {
	r := DefaultRules()
	env := testEnv(&scriptRand{fallback: 0.9})

	if _, res := r.Apply(withEvent(high), ActionBumpFee, "missing", env); res.Applied {
		t.Fatal("unknown id should be ignored")
	}
	st := withEvent(high)
	st.Events[0].Resolved = true
	if _, res := r.Apply(st, ActionBumpFee, "e1", env); res.Applied {
		t.Fatal("resolved event should be ignored")
	}
	st = withEvent(high)
	st.Phase = PhaseSuccess
	if _, res := r.Apply(st, ActionBumpFee, "e1", env); res.Applied {
		t.Fatal("terminal phase should ignore actions")
	}
}

func TestLogIsBounded(t *testing.T) {
	r := DefaultRules()
	st := withEvent(high)
	env := testEnv(&scriptRand{fallback: 0.99})
	for i := 0; i < 30; i++ {
		st.Uptime = 90
		st, _ = r.Apply(st, ActionWait, "e1", env)
	}
	if len(st.Log) != r.LogLimit {
		t.Fatalf("log length %d, want %d", len(st.Log), r.LogLimit)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" bump_fee ")
	if err != nil || a != ActionBumpFee {
		t.Fatalf("ParseAction = %v, %v", a, err)
	}
	if _, err := ParseAction("reboot"); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if ActionLimitGossip.Label() != "Filter Spam" {
		t.Fatalf("label = %q", ActionLimitGossip.Label())
	}
}
