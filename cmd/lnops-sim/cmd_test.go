package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lnops-sim/internal/incident"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTracksCommand(t *testing.T) {
	out, _, err := run(t, "tracks")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	for _, want := range []string{"lightning-operator", "sovereign", "wallet-mastery"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing track %s in %q", want, out)
		}
	}
}

func TestSimulateWritesTrace(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "run.jsonl")
	_, errOut, err := run(t, "simulate", "--quiet", "--seed", "11", "--trace-file", trace, "--track", "sovereign", "--runs", "2")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(errOut, "runs=2") {
		t.Fatalf("missing summary: %q", errOut)
	}

	f, err := os.Open(trace + ".outcome")
	if err != nil {
		t.Fatalf("open outcome: %v", err)
	}
	defer f.Close()
	var outcomes []incident.OutcomeRow
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var o incident.OutcomeRow
		if err := json.Unmarshal(sc.Bytes(), &o); err != nil {
			t.Fatalf("decode outcome: %v", err)
		}
		outcomes = append(outcomes, o)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Track != "sovereign" || (o.Result != incident.ResultSuccess && o.Result != incident.ResultFailed) {
			t.Fatalf("unexpected outcome %+v", o)
		}
	}
	if outcomes[0].RunID == outcomes[1].RunID {
		t.Fatal("each run should get its own id")
	}

	_, errOut, err = run(t, "replay", "--input", trace, "--speed", "0", "--json")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(errOut, "replayed") {
		t.Fatalf("missing replay count: %q", errOut)
	}
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	if _, _, err := run(t, "simulate", "--quiet", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for an explicit missing config")
	}
}

func TestPlayRejectsInvalidOverrides(t *testing.T) {
	_, _, err := run(t, "play", "--tick", "0s")
	if err == nil || !strings.Contains(err.Error(), "tick_interval") {
		t.Fatalf("expected tick_interval error before the console opens, got %v", err)
	}
}
