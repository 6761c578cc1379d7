package scenario

import (
	"testing"

	"lnops-sim/internal/incident"
)

func TestBuiltInTracks(t *testing.T) {
	tracks := BuiltIn()
	want := map[string]int{TrackLightningOperator: 5, TrackSovereign: 3, TrackWalletMastery: 3}
	for id, n := range want {
		list, ok := tracks[id]
		if !ok {
			t.Fatalf("track %s not found", id)
		}
		if len(list) != n {
			t.Fatalf("track %s expected %d templates, got %d", id, n, len(list))
		}
		for _, tpl := range list {
			if tpl.DecayRate <= 0 {
				t.Fatalf("track %s template %s has non-positive decay", id, tpl.Type)
			}
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("built-in catalog invalid: %v", err)
	}
}

func TestTemplatesFallsBackToDefault(t *testing.T) {
	c := Default()
	got := c.Templates("no-such-track")
	want := c.Templates(DefaultTrack)
	if len(got) != len(want) || got[0].Type != want[0].Type {
		t.Fatalf("expected default track templates, got %+v", got)
	}
	if c.Resolve("no-such-track") != DefaultTrack {
		t.Fatalf("expected resolve to default track")
	}
}

func TestTemplatesReturnsCopy(t *testing.T) {
	c := Default()
	list := c.Templates(TrackSovereign)
	list[0].Title = "mutated"
	if c.Templates(TrackSovereign)[0].Title == "mutated" {
		t.Fatalf("catalog leaked internal slice")
	}
}

func TestEmptyTrackDoesNotFallBack(t *testing.T) {
	c := New(map[string][]incident.Template{"quiet": {}}, "quiet")
	if got := c.Templates("quiet"); len(got) != 0 {
		t.Fatalf("expected empty track, got %d templates", len(got))
	}
}

func TestLoadWithBuiltInMergesFile(t *testing.T) {
	c, err := LoadWithBuiltIn("testdata/custom.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Has("drill") || !c.Has(TrackWalletMastery) {
		t.Fatalf("expected merged tracks, got %v", c.Tracks())
	}
	if c.Resolve("unknown") != "drill" {
		t.Fatalf("expected file default to win, got %s", c.Resolve("unknown"))
	}
	sov := c.Templates(TrackSovereign)
	if len(sov) != 1 || sov[0].Severity != incident.SeverityCritical {
		t.Fatalf("expected sovereign overridden by file, got %+v", sov)
	}
	if c.Templates("drill")[0].Severity != incident.SeverityHigh {
		t.Fatalf("expected lower-case severity to be normalised")
	}
}

func TestLoadWithBuiltInRejectsBadDecay(t *testing.T) {
	if _, err := LoadWithBuiltIn("testdata/bad_decay.yaml"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
}
