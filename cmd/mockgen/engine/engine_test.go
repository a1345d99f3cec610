package engine

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"req-oracle/internal/snapshot"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "mild", Requisitions: 8, Recruiters: 2, Seed: 42, Now: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
	a, b := Generate(cfg), Generate(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical configs must generate identical snapshots")
	}
	if len(a.Requisitions) != 8 {
		t.Errorf("expected 8 requisitions, got %d", len(a.Requisitions))
	}
	if _, err := a.Snapshot(); err != nil {
		t.Errorf("generated snapshot does not validate: %v", err)
	}
}

func TestGenerate_Crunch(t *testing.T) {
	f := Generate(GeneratorConfig{Scenario: "crunch", Requisitions: 10, Recruiters: 3, Seed: 7})
	perRecruiter := map[string]int{}
	for _, r := range f.Requisitions {
		perRecruiter[r.RecruiterID]++
	}
	if perRecruiter["rec-1"] <= perRecruiter["rec-2"] {
		t.Errorf("expected rec-1 to be overloaded, got %v", perRecruiter)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	f := Generate(GeneratorConfig{Scenario: "thin", Requisitions: 3, Seed: 3})
	for _, name := range []string{"w.yaml", "w.toml", "w.json"} {
		path := filepath.Join(t.TempDir(), "nested", name)
		if err := Save(path, f); err != nil {
			t.Fatalf("%s: save failed: %v", name, err)
		}
		snap, err := snapshot.Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", name, err)
		}
		if len(snap.AllRequisitions()) != 3 {
			t.Errorf("%s: expected 3 requisitions, got %d", name, len(snap.AllRequisitions()))
		}
		if len(snap.CapacityProfiles()) != 1 {
			t.Errorf("%s: thin scenario should carry one capacity profile", name)
		}
	}
}
