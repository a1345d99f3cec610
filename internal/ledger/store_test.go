package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"req-oracle/internal/simulation"
)

func sampleRecords(now time.Time) []Record {
	start := now.Truncate(24 * time.Hour)
	res := simulation.Result{
		P10Date:    start.AddDate(0, 0, 20),
		P50Date:    start.AddDate(0, 0, 30),
		P90Date:    start.AddDate(0, 0, 45),
		Confidence: simulation.ConfidenceMedium,
		Debug:      simulation.Debug{Iterations: 1000, Seed: "oracle:req-1:abc:1000"},
	}
	return []Record{
		NewRecord("run-1", "req-1", Baseline, start, res, now.Add(-2*time.Hour)),
		NewRecord("run-1", "req-1", WhatIf, start, res, now.Add(-2*time.Hour)),
		NewRecord("run-2", "req-1", Baseline, start, res, now.Add(-1*time.Hour)),
	}
}

func TestStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()

	store1 := NewStore()
	store1.Append(sampleRecords(now)...)
	if err := store1.Save(tmpDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(tmpDir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Ledger file does not exist: %s", path)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file left behind")
	}

	store2 := NewStore()
	if err := store2.Load(tmpDir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := store2.Count("req-1"); got != 3 {
		t.Fatalf("Expected 3 records, got %d", got)
	}

	latest, ok := store2.Latest("req-1", Baseline)
	if !ok || latest.RunID != "run-2" {
		t.Errorf("Expected latest baseline run-2, got %+v", latest)
	}
	if latest.Seed != "oracle:req-1:abc:1000" {
		t.Errorf("Seed not preserved: %s", latest.Seed)
	}

	// Deduplication after reload and re-append
	store2.Append(sampleRecords(now)...)
	if got := store2.Count("req-1"); got != 3 {
		t.Errorf("Expected 3 records after re-append, got %d", got)
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore()
	if err := s.Load(t.TempDir()); err != nil {
		t.Errorf("Expected no error for a missing ledger, got %v", err)
	}
}

func TestStore_LoadSkipsInvalidLines(t *testing.T) {
	tmpDir := t.TempDir()
	content := "{\"run_id\":\"a\",\"req_id\":\"r\",\"kind\":\"baseline\"}\nnot json\n"
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	if err := s.Load(tmpDir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := s.Count("r"); got != 1 {
		t.Errorf("Expected 1 valid record, got %d", got)
	}
}

func TestStore_IssuedBetween(t *testing.T) {
	now := time.Now()
	s := NewStore()
	s.Append(sampleRecords(now)...)

	got := s.IssuedBetween("req-1", now.Add(-90*time.Minute), time.Time{})
	if len(got) != 1 || got[0].RunID != "run-2" {
		t.Errorf("Expected only run-2 in window, got %+v", got)
	}
	if _, ok := s.Latest("req-unknown", Baseline); ok {
		t.Error("Expected no record for unknown requisition")
	}
}

func TestStore_SaveEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	if err := NewStore().Save(tmpDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, FileName)); !os.IsNotExist(err) {
		t.Error("Expected no file for an empty ledger")
	}
}
