package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"req-oracle/internal/oracle"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

func TestForecastRequest(t *testing.T) {
	req, err := forecastRequest("2026-05-04", 500, true,
		map[string]string{"phone screen": "0.1"},
		map[string]string{"ONSITE": "0.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.StartDate.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %s", req.StartDate)
	}
	if req.Iterations != 500 || !req.IgnoreCapacity {
		t.Errorf("flags not carried: %+v", req)
	}
	if req.Levers.RateDeltas[pipeline.Screen] != 0.1 {
		t.Errorf("expected SCREEN delta 0.1, got %v", req.Levers.RateDeltas)
	}
	if req.Levers.DurationMultipliers[pipeline.Onsite] != 0.5 {
		t.Errorf("expected ONSITE multiplier 0.5, got %v", req.Levers.DurationMultipliers)
	}
}

func TestForecastRequest_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		rates     map[string]string
		durations map[string]string
	}{
		{"bad date", "04/05/2026", nil, nil},
		{"unknown stage", "", map[string]string{"coffee": "0.1"}, nil},
		{"terminal stage", "", map[string]string{"hired": "0.1"}, nil},
		{"not a number", "", map[string]string{"SCREEN": "lots"}, nil},
		{"zero multiplier", "", nil, map[string]string{"OFFER": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := forecastRequest(tt.start, 0, false, tt.rates, tt.durations); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteForecastTable(t *testing.T) {
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	whatIf := simulation.Result{P50Date: day.AddDate(0, 0, 20)}
	results := []*oracle.Forecast{{
		ReqID:            "REQ-42",
		ActiveCandidates: 3,
		Baseline: simulation.Result{
			P10Date:    day.AddDate(0, 0, 14),
			P50Date:    day.AddDate(0, 0, 28),
			P90Date:    day.AddDate(0, 0, 60),
			Confidence: simulation.ConfidenceMedium,
		},
		WhatIf: &whatIf,
		Delta:  &oracle.Delta{P50Days: -8},
	}}

	var buf bytes.Buffer
	if err := writeForecastTable(&buf, results); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"REQ-42", "2026-06-01", "MEDIUM", "2026-05-24 (-8d)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
