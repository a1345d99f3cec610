package mcp

import (
	"fmt"
	"time"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// ResponseEnvelope wraps every tool result with context, warnings and follow-up guidance.
type ResponseEnvelope struct {
	Context  map[string]interface{} `json:"context,omitempty"`
	Data     interface{}            `json:"data"`
	Warnings []string               `json:"warnings,omitempty"`
	Guidance []string               `json:"guidance,omitempty"`
	Charts   map[string]string      `json:"charts,omitempty"`
}

// WrapResponse builds the envelope returned by every handler.
func WrapResponse(data interface{}, reqID string, warnings, guidance []string) ResponseEnvelope {
	env := ResponseEnvelope{
		Data:     data,
		Warnings: warnings,
		Guidance: guidance,
	}
	if reqID != "" {
		env.Context = map[string]interface{}{"req_id": reqID}
	}
	return env
}

func parseStartDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
	}
	return t, nil
}

// parseLevers normalizes raw stage keys so the engine only sees canonical stages.
func parseLevers(rates, durations map[string]float64) (simulation.Levers, error) {
	l := simulation.Levers{
		RateDeltas:          make(map[pipeline.Stage]float64, len(rates)),
		DurationMultipliers: make(map[pipeline.Stage]float64, len(durations)),
	}
	for raw, v := range rates {
		s, ok := pipeline.Parse(raw)
		if !ok || !s.IsActive() {
			return simulation.Levers{}, fmt.Errorf("rate_deltas: %q is not a simulated stage", raw)
		}
		if v < -1 || v > 1 {
			return simulation.Levers{}, fmt.Errorf("rate_deltas: %s delta must be within [-1,1], got %v", s, v)
		}
		l.RateDeltas[s] = v
	}
	for raw, v := range durations {
		s, ok := pipeline.Parse(raw)
		if !ok || !s.IsActive() {
			return simulation.Levers{}, fmt.Errorf("duration_multipliers: %q is not a simulated stage", raw)
		}
		if v <= 0 {
			return simulation.Levers{}, fmt.Errorf("duration_multipliers: %s multiplier must be > 0, got %v", s, v)
		}
		l.DurationMultipliers[s] = v
	}
	return l, nil
}
