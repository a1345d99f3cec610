package mcp

import (
	"context"
	"fmt"

	"req-oracle/internal/oracle"
	"req-oracle/internal/simulation"
	"req-oracle/internal/visuals"
)

func (s *Server) handleForecast(ctx context.Context, in ForecastArgs) (interface{}, error) {
	start, err := parseStartDate(in.StartDate)
	if err != nil {
		return nil, err
	}
	f, err := s.oracle.Forecast(ctx, oracle.Request{
		ReqID:          in.ReqID,
		StartDate:      start,
		Iterations:     in.Iterations,
		IgnoreCapacity: in.IgnoreCapacity,
	})
	if err != nil {
		return nil, err
	}

	warnings := forecastWarnings(f)
	guidance := forecastGuidance(f)
	env := WrapResponse(f, f.ReqID, warnings, guidance)
	if s.cfg.EnableMermaidCharts {
		env.Charts = map[string]string{
			"histogram": visuals.GenerateHireHistogram(f.Baseline),
			"cdf":       visuals.GenerateForecastCDF(f.Baseline),
			"outcomes":  visuals.GenerateOutcomePie(f.Baseline),
		}
		if f.Capacity != nil {
			if chart := visuals.GenerateBottleneckChart(f.Capacity.Stages); chart != "" {
				env.Charts["bottlenecks"] = chart
			}
		}
	}
	return env, nil
}

func (s *Server) handleWhatIf(ctx context.Context, in WhatIfArgs) (interface{}, error) {
	start, err := parseStartDate(in.StartDate)
	if err != nil {
		return nil, err
	}
	levers, err := parseLevers(in.RateDeltas, in.DurationMultipliers)
	if err != nil {
		return nil, err
	}
	if levers.IsZero() {
		return nil, fmt.Errorf("forecast_what_if needs at least one rate_deltas or duration_multipliers entry")
	}

	f, err := s.oracle.Forecast(ctx, oracle.Request{
		ReqID:          in.ReqID,
		StartDate:      start,
		Iterations:     in.Iterations,
		Levers:         levers,
		IgnoreCapacity: in.IgnoreCapacity,
	})
	if err != nil {
		return nil, err
	}

	warnings := forecastWarnings(f)
	guidance := []string{
		"Baseline and what-if share the same random numbers: the delta is attributable to the lever change alone.",
	}
	if f.Delta != nil {
		switch {
		case f.Delta.P50Days < 0:
			guidance = append(guidance, fmt.Sprintf("The change pulls the median hire date in by %d days.", -f.Delta.P50Days))
		case f.Delta.P50Days > 0:
			guidance = append(guidance, fmt.Sprintf("The change pushes the median hire date out by %d days.", f.Delta.P50Days))
		default:
			guidance = append(guidance, "The median hire date does not move; try a lever on the current bottleneck stage (see analyze_capacity).")
		}
	}

	env := WrapResponse(f, f.ReqID, warnings, guidance)
	if s.cfg.EnableMermaidCharts && f.WhatIf != nil {
		env.Charts = map[string]string{
			"what_if": visuals.GenerateWhatIfChart(f.Baseline, *f.WhatIf),
		}
	}
	return env, nil
}

func (s *Server) handleShrinkRate(_ context.Context, in ShrinkArgs) (interface{}, error) {
	if in.Observed < 0 || in.Observed > 1 || in.Prior < 0 || in.Prior > 1 {
		return nil, fmt.Errorf("observed and prior must be within [0,1]")
	}
	if in.N < 0 {
		return nil, fmt.Errorf("n must be >= 0")
	}
	weight := in.PriorWeight
	if weight <= 0 {
		weight = s.cfg.Simulation.PriorWeight
	}
	if weight <= 0 {
		weight = simulation.DefaultPriorWeight
	}
	rate := simulation.ShrinkRate(in.Observed, in.Prior, in.N, weight)

	var guidance []string
	if in.N < simulation.HighConfidenceSamples {
		guidance = append(guidance, fmt.Sprintf("With fewer than %d samples the forecast engine applies this blend automatically.", simulation.HighConfidenceSamples))
	}
	return WrapResponse(map[string]interface{}{
		"observed":     in.Observed,
		"prior":        in.Prior,
		"n":            in.N,
		"prior_weight": weight,
		"shrunk_rate":  rate,
	}, "", nil, guidance), nil
}

func forecastWarnings(f *oracle.Forecast) []string {
	var out []string
	out = append(out, f.Baseline.Warnings...)
	if len(f.ExcludedStages) > 0 {
		out = append(out, fmt.Sprintf("%d candidate(s) have unrecognized stages and were left out: %v", len(f.ExcludedStages), f.ExcludedStages))
	}
	if f.Capacity != nil && f.Capacity.UsedCohortFallback {
		out = append(out, "Capacity for at least one stage uses cohort defaults instead of observed throughput.")
	}
	return out
}

func forecastGuidance(f *oracle.Forecast) []string {
	var out []string
	if f.ActiveCandidates == 0 {
		out = append(out, fmt.Sprintf("No in-flight candidates: the dates are the %d-day fallback horizon, not a simulated hire. Source candidates before quoting a date.", simulation.FallbackHorizonDays))
	}
	if f.Baseline.Confidence == simulation.ConfidenceLow {
		out = append(out, "Confidence is LOW. Present the range as indicative and recommend collecting more stage history.")
	}
	if f.Capacity != nil && len(f.Capacity.TopBottlenecks) > 0 {
		top := f.Capacity.TopBottlenecks[0]
		out = append(out, fmt.Sprintf("%s is the main queueing bottleneck (+%.1f days). Use analyze_capacity for recommendations.", top.Stage, top.QueueDelayDays))
	}
	return out
}
