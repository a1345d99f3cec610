package simulation

import (
	"slices"
	"testing"
	"time"

	"req-oracle/internal/pipeline"
)

var testStart = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func constantParams(rates map[pipeline.Stage]float64) Parameters {
	return Parameters{
		ConversionRates: rates,
		Durations: map[pipeline.Stage]Distribution{
			pipeline.Screen:   &Constant{Days: 7},
			pipeline.HMScreen: &Constant{Days: 7},
			pipeline.Onsite:   &Constant{Days: 7},
			pipeline.Offer:    &Constant{Days: 7},
		},
	}
}

func lognormalParams() Parameters {
	return Parameters{
		ConversionRates: map[pipeline.Stage]float64{
			pipeline.Screen:   0.6,
			pipeline.HMScreen: 0.6,
			pipeline.Onsite:   0.5,
			pipeline.Offer:    0.85,
		},
		Durations: map[pipeline.Stage]Distribution{
			pipeline.Screen:   &LogNormal{Mu: 1.6, Sigma: 0.5},
			pipeline.HMScreen: &LogNormal{Mu: 1.8, Sigma: 0.6},
			pipeline.Onsite:   &LogNormal{Mu: 2.1, Sigma: 0.4},
			pipeline.Offer:    &Empirical{Buckets: []Bucket{{Days: 2, Probability: 0.5}, {Days: 5, Probability: 0.3}, {Days: 10, Probability: 0.2}}},
		},
		SampleSizes: map[string]int{"SCREEN": 40, "HM_SCREEN": 22, "ONSITE": 16, "OFFER": 15},
	}
}

func TestEngine_EndToEndSingleCandidate(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   0.5,
		pipeline.HMScreen: 0.6,
		pipeline.Onsite:   0.7,
		pipeline.Offer:    0.8,
	})

	res := e.Run(ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "test-seed-1", Iterations: 1000}, params)

	// 1000 * 0.5*0.6*0.7*0.8 = 168 expected hires.
	if n := len(res.SimulatedDays); n < 120 || n > 216 {
		t.Errorf("Expected roughly 168 successful journeys, got %d", n)
	}
	for i, d := range res.SimulatedDays {
		if d != 28 {
			t.Fatalf("sample %d: expected 28 days (4 stages x 7), got %d", i, d)
		}
	}
	if res.Confidence != ConfidenceLow {
		t.Errorf("Expected LOW confidence without sample sizes, got %s", res.Confidence)
	}
	if !res.P50Date.Equal(testStart.AddDate(0, 0, 28)) {
		t.Errorf("Expected P50 date %s, got %s", testStart.AddDate(0, 0, 28), res.P50Date)
	}
	if res.Debug.Iterations != 1000 || res.Debug.Seed != "test-seed-1" {
		t.Errorf("Unexpected debug metadata: %+v", res.Debug)
	}
}

func TestEngine_Determinism(t *testing.T) {
	e := NewEngine(DefaultOptions())
	input := ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "req-42", Iterations: 2000}

	a := e.Run(input, lognormalParams())
	b := e.Run(input, lognormalParams())

	if !slices.Equal(a.SimulatedDays, b.SimulatedDays) {
		t.Fatal("Expected identical simulated days for identical seed and inputs")
	}
	if !a.P50Date.Equal(b.P50Date) {
		t.Errorf("Expected identical P50, got %s vs %s", a.P50Date, b.P50Date)
	}

	c := e.Run(ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "req-43", Iterations: 2000}, lognormalParams())
	if slices.Equal(a.SimulatedDays, c.SimulatedDays) {
		t.Error("Expected a different seed to produce a different sample")
	}
}

func TestEngine_PercentileOrdering(t *testing.T) {
	e := NewEngine(DefaultOptions())
	res := e.Run(ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "ordering", Iterations: 3000}, lognormalParams())

	if len(res.SimulatedDays) < 3 {
		t.Fatalf("Expected at least 3 samples, got %d", len(res.SimulatedDays))
	}
	if res.P10Date.After(res.P50Date) || res.P50Date.After(res.P90Date) {
		t.Errorf("Expected P10 <= P50 <= P90, got %s / %s / %s", res.P10Date, res.P50Date, res.P90Date)
	}
	if !slices.IsSorted(res.SimulatedDays) {
		t.Error("Expected simulated days sorted ascending")
	}
	if res.Confidence != ConfidenceHigh {
		t.Errorf("Expected HIGH confidence with min sample size 15, got %s", res.Confidence)
	}
}

func TestEngine_ZeroPassRateFallback(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   0,
		pipeline.HMScreen: 1,
		pipeline.Onsite:   1,
		pipeline.Offer:    1,
	})
	params.SampleSizes = map[string]int{"SCREEN": 100}

	for _, iterations := range []int{1, 10, 500} {
		res := e.Run(ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "degenerate", Iterations: iterations}, params)

		if res.SimulatedDays == nil || len(res.SimulatedDays) != 0 {
			t.Errorf("iterations=%d: expected empty, non-nil samples, got %v", iterations, res.SimulatedDays)
		}
		if res.Confidence != ConfidenceLow {
			t.Errorf("iterations=%d: expected LOW confidence, got %s", iterations, res.Confidence)
		}
		if !res.P50Date.Equal(testStart.AddDate(0, 0, 365)) {
			t.Errorf("iterations=%d: expected P50 at start+365, got %s", iterations, res.P50Date)
		}
		if len(res.Warnings) == 0 {
			t.Errorf("iterations=%d: expected a fallback warning", iterations)
		}
	}
}

func TestEngine_TerminalStartingStages(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := lognormalParams()

	hired := e.Run(ForecastInput{CurrentStage: pipeline.Hired, StartDate: testStart, Seed: "hired", Iterations: 50}, params)
	if len(hired.SimulatedDays) != 50 {
		t.Fatalf("Expected every journey from HIRED to succeed, got %d", len(hired.SimulatedDays))
	}
	if hired.P90Days != 0 || !hired.P90Date.Equal(testStart) {
		t.Errorf("Expected 0 elapsed days from HIRED, got %d", hired.P90Days)
	}

	for _, stage := range []pipeline.Stage{pipeline.Rejected, pipeline.Withdrawn, ""} {
		res := e.Run(ForecastInput{CurrentStage: stage, StartDate: testStart, Seed: "out", Iterations: 50}, params)
		if len(res.SimulatedDays) != 0 {
			t.Errorf("stage %q: expected no successful journeys, got %d", stage, len(res.SimulatedDays))
		}
	}
}

func TestEngine_SimulateCandidateNeverRegresses(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   1,
		pipeline.HMScreen: 1,
		pipeline.Onsite:   1,
		pipeline.Offer:    1,
	})

	tests := []struct {
		stage    pipeline.Stage
		expected float64
	}{
		{pipeline.Screen, 28},
		{pipeline.HMScreen, 21},
		{pipeline.Onsite, 14},
		{pipeline.Offer, 7},
		{pipeline.Hired, 0},
	}
	for _, tt := range tests {
		got, ok := e.SimulateCandidate(tt.stage, params, NewStream("walk"))
		if !ok || got != tt.expected {
			t.Errorf("SimulateCandidate(%s) = (%v, %v), want (%v, true)", tt.stage, got, ok, tt.expected)
		}
	}
}

func TestEngine_IterationCeiling(t *testing.T) {
	e := NewEngine(Options{MaxIterations: 200, WarnIterations: 100})
	res := e.Run(ForecastInput{CurrentStage: pipeline.Offer, StartDate: testStart, Seed: "ceiling", Iterations: 1000}, lognormalParams())

	if res.Debug.Iterations != 200 {
		t.Errorf("Expected iterations clamped to 200, got %d", res.Debug.Iterations)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("Expected clamp and performance warnings, got %v", res.Warnings)
	}

	def := e.Run(ForecastInput{CurrentStage: pipeline.Offer, StartDate: testStart, Seed: "ceiling"}, lognormalParams())
	// The default of 1000 iterations is itself above this engine's ceiling.
	if def.Debug.Iterations != 200 {
		t.Errorf("Expected default iterations clamped to 200, got %d", def.Debug.Iterations)
	}
}

func TestEngine_EffectiveRatesShrinkThinData(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := Parameters{
		ConversionRates: map[pipeline.Stage]float64{
			pipeline.Screen:   1.0,
			pipeline.HMScreen: 0.55,
		},
		PriorRates: map[pipeline.Stage]float64{
			pipeline.Screen:   0.5,
			pipeline.HMScreen: 0.5,
			pipeline.Onsite:   0.4,
		},
		SampleSizes: map[string]int{"SCREEN": 2, "HM_SCREEN": 200},
	}

	rates := e.EffectiveRates(params)

	// (2*1.0 + 5*0.5) / 7
	if got, want := rates[pipeline.Screen], 4.5/7; abs(got-want) > 1e-9 {
		t.Errorf("Expected shrunk SCREEN rate %v, got %v", want, got)
	}
	if rates[pipeline.HMScreen] != 0.55 {
		t.Errorf("Expected well-sampled HM_SCREEN rate untouched, got %v", rates[pipeline.HMScreen])
	}
	if rates[pipeline.Onsite] != 0.4 {
		t.Errorf("Expected ONSITE to fall back to its prior, got %v", rates[pipeline.Onsite])
	}
	if rates[pipeline.Offer] != DefaultPassRate {
		t.Errorf("Expected OFFER to fall back to the default pass rate, got %v", rates[pipeline.Offer])
	}
}

func TestEngine_CommonRandomNumbers(t *testing.T) {
	e := NewEngine(DefaultOptions())
	base := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   0.5,
		pipeline.HMScreen: 0.6,
		pipeline.Onsite:   0.7,
		pipeline.Offer:    0.8,
	})
	levers := Levers{RateDeltas: map[pipeline.Stage]float64{pipeline.Screen: 0.10}}
	adjusted := ApplyLevers(base, levers)

	seed := ComputeStableSeed("REQ-1", "abc", 1000)
	input := ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: seed, Iterations: 1000}

	baseline := e.Run(input, base)
	first := e.Run(input, adjusted)
	second := e.Run(input, adjusted)

	if !slices.Equal(first.SimulatedDays, second.SimulatedDays) {
		t.Fatal("Expected the adjusted run to reproduce exactly with the same seed")
	}
	// Every iteration that hired in the baseline still hires with a higher SCREEN rate.
	if len(first.SimulatedDays) < len(baseline.SimulatedDays) {
		t.Errorf("Expected at least %d hires with a higher pass rate, got %d", len(baseline.SimulatedDays), len(first.SimulatedDays))
	}
	if base.ConversionRates[pipeline.Screen] != 0.5 {
		t.Error("ApplyLevers must not mutate the base parameters")
	}
}

func TestEngine_RunPipeline(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   1,
		pipeline.HMScreen: 1,
		pipeline.Onsite:   1,
		pipeline.Offer:    1,
	})

	candidates := []PipelineCandidate{
		{ID: "c1", Stage: "Screen"},
		{ID: "c2", Stage: "offer"},
		{ID: "c3", Stage: "Sourcing Call"},
	}
	res := e.RunPipeline(candidates, params, testStart, "pipeline", 100)

	if len(res.SimulatedDays) != 100 {
		t.Fatalf("Expected every iteration to hire, got %d", len(res.SimulatedDays))
	}
	for _, d := range res.SimulatedDays {
		if d != 7 {
			t.Fatalf("Expected the OFFER candidate to win with 7 days, got %d", d)
		}
	}
}

func TestEngine_RunPipelineExcludesUnmappable(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   1,
		pipeline.HMScreen: 1,
		pipeline.Onsite:   1,
		pipeline.Offer:    1,
	})

	res := e.RunPipeline([]PipelineCandidate{{ID: "x", Stage: "???"}}, params, testStart, "none", 100)
	if len(res.SimulatedDays) != 0 {
		t.Errorf("Expected an unmappable candidate to be excluded, got %d samples", len(res.SimulatedDays))
	}
	if !res.P50Date.Equal(testStart.AddDate(0, 0, FallbackHorizonDays)) {
		t.Errorf("Expected fallback horizon, got %s", res.P50Date)
	}

	empty := e.RunPipeline(nil, params, testStart, "none", 10)
	if empty.Confidence != ConfidenceLow || len(empty.SimulatedDays) != 0 {
		t.Errorf("Expected LOW-confidence fallback for an empty pipeline, got %+v", empty)
	}
}

func TestEngine_RunPipelineFastestCandidateWins(t *testing.T) {
	e := NewEngine(DefaultOptions())
	params := constantParams(map[pipeline.Stage]float64{
		pipeline.Screen:   0.5,
		pipeline.HMScreen: 0.6,
		pipeline.Onsite:   0.7,
		pipeline.Offer:    0.8,
	})

	single := e.Run(ForecastInput{CurrentStage: pipeline.Screen, StartDate: testStart, Seed: "s", Iterations: 2000}, params)
	trio := e.RunPipeline([]PipelineCandidate{
		{ID: "a", Stage: "SCREEN"},
		{ID: "b", Stage: "screen"},
		{ID: "c", Stage: "Screen"},
	}, params, testStart, "s", 2000)

	// P(at least one of three hires) = 1 - (1-0.168)^3, roughly 0.42.
	if trio.SuccessRate <= single.SuccessRate {
		t.Errorf("Expected three candidates to hire more often than one: %.3f vs %.3f", trio.SuccessRate, single.SuccessRate)
	}
	if trio.SuccessRate < 0.35 || trio.SuccessRate > 0.50 {
		t.Errorf("Expected a pipeline success rate near 0.42, got %.3f", trio.SuccessRate)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
