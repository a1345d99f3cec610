package simulation

import (
	"fmt"
	"math"
	"slices"
	"time"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/stats"

	"github.com/rs/zerolog/log"
)

// Options bound the cost and tune the statistics of a run.
type Options struct {
	// MaxIterations is the hard ceiling; larger requests are clamped.
	MaxIterations int
	// WarnIterations triggers a performance warning without failing the run.
	WarnIterations int
	// PriorWeight is the pseudo-sample size used when shrinking thin rates.
	PriorWeight float64
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations:  20000,
		WarnIterations: 5000,
		PriorWeight:    DefaultPriorWeight,
	}
}

// Engine performs the Monte-Carlo simulation. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.WarnIterations <= 0 {
		opts.WarnIterations = def.WarnIterations
	}
	if opts.PriorWeight <= 0 {
		opts.PriorWeight = def.PriorWeight
	}
	return &Engine{opts: opts}
}

// Options returns the options the engine runs with.
func (e *Engine) Options() Options {
	return e.opts
}

// Run simulates a single hypothetical candidate starting at input.CurrentStage.
func (e *Engine) Run(input ForecastInput, params Parameters) Result {
	iterations, warnings := e.boundIterations(input.Iterations)
	rng := NewStream(input.Seed)
	rates := e.EffectiveRates(params)

	days := make([]int, 0, iterations)
	for i := 0; i < iterations; i++ {
		rng.Reset(uint64(i))
		if d, ok := simulateJourney(input.CurrentStage, rates, params.Durations, rng); ok {
			days = append(days, roundDays(d))
		}
	}

	return summarize(days, iterations, input.StartDate, input.Seed, params, warnings)
}

// RunPipeline simulates every real candidate once per iteration and keeps the fastest
// hire of that iteration. Candidates whose stage cannot be mapped are left out.
// Each candidate of each iteration draws from its own substream, so one candidate dropping
// out early never shifts another candidate's draws.
func (e *Engine) RunPipeline(candidates []PipelineCandidate, params Parameters, startDate time.Time, seed string, iterations int) Result {
	iterations, warnings := e.boundIterations(iterations)

	stages := make([]pipeline.Stage, 0, len(candidates))
	for _, c := range candidates {
		s, ok := pipeline.Parse(c.Stage)
		if !ok {
			log.Debug().Str("candidate", c.ID).Str("stage", c.Stage).Msg("Excluding candidate with unmappable stage")
			continue
		}
		stages = append(stages, s)
	}

	rng := NewStream(seed)
	rates := e.EffectiveRates(params)

	days := make([]int, 0, iterations)
	n := len(stages)
	for i := 0; i < iterations; i++ {
		best := 0.0
		hired := false
		for k, s := range stages {
			rng.Reset(uint64(i*n + k))
			d, ok := simulateJourney(s, rates, params.Durations, rng)
			if ok && (!hired || d < best) {
				best = d
				hired = true
			}
		}
		if hired {
			days = append(days, roundDays(best))
		}
	}

	return summarize(days, iterations, startDate, seed, params, warnings)
}

// SimulateCandidate walks one candidate from stage to Hired. It reports false when the
// candidate drops out or already left the pipeline without being hired.
func (e *Engine) SimulateCandidate(stage pipeline.Stage, params Parameters, rng Uniform) (float64, bool) {
	return simulateJourney(stage, e.EffectiveRates(params), params.Durations, rng)
}

// EffectiveRates resolves the pass rate used for every simulated stage. Observed rates with
// fewer than HighConfidenceSamples observations are shrunk toward the stage prior when one exists.
func (e *Engine) EffectiveRates(params Parameters) map[pipeline.Stage]float64 {
	rates := make(map[pipeline.Stage]float64, len(pipeline.Simulated))
	for _, s := range pipeline.Simulated {
		observed, hasObserved := params.ConversionRates[s]
		prior, hasPrior := params.PriorRates[s]
		n := params.SampleSizes[string(s)]

		var rate float64
		switch {
		case !hasObserved && hasPrior:
			rate = prior
		case !hasObserved:
			rate = DefaultPassRate
		case hasPrior && n < HighConfidenceSamples:
			rate = ShrinkRate(observed, prior, n, e.opts.PriorWeight)
		default:
			rate = observed
		}
		rates[s] = math.Min(1, math.Max(0, rate))
	}
	return rates
}

func (e *Engine) boundIterations(requested int) (int, []string) {
	var warnings []string
	iterations := requested
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if iterations > e.opts.MaxIterations {
		log.Warn().Int("requested", iterations).Int("ceiling", e.opts.MaxIterations).Msg("Iteration count clamped to ceiling")
		warnings = append(warnings, fmt.Sprintf("Requested %d iterations exceeds the ceiling of %d; the run was clamped.", iterations, e.opts.MaxIterations))
		iterations = e.opts.MaxIterations
	}
	if iterations > e.opts.WarnIterations {
		log.Warn().Int("iterations", iterations).Int("threshold", e.opts.WarnIterations).Msg("Iteration count above performance threshold")
		warnings = append(warnings, fmt.Sprintf("PERFORMANCE WARNING: %d iterations is above the recommended %d.", iterations, e.opts.WarnIterations))
	}
	return iterations, warnings
}

func simulateJourney(start pipeline.Stage, rates map[pipeline.Stage]float64, durations map[pipeline.Stage]Distribution, rng Uniform) (float64, bool) {
	if start == pipeline.Hired {
		return 0, true
	}
	idx := start.Index()
	if idx < 0 {
		return 0, false
	}

	elapsed := 0.0
	for _, stage := range pipeline.Ordered[idx : len(pipeline.Ordered)-1] {
		elapsed += SampleDuration(durations[stage], rng)
		if rng.Float64() > rates[stage] {
			return 0, false
		}
	}
	return elapsed, true
}

func summarize(days []int, iterations int, startDate time.Time, seed string, params Parameters, warnings []string) Result {
	res := Result{
		SimulatedDays: days,
		Warnings:      warnings,
		Debug:         Debug{Iterations: iterations, Seed: seed},
	}

	if len(days) == 0 {
		log.Warn().Str("seed", seed).Int("iterations", iterations).Msg("No simulated journey reached Hired, using fallback horizon")
		fallback := startDate.AddDate(0, 0, FallbackHorizonDays)
		res.SimulatedDays = []int{}
		res.P10Date, res.P50Date, res.P90Date = fallback, fallback, fallback
		res.P10Days, res.P50Days, res.P90Days = FallbackHorizonDays, FallbackHorizonDays, FallbackHorizonDays
		res.MedianDays, res.MeanDays = FallbackHorizonDays, FallbackHorizonDays
		res.Confidence = ConfidenceLow
		res.Warnings = append(res.Warnings, fmt.Sprintf("No simulated candidate reached Hired in %d iterations. The forecast falls back to a %d-day horizon.", iterations, FallbackHorizonDays))
		return res
	}

	slices.Sort(days)
	res.P10Days = stats.PercentileDiscrete(days, 0.10)
	res.P50Days = stats.PercentileDiscrete(days, 0.50)
	res.P90Days = stats.PercentileDiscrete(days, 0.90)
	res.P10Date = startDate.AddDate(0, 0, res.P10Days)
	res.P50Date = startDate.AddDate(0, 0, res.P50Days)
	res.P90Date = startDate.AddDate(0, 0, res.P90Days)
	res.MedianDays = stats.CalculateMedianDiscrete(days)
	res.MeanDays = math.Round(stats.Mean(days)*10) / 10
	res.Confidence = ConfidenceFor(params.SampleSizes)
	if iterations > 0 {
		res.SuccessRate = float64(len(days)) / float64(iterations)
	}
	return res
}

func roundDays(d float64) int {
	return int(math.Round(d))
}
