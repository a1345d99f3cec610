package simulation

import (
	"time"

	"req-oracle/internal/pipeline"
)

// Confidence is the coarse reliability label attached to forecasts and capacity estimates.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

const (
	// HighConfidenceSamples is the minimum sample size for a HIGH label.
	HighConfidenceSamples = 15
	// MediumConfidenceSamples is the minimum sample size for a MEDIUM label.
	MediumConfidenceSamples = 5
	// DefaultPassRate is used for a stage with neither an observed nor a prior rate.
	DefaultPassRate = 0.5
	// FallbackHorizonDays is the forecast horizon reported when no journey reaches Hired.
	FallbackHorizonDays = 365
	// DefaultIterations is used when a forecast input does not name an iteration count.
	DefaultIterations = 1000
)

// Parameters is the per-forecast input bundle mined from historical stage transitions.
// It is never mutated in place; adjustments produce copies.
type Parameters struct {
	ConversionRates map[pipeline.Stage]float64      `json:"stage_conversion_rates"`
	PriorRates      map[pipeline.Stage]float64      `json:"prior_rates,omitempty"`
	Durations       map[pipeline.Stage]Distribution `json:"-"`
	SampleSizes     map[string]int                  `json:"sample_sizes,omitempty"`
}

// Clone returns a copy with fresh maps. Distribution values are shared, not copied.
func (p Parameters) Clone() Parameters {
	out := Parameters{
		ConversionRates: make(map[pipeline.Stage]float64, len(p.ConversionRates)),
		PriorRates:      make(map[pipeline.Stage]float64, len(p.PriorRates)),
		Durations:       make(map[pipeline.Stage]Distribution, len(p.Durations)),
		SampleSizes:     make(map[string]int, len(p.SampleSizes)),
	}
	for k, v := range p.ConversionRates {
		out.ConversionRates[k] = v
	}
	for k, v := range p.PriorRates {
		out.PriorRates[k] = v
	}
	for k, v := range p.Durations {
		out.Durations[k] = v
	}
	for k, v := range p.SampleSizes {
		out.SampleSizes[k] = v
	}
	return out
}

// ConfidenceFor labels parameters by the smallest sample size they were built from.
// No sample sizes at all means LOW.
func ConfidenceFor(sampleSizes map[string]int) Confidence {
	if len(sampleSizes) == 0 {
		return ConfidenceLow
	}
	minN := -1
	for _, n := range sampleSizes {
		if minN == -1 || n < minN {
			minN = n
		}
	}
	switch {
	case minN >= HighConfidenceSamples:
		return ConfidenceHigh
	case minN >= MediumConfidenceSamples:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ForecastInput drives a single-candidate Monte Carlo run.
type ForecastInput struct {
	CurrentStage pipeline.Stage
	StartDate    time.Time
	Seed         string
	Iterations   int
}

// PipelineCandidate is a real in-flight candidate. Stage is the raw label from the source
// system and is normalized before simulation.
type PipelineCandidate struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Stage string `json:"stage" yaml:"stage" toml:"stage"`
}

// Debug carries what is needed to reproduce or cache a run.
type Debug struct {
	Iterations int    `json:"iterations"`
	Seed       string `json:"seed"`
}

// Result is the outcome of one Monte Carlo run.
type Result struct {
	P10Date       time.Time  `json:"p10_date"`
	P50Date       time.Time  `json:"p50_date"`
	P90Date       time.Time  `json:"p90_date"`
	P10Days       int        `json:"p10_days"`
	P50Days       int        `json:"p50_days"`
	P90Days       int        `json:"p90_days"`
	MedianDays    float64    `json:"median_days"`
	MeanDays      float64    `json:"mean_days"`
	SimulatedDays []int      `json:"simulated_days"`
	Confidence    Confidence `json:"confidence_level"`
	SuccessRate   float64    `json:"success_rate"`
	Warnings      []string   `json:"warnings,omitempty"`
	Debug         Debug      `json:"debug"`
}

// Rebase returns a copy of r with its percentile dates recomputed from start.
// Day offsets are independent of the start date, so cached results can be reused across days.
func (r Result) Rebase(start time.Time) Result {
	out := r
	out.P10Date = start.AddDate(0, 0, r.P10Days)
	out.P50Date = start.AddDate(0, 0, r.P50Days)
	out.P90Date = start.AddDate(0, 0, r.P90Days)
	return out
}
