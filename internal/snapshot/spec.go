package snapshot

import (
	"fmt"
	"math"
	"strings"

	"req-oracle/internal/capacity"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// Distribution kinds accepted in snapshot files.
const (
	KindConstant  = "constant"
	KindLogNormal = "lognormal"
	KindEmpirical = "empirical"
)

// probabilityTolerance is how far empirical bucket masses may drift from summing to 1.
const probabilityTolerance = 0.01

// DistributionSpec is the file form of a stage duration distribution.
type DistributionSpec struct {
	Type    string       `json:"type" yaml:"type" toml:"type"`
	Days    float64      `json:"days,omitempty" yaml:"days,omitempty" toml:"days,omitempty"`
	Mu      float64      `json:"mu,omitempty" yaml:"mu,omitempty" toml:"mu,omitempty"`
	Sigma   float64      `json:"sigma,omitempty" yaml:"sigma,omitempty" toml:"sigma,omitempty"`
	Buckets []BucketSpec `json:"buckets,omitempty" yaml:"buckets,omitempty" toml:"buckets,omitempty"`
}

// BucketSpec is one empirical day-count and its probability.
type BucketSpec struct {
	Days        float64 `json:"days" yaml:"days" toml:"days"`
	Probability float64 `json:"probability" yaml:"probability" toml:"probability"`
}

// Distribution validates the spec and builds the simulation value.
func (d DistributionSpec) Distribution() (simulation.Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(d.Type)) {
	case KindConstant:
		if d.Days < 0 {
			return nil, fmt.Errorf("constant days must be >= 0, got %v", d.Days)
		}
		return &simulation.Constant{Days: d.Days}, nil
	case KindLogNormal, "log_normal":
		if d.Sigma < 0 || math.IsNaN(d.Mu) || math.IsNaN(d.Sigma) {
			return nil, fmt.Errorf("lognormal needs finite mu and sigma >= 0, got mu=%v sigma=%v", d.Mu, d.Sigma)
		}
		return &simulation.LogNormal{Mu: d.Mu, Sigma: d.Sigma}, nil
	case KindEmpirical:
		if len(d.Buckets) == 0 {
			return nil, fmt.Errorf("empirical distribution has no buckets")
		}
		total := 0.0
		buckets := make([]simulation.Bucket, 0, len(d.Buckets))
		for _, b := range d.Buckets {
			if b.Probability < 0 || b.Days < 0 {
				return nil, fmt.Errorf("empirical bucket %v/%v must be non-negative", b.Days, b.Probability)
			}
			total += b.Probability
			buckets = append(buckets, simulation.Bucket{Days: b.Days, Probability: b.Probability})
		}
		if math.Abs(total-1) > probabilityTolerance {
			return nil, fmt.Errorf("empirical probabilities sum to %.3f, want 1", total)
		}
		return &simulation.Empirical{Buckets: buckets}, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", d.Type)
	}
}

// SpecFor converts a simulation distribution back into its file form.
func SpecFor(d simulation.Distribution) DistributionSpec {
	switch v := d.(type) {
	case *simulation.Constant:
		return DistributionSpec{Type: KindConstant, Days: v.Median()}
	case *simulation.LogNormal:
		return DistributionSpec{Type: KindLogNormal, Mu: v.Mu, Sigma: v.Sigma}
	case *simulation.Empirical:
		spec := DistributionSpec{Type: KindEmpirical}
		for _, b := range v.Buckets {
			spec.Buckets = append(spec.Buckets, BucketSpec{Days: b.Days, Probability: b.Probability})
		}
		return spec
	default:
		return DistributionSpec{Type: KindConstant, Days: simulation.DefaultStageDays}
	}
}

// ParametersSpec is the file form of simulation parameters. Stage keys are raw labels.
type ParametersSpec struct {
	ConversionRates map[string]float64          `json:"conversion_rates,omitempty" yaml:"conversion_rates,omitempty" toml:"conversion_rates,omitempty"`
	PriorRates      map[string]float64          `json:"prior_rates,omitempty" yaml:"prior_rates,omitempty" toml:"prior_rates,omitempty"`
	Durations       map[string]DistributionSpec `json:"durations,omitempty" yaml:"durations,omitempty" toml:"durations,omitempty"`
	SampleSizes     map[string]int              `json:"sample_sizes,omitempty" yaml:"sample_sizes,omitempty" toml:"sample_sizes,omitempty"`
}

// Parameters normalizes stage keys and builds simulation parameters.
func (p ParametersSpec) Parameters() (simulation.Parameters, error) {
	out := simulation.Parameters{
		ConversionRates: make(map[pipeline.Stage]float64, len(p.ConversionRates)),
		PriorRates:      make(map[pipeline.Stage]float64, len(p.PriorRates)),
		Durations:       make(map[pipeline.Stage]simulation.Distribution, len(p.Durations)),
		SampleSizes:     make(map[string]int, len(p.SampleSizes)),
	}

	rates := func(dst map[pipeline.Stage]float64, src map[string]float64, what string) error {
		for raw, v := range src {
			s, ok := pipeline.Parse(raw)
			if !ok {
				return fmt.Errorf("%s: unknown stage %q", what, raw)
			}
			if v < 0 || v > 1 || math.IsNaN(v) {
				return fmt.Errorf("%s: rate for %s must be within [0,1], got %v", what, s, v)
			}
			dst[s] = v
		}
		return nil
	}
	if err := rates(out.ConversionRates, p.ConversionRates, "conversion_rates"); err != nil {
		return simulation.Parameters{}, err
	}
	if err := rates(out.PriorRates, p.PriorRates, "prior_rates"); err != nil {
		return simulation.Parameters{}, err
	}

	for raw, spec := range p.Durations {
		s, ok := pipeline.Parse(raw)
		if !ok {
			return simulation.Parameters{}, fmt.Errorf("durations: unknown stage %q", raw)
		}
		d, err := spec.Distribution()
		if err != nil {
			return simulation.Parameters{}, fmt.Errorf("durations[%s]: %w", s, err)
		}
		out.Durations[s] = d
	}

	for raw, n := range p.SampleSizes {
		key := raw
		if s, ok := pipeline.Parse(raw); ok {
			key = string(s)
		}
		out.SampleSizes[key] = n
	}
	return out, nil
}

// SpecForParameters converts simulation parameters back into their file form.
func SpecForParameters(p simulation.Parameters) ParametersSpec {
	spec := ParametersSpec{
		ConversionRates: make(map[string]float64, len(p.ConversionRates)),
		PriorRates:      make(map[string]float64, len(p.PriorRates)),
		Durations:       make(map[string]DistributionSpec, len(p.Durations)),
		SampleSizes:     make(map[string]int, len(p.SampleSizes)),
	}
	for s, v := range p.ConversionRates {
		spec.ConversionRates[string(s)] = v
	}
	for s, v := range p.PriorRates {
		spec.PriorRates[string(s)] = v
	}
	for s, d := range p.Durations {
		spec.Durations[string(s)] = SpecFor(d)
	}
	for k, n := range p.SampleSizes {
		spec.SampleSizes[k] = n
	}
	return spec
}

// CapacitySpec is the file form of one person's observed throughput.
type CapacitySpec struct {
	PersonID          string             `json:"person_id" yaml:"person_id" toml:"person_id"`
	Confidence        string             `json:"confidence,omitempty" yaml:"confidence,omitempty" toml:"confidence,omitempty"`
	ThroughputPerWeek map[string]float64 `json:"throughput_per_week" yaml:"throughput_per_week" toml:"throughput_per_week"`
}

// OwnerCapacity normalizes stage keys and the confidence label.
func (c CapacitySpec) OwnerCapacity() (capacity.OwnerCapacity, error) {
	if c.PersonID == "" {
		return capacity.OwnerCapacity{}, fmt.Errorf("capacity entry without person_id")
	}
	oc := capacity.OwnerCapacity{
		PersonID:          c.PersonID,
		ThroughputPerWeek: make(map[pipeline.Stage]float64, len(c.ThroughputPerWeek)),
		Confidence:        simulation.ConfidenceMedium,
	}
	switch simulation.Confidence(strings.ToUpper(strings.TrimSpace(c.Confidence))) {
	case simulation.ConfidenceHigh:
		oc.Confidence = simulation.ConfidenceHigh
	case simulation.ConfidenceLow:
		oc.Confidence = simulation.ConfidenceLow
	}
	for raw, v := range c.ThroughputPerWeek {
		s, ok := pipeline.Parse(raw)
		if !ok {
			return capacity.OwnerCapacity{}, fmt.Errorf("capacity %s: unknown stage %q", c.PersonID, raw)
		}
		if v < 0 {
			return capacity.OwnerCapacity{}, fmt.Errorf("capacity %s: throughput for %s must be >= 0", c.PersonID, s)
		}
		oc.ThroughputPerWeek[s] = v
	}
	return oc, nil
}
