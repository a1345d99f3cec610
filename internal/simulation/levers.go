package simulation

import (
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strings"

	"req-oracle/internal/pipeline"
)

// Levers are user-adjusted what-if knobs applied on top of benchmark parameters.
type Levers struct {
	// RateDeltas shifts a stage pass rate by a fraction (0.10 = +10 percentage points).
	RateDeltas map[pipeline.Stage]float64 `json:"rate_deltas,omitempty"`
	// DurationMultipliers scales every dwell time of a stage.
	DurationMultipliers map[pipeline.Stage]float64 `json:"duration_multipliers,omitempty"`
}

// IsZero reports whether the levers leave parameters untouched.
func (l Levers) IsZero() bool {
	for _, d := range l.RateDeltas {
		if d != 0 {
			return false
		}
	}
	for _, m := range l.DurationMultipliers {
		if m != 1 && m > 0 {
			return false
		}
	}
	return true
}

// Hash fingerprints the lever values for cache keys. It is never part of a seed.
func (l Levers) Hash() string {
	if l.IsZero() {
		return "none"
	}
	var parts []string
	for s, d := range l.RateDeltas {
		if d != 0 {
			parts = append(parts, fmt.Sprintf("r:%s:%.6f", s, d))
		}
	}
	for s, m := range l.DurationMultipliers {
		if m != 1 && m > 0 {
			parts = append(parts, fmt.Sprintf("d:%s:%.6f", s, m))
		}
	}
	slices.Sort(parts)

	h := fnv.New64a()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%016x", h.Sum64())
}

// ApplyLevers returns a copy of params with the levers applied. Rates are clamped to [0,1];
// untouched stages keep their original distribution values.
func ApplyLevers(params Parameters, l Levers) Parameters {
	out := params.Clone()
	for s, delta := range l.RateDeltas {
		if delta == 0 {
			continue
		}
		base, ok := out.ConversionRates[s]
		if !ok {
			if prior, hasPrior := out.PriorRates[s]; hasPrior {
				base = prior
			} else {
				base = DefaultPassRate
			}
		}
		out.ConversionRates[s] = math.Min(1, math.Max(0, base+delta))
	}
	for s, factor := range l.DurationMultipliers {
		if factor == 1 || factor <= 0 {
			continue
		}
		d, ok := out.Durations[s]
		if !ok || d == nil {
			d = &Constant{Days: DefaultStageDays}
		}
		out.Durations[s] = d.Scale(factor)
	}
	return out
}
