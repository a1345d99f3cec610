package simulation

import (
	"fmt"
	"math"
)

// DefaultStageDays is the dwell time assumed for a stage without a distribution.
const DefaultStageDays = 7.0

// Distribution describes how long a candidate dwells in a stage.
// Implementations: *Constant, *LogNormal, *Empirical.
type Distribution interface {
	// Median returns the median dwell time in days.
	Median() float64
	// Shift returns a copy whose median is moved later by days.
	Shift(days float64) Distribution
	// Scale returns a copy with every dwell time multiplied by factor.
	Scale(factor float64) Distribution

	distribution()
}

// Constant is a deterministic dwell time, used as a data-poor fallback.
type Constant struct {
	Days float64 `json:"days"`
}

// LogNormal captures right-skewed dwell times. The median is e^Mu.
type LogNormal struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Bucket is one observed day-count and its probability mass.
type Bucket struct {
	Days        float64 `json:"days"`
	Probability float64 `json:"probability"`
}

// Empirical is a discrete probability mass function over observed day-counts.
type Empirical struct {
	Buckets []Bucket `json:"buckets"`
}

func (*Constant) distribution()  {}
func (*LogNormal) distribution() {}
func (*Empirical) distribution() {}

func (c *Constant) Median() float64 {
	if c == nil {
		return DefaultStageDays
	}
	return c.Days
}

func (c *Constant) Shift(days float64) Distribution {
	return &Constant{Days: c.Median() + days}
}

func (c *Constant) Scale(factor float64) Distribution {
	return &Constant{Days: c.Median() * factor}
}

func (l *LogNormal) Median() float64 {
	if l == nil {
		return DefaultStageDays
	}
	return math.Exp(l.Mu)
}

// Shift raises Mu by log(1 + days/median) so the median grows by exactly days.
func (l *LogNormal) Shift(days float64) Distribution {
	if l == nil {
		return &Constant{Days: DefaultStageDays + days}
	}
	median := l.Median()
	return &LogNormal{Mu: l.Mu + math.Log(1+days/median), Sigma: l.Sigma}
}

func (l *LogNormal) Scale(factor float64) Distribution {
	if l == nil {
		return &Constant{Days: DefaultStageDays * factor}
	}
	if factor <= 0 {
		return &LogNormal{Mu: l.Mu, Sigma: l.Sigma}
	}
	return &LogNormal{Mu: l.Mu + math.Log(factor), Sigma: l.Sigma}
}

func (e *Empirical) Median() float64 {
	if e == nil || len(e.Buckets) == 0 {
		return DefaultStageDays
	}
	cumulative := 0.0
	for _, b := range e.Buckets {
		cumulative += b.Probability
		if cumulative >= 0.5 {
			return b.Days
		}
	}
	return e.Buckets[len(e.Buckets)-1].Days
}

func (e *Empirical) Shift(days float64) Distribution {
	return e.mapDays(func(d float64) float64 { return d + days })
}

func (e *Empirical) Scale(factor float64) Distribution {
	return e.mapDays(func(d float64) float64 { return d * factor })
}

func (e *Empirical) mapDays(fn func(float64) float64) Distribution {
	if e == nil {
		return &Constant{Days: fn(DefaultStageDays)}
	}
	buckets := make([]Bucket, len(e.Buckets))
	for i, b := range e.Buckets {
		buckets[i] = Bucket{Days: fn(b.Days), Probability: b.Probability}
	}
	return &Empirical{Buckets: buckets}
}

// SampleDuration draws a dwell time in days from d.
// A nil distribution yields DefaultStageDays without consuming a draw.
func SampleDuration(d Distribution, r Uniform) float64 {
	switch dist := d.(type) {
	case nil:
		return DefaultStageDays
	case *Constant:
		return dist.Median()
	case *LogNormal:
		if dist == nil {
			return DefaultStageDays
		}
		// 1-u keeps the first uniform in (0,1] so log never sees zero.
		u1 := 1 - r.Float64()
		u2 := r.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		return math.Exp(dist.Mu + dist.Sigma*z)
	case *Empirical:
		if dist == nil || len(dist.Buckets) == 0 {
			return DefaultStageDays
		}
		target := r.Float64()
		cumulative := 0.0
		for _, b := range dist.Buckets {
			cumulative += b.Probability
			if cumulative >= target {
				return b.Days
			}
		}
		return dist.Buckets[len(dist.Buckets)-1].Days
	default:
		panic(fmt.Sprintf("simulation: unsupported distribution %T", d))
	}
}
