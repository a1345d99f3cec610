package capacity

import (
	"math"
	"sort"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"

	"github.com/rs/zerolog/log"
)

const (
	// MaxQueueDelayDays caps the queueing delay of a single stage.
	MaxQueueDelayDays = 30.0
	// DefaultQueueFactor scales the excess-demand ratio into delay.
	DefaultQueueFactor = 1.0
	// DaysPerWeek converts weekly throughput into a daily cadence.
	DaysPerWeek = 7.0
)

// DelayFunc turns a stage's demand and weekly capacity into queueing delay in days.
// Implementations must return 0 when demand <= capacity and be non-decreasing in demand.
type DelayFunc func(demand, capacity float64) float64

// LinearDelay is min(maxDelay, queueFactor * (max(0, demand-capacity)/capacity) * 7).
// It is a simple proxy for M/M/1 waiting time scaled to a weekly cadence.
func LinearDelay(queueFactor, maxDelay float64) DelayFunc {
	return func(demand, capacity float64) float64 {
		if demand <= capacity {
			return 0
		}
		if capacity <= 0 {
			return maxDelay
		}
		excess := (demand - capacity) / capacity
		return math.Min(maxDelay, queueFactor*excess*DaysPerWeek)
	}
}

// ModelOptions configure the penalty model. Zero values take the defaults.
type ModelOptions struct {
	QueueFactor       float64
	MaxQueueDelayDays float64
	// Delay replaces the linear formula when set.
	Delay DelayFunc
}

// Model computes capacity-driven queueing delay per stage.
type Model struct {
	delay    DelayFunc
	maxDelay float64
}

func NewModel(opts ModelOptions) *Model {
	if opts.QueueFactor <= 0 {
		opts.QueueFactor = DefaultQueueFactor
	}
	if opts.MaxQueueDelayDays <= 0 {
		opts.MaxQueueDelayDays = MaxQueueDelayDays
	}
	delay := opts.Delay
	if delay == nil {
		delay = LinearDelay(opts.QueueFactor, opts.MaxQueueDelayDays)
	}
	return &Model{delay: delay, maxDelay: opts.MaxQueueDelayDays}
}

// StageDiagnostic explains the queueing picture of one stage.
type StageDiagnostic struct {
	Stage              pipeline.Stage `json:"stage"`
	Demand             int            `json:"demand"`
	ServiceRate        float64        `json:"service_rate"`
	QueueDelayDays     float64        `json:"queue_delay_days"`
	IsBottleneck       bool           `json:"is_bottleneck"`
	BottleneckOwner    OwnerType      `json:"bottleneck_owner_type,omitempty"`
	RateSource         RateSource     `json:"rate_source"`
	BaseMedianDays     float64        `json:"base_median_days"`
	AdjustedMedianDays float64        `json:"adjusted_median_days"`
}

// PenaltyResult is the per-stage queueing diagnosis for one requisition.
type PenaltyResult struct {
	Stages              []StageDiagnostic     `json:"stages"`
	TopBottlenecks      []StageDiagnostic     `json:"top_bottlenecks"`
	TotalQueueDelayDays float64               `json:"total_queue_delay_days"`
	UsedCohortFallback  bool                  `json:"used_cohort_fallback"`
	Confidence          simulation.Confidence `json:"confidence"`
	ConfidenceReasons   []string              `json:"confidence_reasons,omitempty"`
}

// Stage returns the diagnostic for s.
func (r PenaltyResult) Stage(s pipeline.Stage) (StageDiagnostic, bool) {
	for _, d := range r.Stages {
		if d.Stage == s {
			return d, true
		}
	}
	return StageDiagnostic{}, false
}

// ApplyPenalty computes queueing delay with one demand count per stage, shared by every owner.
func (m *Model) ApplyPenalty(durations map[pipeline.Stage]simulation.Distribution, demandByStage map[pipeline.Stage]int, profile Profile) PenaltyResult {
	return m.evaluate(durations, profile, func(s pipeline.Stage, _ OwnerType) int {
		return demandByStage[s]
	})
}

func (m *Model) evaluate(durations map[pipeline.Stage]simulation.Distribution, profile Profile, demandFor func(pipeline.Stage, OwnerType) int) PenaltyResult {
	res := PenaltyResult{
		Stages:            make([]StageDiagnostic, 0, len(pipeline.Simulated)),
		TopBottlenecks:    []StageDiagnostic{},
		Confidence:        profile.Confidence,
		ConfidenceReasons: profile.ConfidenceReasons,
	}

	for _, s := range pipeline.Simulated {
		diag := StageDiagnostic{Stage: s}
		var owners []OwnerType

		for i, l := range profile.lanes(s) {
			demand := demandFor(s, l.owner)
			delay := m.delay(float64(demand), l.rate)
			if l.source == SourceCohort {
				res.UsedCohortFallback = true
			}

			switch {
			case i == 0 || delay > diag.QueueDelayDays:
				diag.Demand = demand
				diag.ServiceRate = l.rate
				diag.RateSource = l.source
				diag.QueueDelayDays = delay
				owners = []OwnerType{l.owner}
			case delay == diag.QueueDelayDays && delay > 0:
				owners = append(owners, l.owner)
				if l.rate < diag.ServiceRate {
					diag.ServiceRate = l.rate
				}
			}
		}

		base := durationOf(durations, s)
		diag.BaseMedianDays = base.Median()
		diag.AdjustedMedianDays = diag.BaseMedianDays
		if diag.QueueDelayDays > 0 {
			diag.IsBottleneck = true
			diag.BottleneckOwner = owners[0]
			if len(owners) > 1 {
				diag.BottleneckOwner = OwnerBoth
			}
			diag.AdjustedMedianDays = diag.BaseMedianDays + diag.QueueDelayDays
			res.TotalQueueDelayDays += diag.QueueDelayDays
			res.TopBottlenecks = append(res.TopBottlenecks, diag)
		}
		res.Stages = append(res.Stages, diag)
	}

	sort.SliceStable(res.TopBottlenecks, func(i, j int) bool {
		return res.TopBottlenecks[i].QueueDelayDays > res.TopBottlenecks[j].QueueDelayDays
	})

	if len(res.TopBottlenecks) > 0 {
		log.Debug().
			Float64("totalDelay", res.TotalQueueDelayDays).
			Str("topStage", string(res.TopBottlenecks[0].Stage)).
			Msg("Capacity penalty computed")
	}
	return res
}

// CreateAdjustedParams returns new parameters whose bottlenecked stages dwell longer by their
// queueing delay. Other stages keep the identical distribution values of base.
func CreateAdjustedParams(base simulation.Parameters, penalty PenaltyResult) simulation.Parameters {
	out := base.Clone()
	for _, d := range penalty.Stages {
		if !d.IsBottleneck {
			continue
		}
		out.Durations[d.Stage] = durationOf(base.Durations, d.Stage).Shift(d.QueueDelayDays)
	}
	return out
}

func durationOf(durations map[pipeline.Stage]simulation.Distribution, s pipeline.Stage) simulation.Distribution {
	if d, ok := durations[s]; ok && d != nil {
		return d
	}
	return &simulation.Constant{Days: simulation.DefaultStageDays}
}

// MaxDelay is the per-stage delay ceiling.
func (m *Model) MaxDelay() float64 {
	return m.maxDelay
}
