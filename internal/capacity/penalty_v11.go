package capacity

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// RecommendationType names a prescriptive action against a bottleneck.
type RecommendationType string

const (
	RecommendIncreaseThroughput RecommendationType = "increase_throughput"
	RecommendReassignWorkload   RecommendationType = "reassign_workload"
	RecommendReduceDemand       RecommendationType = "reduce_demand"
	RecommendImproveData        RecommendationType = "improve_data"
)

// maxRecommendations bounds the ranked list.
const maxRecommendations = 6

// Recommendation is a ranked action with its estimated effect on queueing delay.
type Recommendation struct {
	Type                RecommendationType `json:"type"`
	Stage               pipeline.Stage     `json:"stage,omitempty"`
	Owner               OwnerType          `json:"owner,omitempty"`
	Description         string             `json:"description"`
	EstimatedImpactDays float64            `json:"estimated_impact_days"`
	ShareOfDelay        float64            `json:"share_of_delay"`
}

// PenaltyResultV11 extends PenaltyResult with workload-wide demand and recommendations.
type PenaltyResultV11 struct {
	PenaltyResult
	DemandScope       DemandScope            `json:"demand_scope"`
	DemandConfidence  simulation.Confidence  `json:"demand_confidence"`
	Recommendations   []Recommendation       `json:"recommendations"`
	SelectedReqDemand map[pipeline.Stage]int `json:"selected_req_demand"`
}

// ApplyPenaltyV11 computes queueing delay using each owner's whole-workload demand: a
// recruiter-owned stage sees the recruiter's demand, an HM-owned stage the hiring manager's.
func (m *Model) ApplyPenaltyV11(durations map[pipeline.Stage]simulation.Distribution, gd GlobalDemand, profile Profile) PenaltyResultV11 {
	base := m.evaluate(durations, profile, gd.DemandFor)
	if gd.Confidence == simulation.ConfidenceLow {
		base.Confidence = simulation.ConfidenceLow
		base.ConfidenceReasons = append(slices.Clone(base.ConfidenceReasons), gd.ConfidenceReasons...)
	}

	res := PenaltyResultV11{
		PenaltyResult:     base,
		DemandScope:       gd.Scope,
		DemandConfidence:  gd.Confidence,
		SelectedReqDemand: gd.SelectedReqDemand,
	}
	res.Recommendations = m.recommend(base, gd)
	return res
}

func (m *Model) recommend(res PenaltyResult, gd GlobalDemand) []Recommendation {
	recs := []Recommendation{}
	total := res.TotalQueueDelayDays

	for _, d := range res.TopBottlenecks {
		share := 0.0
		if total > 0 {
			share = d.QueueDelayDays / total
		}
		owner := ownerLabel(d.BottleneckOwner)

		recs = append(recs, Recommendation{
			Type:  RecommendIncreaseThroughput,
			Stage: d.Stage,
			Owner: d.BottleneckOwner,
			Description: fmt.Sprintf("Raise %s %s throughput from %.1f to %d candidates/week (%.0f%% of queue delay)",
				owner, d.Stage, d.ServiceRate, d.Demand, share*100),
			EstimatedImpactDays: round1(d.QueueDelayDays),
			ShareOfDelay:        round3(share),
		})

		selected := gd.SelectedReqDemand[d.Stage]
		if others := d.Demand - selected; others > 0 && gd.Scope != ScopeSingleReq {
			remaining := m.delay(float64(selected), d.ServiceRate)
			if impact := d.QueueDelayDays - remaining; impact > 0 {
				recs = append(recs, Recommendation{
					Type:  RecommendReassignWorkload,
					Stage: d.Stage,
					Owner: d.BottleneckOwner,
					Description: fmt.Sprintf("Move %d %s candidates from this %s's other requisitions to a colleague",
						others, d.Stage, owner),
					EstimatedImpactDays: round1(impact),
					ShareOfDelay:        round3(share),
				})
			}
		}

		if selected > 0 {
			excess := int(math.Ceil(float64(d.Demand) - d.ServiceRate))
			cut := min(selected, max(excess, 0))
			if cut > 0 {
				remaining := m.delay(float64(d.Demand-cut), d.ServiceRate)
				if impact := d.QueueDelayDays - remaining; impact > 0 {
					recs = append(recs, Recommendation{
						Type:  RecommendReduceDemand,
						Stage: d.Stage,
						Owner: d.BottleneckOwner,
						Description: fmt.Sprintf("Hold %d of this requisition's %s candidates until the queue clears",
							cut, d.Stage),
						EstimatedImpactDays: round1(impact),
						ShareOfDelay:        round3(share),
					})
				}
			}
		}

		if d.RateSource == SourceCohort {
			recs = append(recs, Recommendation{
				Type:        RecommendImproveData,
				Stage:       d.Stage,
				Owner:       d.BottleneckOwner,
				Description: fmt.Sprintf("%s throughput is a cohort default; record individual %s history to confirm this bottleneck", d.Stage, owner),
			})
		}
	}

	if gd.Confidence == simulation.ConfidenceLow {
		recs = append(recs, Recommendation{
			Type:        RecommendImproveData,
			Description: "Assign a recruiter and hiring manager to the requisition so demand can be measured across their workload",
		})
	}

	priority := map[RecommendationType]int{
		RecommendIncreaseThroughput: 0,
		RecommendReassignWorkload:   1,
		RecommendReduceDemand:       2,
		RecommendImproveData:        3,
	}
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		if c := cmp.Compare(b.EstimatedImpactDays, a.EstimatedImpactDays); c != 0 {
			return c
		}
		if c := cmp.Compare(priority[a.Type], priority[b.Type]); c != 0 {
			return c
		}
		return cmp.Compare(a.Stage.Index(), b.Stage.Index())
	})

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func ownerLabel(o OwnerType) string {
	switch o {
	case OwnerHM:
		return "hiring manager"
	case OwnerBoth:
		return "recruiter and hiring manager"
	default:
		return "recruiter"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
