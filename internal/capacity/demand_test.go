package capacity

import (
	"math"
	"testing"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

func workload() GlobalDemandInput {
	return GlobalDemandInput{
		SelectedReqID: "req-1",
		RecruiterID:   "r1",
		HMID:          "h1",
		Requisitions: []pipeline.Requisition{
			{ID: "req-1", Status: "open", RecruiterID: "r1", HMID: "h1"},
			{ID: "req-2", Status: "open", RecruiterID: "r1", HMID: "h2"},
			{ID: "req-3", Status: "closed", RecruiterID: "r1", HMID: "h1"},
			{ID: "req-4", Status: "open", RecruiterID: "r2", HMID: "h1"},
		},
		Candidates: []pipeline.Candidate{
			{ID: "c1", ReqID: "req-1", Stage: "SCREEN"},
			{ID: "c2", ReqID: "req-1", Stage: "onsite"},
			{ID: "c3", ReqID: "req-1", Stage: "HIRED"},
			{ID: "c4", ReqID: "req-2", Stage: "SCREEN"},
			{ID: "c5", ReqID: "req-2", Stage: "SCREEN"},
			{ID: "c6", ReqID: "req-3", Stage: "SCREEN"},
			{ID: "c7", ReqID: "req-4", Stage: "HM_SCREEN"},
			{ID: "c8", ReqID: "req-4", Stage: "REJECTED"},
			{ID: "c9", ReqID: "req-2", Stage: "banana"},
		},
	}
}

func TestComputeGlobalDemand(t *testing.T) {
	gd := ComputeGlobalDemand(workload())

	if gd.Scope != ScopeGlobalBoth {
		t.Errorf("expected scope both, got %s", gd.Scope)
	}
	if gd.RecruiterDemand[pipeline.Screen] != 3 {
		t.Errorf("expected recruiter SCREEN demand 3 (closed req excluded), got %d", gd.RecruiterDemand[pipeline.Screen])
	}
	if gd.HMDemand[pipeline.HMScreen] != 1 {
		t.Errorf("expected HM HM_SCREEN demand 1, got %d", gd.HMDemand[pipeline.HMScreen])
	}
	if gd.HMDemand[pipeline.Screen] != 1 {
		t.Errorf("expected HM SCREEN demand 1, got %d", gd.HMDemand[pipeline.Screen])
	}
	if gd.SelectedReqDemand[pipeline.Screen] != 1 || gd.SelectedReqDemand[pipeline.Onsite] != 1 {
		t.Errorf("unexpected selected req demand %v", gd.SelectedReqDemand)
	}
	if gd.RecruiterReqCount != 2 || gd.HMReqCount != 2 {
		t.Errorf("expected 2 reqs per owner, got recruiter=%d hm=%d", gd.RecruiterReqCount, gd.HMReqCount)
	}
	if gd.Confidence != simulation.ConfidenceHigh {
		t.Errorf("expected HIGH confidence, got %s", gd.Confidence)
	}
	if gd.DemandFor(pipeline.Screen, OwnerBoth) != 3 {
		t.Errorf("expected both-owner demand to take the larger side")
	}
}

func TestComputeGlobalDemand_Degraded(t *testing.T) {
	in := workload()
	in.RecruiterID = ""
	in.HMID = ""
	gd := ComputeGlobalDemand(in)

	if gd.Scope != ScopeSingleReq {
		t.Errorf("expected single_req scope, got %s", gd.Scope)
	}
	if gd.Confidence != simulation.ConfidenceLow {
		t.Errorf("expected LOW confidence, got %s", gd.Confidence)
	}
	if gd.RecruiterDemand[pipeline.Screen] != 1 {
		t.Errorf("expected demand limited to selected req, got %d", gd.RecruiterDemand[pipeline.Screen])
	}
}

func TestComputeGlobalDemand_NoActiveCandidates(t *testing.T) {
	in := workload()
	in.SelectedReqID = "req-9"
	gd := ComputeGlobalDemand(in)
	if gd.Confidence != simulation.ConfidenceLow {
		t.Errorf("expected LOW confidence for an empty requisition, got %s", gd.Confidence)
	}
}

func TestApplyPenaltyV11_GlobalDemandRaisesDelay(t *testing.T) {
	m := NewModel(ModelOptions{})
	in := workload()
	for i := 0; i < 10; i++ {
		in.Candidates = append(in.Candidates, pipeline.Candidate{ID: "x", ReqID: "req-2", Stage: "SCREEN"})
	}
	gd := ComputeGlobalDemand(in)
	p := cohortProfile()

	single := m.ApplyPenalty(nil, gd.SelectedReqDemand, p)
	global := m.ApplyPenaltyV11(nil, gd, p)

	if single.TotalQueueDelayDays != 0 {
		t.Errorf("selected req alone should not queue, got %v", single.TotalQueueDelayDays)
	}
	d, _ := global.Stage(pipeline.Screen)
	if !d.IsBottleneck || d.Demand != 13 {
		t.Fatalf("expected SCREEN bottleneck at demand 13, got %+v", d)
	}
	if global.DemandScope != ScopeGlobalBoth {
		t.Errorf("expected demand scope both, got %s", global.DemandScope)
	}
	if len(global.Recommendations) == 0 {
		t.Fatal("expected recommendations for a bottleneck")
	}

	types := map[RecommendationType]bool{}
	for i, r := range global.Recommendations {
		types[r.Type] = true
		if i > 0 && r.EstimatedImpactDays > global.Recommendations[i-1].EstimatedImpactDays {
			t.Errorf("recommendations not ranked by impact at %d", i)
		}
	}
	for _, want := range []RecommendationType{RecommendIncreaseThroughput, RecommendReassignWorkload, RecommendImproveData} {
		if !types[want] {
			t.Errorf("expected a %s recommendation", want)
		}
	}
	if global.Recommendations[0].Type != RecommendIncreaseThroughput {
		t.Errorf("expected increase_throughput first, got %s", global.Recommendations[0].Type)
	}
}

func TestApplyPenaltyV11_NoBottleneck(t *testing.T) {
	gd := ComputeGlobalDemand(workload())
	res := NewModel(ModelOptions{}).ApplyPenaltyV11(nil, gd, cohortProfile())
	if res.TotalQueueDelayDays != 0 {
		t.Errorf("expected no delay, got %v", res.TotalQueueDelayDays)
	}
	if res.Recommendations == nil {
		t.Error("recommendations should be an empty list, not nil")
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(res.Recommendations))
	}
}

func TestApplyPenaltyV11_HMScreenCohortUsesRecruiterDemand(t *testing.T) {
	in := GlobalDemandInput{
		SelectedReqID: "a",
		RecruiterID:   "r1",
		HMID:          "h1",
		Requisitions: []pipeline.Requisition{
			{ID: "a", Status: "open", RecruiterID: "r1", HMID: "h1"},
			{ID: "b", Status: "open", RecruiterID: "r1", HMID: "h2"},
		},
		Candidates: []pipeline.Candidate{
			{ID: "a1", ReqID: "a", Stage: "HM_SCREEN"},
			{ID: "b1", ReqID: "b", Stage: "HM_SCREEN"},
			{ID: "b2", ReqID: "b", Stage: "HM_SCREEN"},
			{ID: "b3", ReqID: "b", Stage: "HM_SCREEN"},
			{ID: "b4", ReqID: "b", Stage: "HM_SCREEN"},
			{ID: "b5", ReqID: "b", Stage: "HM_SCREEN"},
		},
	}
	gd := ComputeGlobalDemand(in)
	if gd.RecruiterDemand[pipeline.HMScreen] != 6 || gd.HMDemand[pipeline.HMScreen] != 1 {
		t.Fatalf("unexpected demand recruiter=%v hm=%v", gd.RecruiterDemand, gd.HMDemand)
	}

	res := NewModel(ModelOptions{}).ApplyPenaltyV11(nil, gd, ResolveProfile("r1", "h1", nil))
	d, _ := res.Stage(pipeline.HMScreen)
	if d.Demand != 6 {
		t.Errorf("expected recruiter whole-workload demand 6, got %d", d.Demand)
	}
	if d.BottleneckOwner != OwnerRecruiter {
		t.Errorf("expected recruiter-owned bottleneck, got %q", d.BottleneckOwner)
	}
	if math.Abs(d.QueueDelayDays-3.5) > 1e-9 {
		t.Errorf("expected 3.5 days of delay (6 vs 4/week), got %v", d.QueueDelayDays)
	}
}
