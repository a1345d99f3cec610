package capacity

import (
	"fmt"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// DemandScope tells how widely demand was aggregated.
type DemandScope string

const (
	ScopeSingleReq         DemandScope = "single_req"
	ScopeGlobalByRecruiter DemandScope = "global_by_recruiter"
	ScopeGlobalByHM        DemandScope = "global_by_hm"
	ScopeGlobalBoth        DemandScope = "both"
)

// GlobalDemandInput is the current workload state used to aggregate demand.
type GlobalDemandInput struct {
	SelectedReqID string
	RecruiterID   string
	HMID          string
	Requisitions  []pipeline.Requisition
	Candidates    []pipeline.Candidate
}

// GlobalDemand is per-stage active candidate counts queued against a recruiter and a hiring
// manager across their whole open workload. It is recomputed on every request.
type GlobalDemand struct {
	RecruiterID       string                 `json:"recruiter_id,omitempty"`
	HMID              string                 `json:"hm_id,omitempty"`
	RecruiterDemand   map[pipeline.Stage]int `json:"recruiter_demand"`
	HMDemand          map[pipeline.Stage]int `json:"hm_demand"`
	SelectedReqDemand map[pipeline.Stage]int `json:"selected_req_demand"`
	RecruiterReqCount int                    `json:"recruiter_req_count"`
	HMReqCount        int                    `json:"hm_req_count"`
	Scope             DemandScope            `json:"demand_scope"`
	Confidence        simulation.Confidence  `json:"confidence"`
	ConfidenceReasons []string               `json:"confidence_reasons,omitempty"`
}

// ComputeGlobalDemand counts active (non-terminal, mappable) candidates per stage across every
// open requisition owned by the recruiter and by the hiring manager. A missing owner id
// degrades that side to the selected requisition alone.
func ComputeGlobalDemand(in GlobalDemandInput) GlobalDemand {
	gd := GlobalDemand{
		RecruiterID: in.RecruiterID,
		HMID:        in.HMID,
	}

	byReq := make(map[string]map[pipeline.Stage]int)
	for _, c := range in.Candidates {
		s, ok := c.ActiveStage()
		if !ok {
			continue
		}
		if byReq[c.ReqID] == nil {
			byReq[c.ReqID] = make(map[pipeline.Stage]int)
		}
		byReq[c.ReqID][s]++
	}

	gd.SelectedReqDemand = sumStages(byReq, []string{in.SelectedReqID})

	ownedBy := func(match func(pipeline.Requisition) bool) []string {
		ids := []string{in.SelectedReqID}
		for _, r := range in.Requisitions {
			if r.ID == in.SelectedReqID || !r.IsOpen() || !match(r) {
				continue
			}
			ids = append(ids, r.ID)
		}
		return ids
	}

	if in.RecruiterID != "" {
		reqs := ownedBy(func(r pipeline.Requisition) bool { return r.RecruiterID == in.RecruiterID })
		gd.RecruiterDemand = sumStages(byReq, reqs)
		gd.RecruiterReqCount = len(reqs)
	} else {
		gd.RecruiterDemand = sumStages(byReq, []string{in.SelectedReqID})
		gd.RecruiterReqCount = 1
	}

	if in.HMID != "" {
		reqs := ownedBy(func(r pipeline.Requisition) bool { return r.HMID == in.HMID })
		gd.HMDemand = sumStages(byReq, reqs)
		gd.HMReqCount = len(reqs)
	} else {
		gd.HMDemand = sumStages(byReq, []string{in.SelectedReqID})
		gd.HMReqCount = 1
	}

	switch {
	case in.RecruiterID != "" && in.HMID != "":
		gd.Scope = ScopeGlobalBoth
	case in.RecruiterID != "":
		gd.Scope = ScopeGlobalByRecruiter
	case in.HMID != "":
		gd.Scope = ScopeGlobalByHM
	default:
		gd.Scope = ScopeSingleReq
	}

	selectedActive := 0
	for _, n := range gd.SelectedReqDemand {
		selectedActive += n
	}

	gd.Confidence = simulation.ConfidenceMedium
	if in.RecruiterID == "" && in.HMID == "" {
		gd.Confidence = simulation.ConfidenceLow
		gd.ConfidenceReasons = append(gd.ConfidenceReasons, "Neither recruiter nor hiring manager is known; demand covers the selected requisition only")
	}
	if selectedActive == 0 {
		gd.Confidence = simulation.ConfidenceLow
		gd.ConfidenceReasons = append(gd.ConfidenceReasons, fmt.Sprintf("Requisition %s has no active candidates", in.SelectedReqID))
	}
	if gd.Confidence != simulation.ConfidenceLow && in.RecruiterID != "" && in.HMID != "" &&
		(gd.RecruiterReqCount > 1 || gd.HMReqCount > 1) {
		gd.Confidence = simulation.ConfidenceHigh
	}
	if gd.Confidence == simulation.ConfidenceMedium {
		gd.ConfidenceReasons = append(gd.ConfidenceReasons, "Demand covers a single owner or a single requisition")
	}

	return gd
}

// DemandFor returns the demand queued against owner at stage s.
func (gd GlobalDemand) DemandFor(s pipeline.Stage, owner OwnerType) int {
	switch owner {
	case OwnerRecruiter:
		return gd.RecruiterDemand[s]
	case OwnerHM:
		return gd.HMDemand[s]
	default:
		return max(gd.RecruiterDemand[s], gd.HMDemand[s])
	}
}

func sumStages(byReq map[string]map[pipeline.Stage]int, reqIDs []string) map[pipeline.Stage]int {
	out := make(map[pipeline.Stage]int, len(pipeline.Simulated))
	for _, s := range pipeline.Simulated {
		out[s] = 0
	}
	for _, id := range reqIDs {
		for s, n := range byReq[id] {
			out[s] += n
		}
	}
	return out
}
