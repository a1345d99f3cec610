package oracle

import (
	"time"

	"req-oracle/internal/capacity"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// Workload is the current recruiting state the service forecasts against.
type Workload interface {
	Requisition(id string) (pipeline.Requisition, bool)
	AllRequisitions() []pipeline.Requisition
	OpenRequisitions() []pipeline.Requisition
	CandidatesFor(reqID string) []pipeline.Candidate
	AllCandidates() []pipeline.Candidate
	ParametersFor(reqID string) simulation.Parameters
	CapacityProfiles() map[string]capacity.OwnerCapacity
}

// Request asks for a hire-date forecast of one requisition.
type Request struct {
	ReqID string
	// StartDate defaults to today.
	StartDate time.Time
	// Iterations defaults to the service setting.
	Iterations int
	// Levers, when set, produce a what-if run sharing the baseline's randomness.
	Levers simulation.Levers
	// IgnoreCapacity skips the queueing penalty.
	IgnoreCapacity bool
}

// Delta is what-if minus baseline.
type Delta struct {
	P10Days     int     `json:"p10_days"`
	P50Days     int     `json:"p50_days"`
	P90Days     int     `json:"p90_days"`
	SuccessRate float64 `json:"success_rate"`
}

// Forecast is the orchestrated answer for one requisition.
type Forecast struct {
	RunID             string                     `json:"run_id"`
	ReqID             string                     `json:"req_id"`
	StartDate         time.Time                  `json:"start_date"`
	Seed              string                     `json:"seed"`
	PipelineHash      string                     `json:"pipeline_hash"`
	ActiveCandidates  int                        `json:"active_candidates"`
	ExcludedStages    []string                   `json:"excluded_stages,omitempty"`
	Baseline          simulation.Result          `json:"baseline"`
	WhatIf            *simulation.Result         `json:"what_if,omitempty"`
	Delta             *Delta                     `json:"delta,omitempty"`
	Capacity          *capacity.PenaltyResultV11 `json:"capacity,omitempty"`
	BaselineFromCache bool                       `json:"baseline_from_cache"`
	WhatIfFromCache   bool                       `json:"what_if_from_cache,omitempty"`
}

// RequisitionSummary is a list entry for an open or closed requisition.
type RequisitionSummary struct {
	pipeline.Requisition
	Open             bool                   `json:"open"`
	ActiveCandidates int                    `json:"active_candidates"`
	ByStage          map[pipeline.Stage]int `json:"by_stage"`
}

// CapacityReport explains a requisition's queueing picture.
type CapacityReport struct {
	ReqID     string                    `json:"req_id"`
	Profile   capacity.Profile          `json:"profile"`
	Demand    capacity.GlobalDemand     `json:"demand"`
	SingleReq capacity.PenaltyResult    `json:"single_req_penalty"`
	Global    capacity.PenaltyResultV11 `json:"global_penalty"`
}
