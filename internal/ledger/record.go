package ledger

import (
	"fmt"
	"time"

	"req-oracle/internal/simulation"
)

// Kind distinguishes the runs of a single forecast request.
type Kind string

const (
	Baseline Kind = "baseline"
	WhatIf   Kind = "what_if"
)

// Record is one issued forecast, kept so the calibration service can later compare it against
// the actual hire date.
type Record struct {
	RunID          string                `json:"run_id"`
	ReqID          string                `json:"req_id"`
	Kind           Kind                  `json:"kind"`
	Seed           string                `json:"seed"`
	PipelineHash   string                `json:"pipeline_hash"`
	AdjustmentHash string                `json:"adjustment_hash"`
	Iterations     int                   `json:"iterations"`
	StartDate      time.Time             `json:"start_date"`
	P10Date        time.Time             `json:"p10_date"`
	P50Date        time.Time             `json:"p50_date"`
	P90Date        time.Time             `json:"p90_date"`
	Confidence     simulation.Confidence `json:"confidence"`
	SuccessRate    float64               `json:"success_rate"`
	QueueDelayDays float64               `json:"queue_delay_days"`
	IssuedAt       int64                 `json:"issued_at"` // Unix microseconds
}

// NewRecord captures a simulation result for the ledger.
func NewRecord(runID, reqID string, kind Kind, start time.Time, res simulation.Result, issuedAt time.Time) Record {
	return Record{
		RunID:       runID,
		ReqID:       reqID,
		Kind:        kind,
		Seed:        res.Debug.Seed,
		Iterations:  res.Debug.Iterations,
		StartDate:   start,
		P10Date:     res.P10Date,
		P50Date:     res.P50Date,
		P90Date:     res.P90Date,
		Confidence:  res.Confidence,
		SuccessRate: res.SuccessRate,
		IssuedAt:    issuedAt.UnixMicro(),
	}
}

// identity computes a unique string identifier for a record to aid deduplication.
func (r Record) identity() string {
	return fmt.Sprintf("%s|%s", r.RunID, r.Kind)
}
