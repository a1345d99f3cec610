package mcp

// ListArgs are the arguments of list_requisitions.
type ListArgs struct {
	OpenOnly bool `json:"open_only,omitempty" jsonschema:"If true, only requisitions that still consume recruiting capacity are listed."`
}

// ReqArgs name a single requisition.
type ReqArgs struct {
	ReqID string `json:"req_id" jsonschema:"The requisition id."`
}

// ForecastArgs are the arguments of forecast_requisition.
type ForecastArgs struct {
	ReqID          string `json:"req_id" jsonschema:"The requisition id to forecast."`
	StartDate      string `json:"start_date,omitempty" jsonschema:"Optional forecast start date (YYYY-MM-DD). Default: today."`
	Iterations     int    `json:"iterations,omitempty" jsonschema:"Optional Monte Carlo iteration count. Clamped to the configured ceiling."`
	IgnoreCapacity bool   `json:"ignore_capacity,omitempty" jsonschema:"If true, skip the recruiter/hiring-manager queueing penalty."`
}

// WhatIfArgs are the arguments of forecast_what_if.
type WhatIfArgs struct {
	ReqID               string             `json:"req_id" jsonschema:"The requisition id to forecast."`
	StartDate           string             `json:"start_date,omitempty" jsonschema:"Optional forecast start date (YYYY-MM-DD). Default: today."`
	Iterations          int                `json:"iterations,omitempty" jsonschema:"Optional Monte Carlo iteration count."`
	IgnoreCapacity      bool               `json:"ignore_capacity,omitempty" jsonschema:"If true, skip the queueing penalty in both runs."`
	RateDeltas          map[string]float64 `json:"rate_deltas,omitempty" jsonschema:"Pass-rate changes per stage, e.g. {\"SCREEN\": 0.1} for +10 percentage points."`
	DurationMultipliers map[string]float64 `json:"duration_multipliers,omitempty" jsonschema:"Dwell-time multipliers per stage, e.g. {\"ONSITE\": 0.5} to halve onsite time."`
}

// ShrinkArgs are the arguments of shrink_rate.
type ShrinkArgs struct {
	Observed    float64 `json:"observed" jsonschema:"Observed pass rate in [0,1]."`
	Prior       float64 `json:"prior" jsonschema:"Prior (benchmark) pass rate in [0,1]."`
	N           int     `json:"n" jsonschema:"Number of observed samples."`
	PriorWeight float64 `json:"prior_weight,omitempty" jsonschema:"Pseudo-sample weight of the prior. Default: 5."`
}

// ReloadArgs are the (empty) arguments of reload_workload.
type ReloadArgs struct{}

func (s *Server) registerTools() {
	addTool(s, "list_requisitions",
		"List requisitions with their active candidate counts per canonical stage. Guidance: pick a req_id here before forecasting.",
		s.handleListRequisitions)

	addTool(s, "forecast_requisition",
		"Run a Monte Carlo forecast of when a requisition will be filled, given its in-flight candidates. "+
			"Returns P10/P50/P90 hire dates, a confidence level and, unless ignored, the capacity queueing penalty.\n\n"+
			"STRICT GUARDRAIL: do not invent dates or probabilities if the tool fails. "+
			"If confidence is LOW or a fallback warning is present, tell the user the forecast rests on thin data.",
		s.handleForecast)

	addTool(s, "forecast_what_if",
		"Re-run a requisition forecast with adjusted levers (pass-rate deltas, dwell-time multipliers). "+
			"Baseline and adjusted runs share the same random numbers, so the reported delta reflects only the lever change.",
		s.handleWhatIf)

	addTool(s, "analyze_capacity",
		"Explain queueing delay per stage for a requisition. Compares demand from this requisition alone with demand "+
			"across the recruiter's and hiring manager's whole workload and returns ranked recommendations.",
		s.handleAnalyzeCapacity)

	addTool(s, "get_global_demand",
		"Count active candidates per stage queued against a requisition's recruiter and hiring manager across all their open requisitions.",
		s.handleGlobalDemand)

	addTool(s, "shrink_rate",
		"Blend an observed stage pass rate with a prior, weighted by sample size (Bayesian shrinkage).",
		s.handleShrinkRate)

	addTool(s, "reload_workload",
		"Re-read the workload snapshot from disk and drop cached forecasts.",
		s.handleReload)
}
