package mcp

import (
	"context"
	"fmt"

	"req-oracle/internal/capacity"
	"req-oracle/internal/visuals"
)

func (s *Server) handleAnalyzeCapacity(_ context.Context, in ReqArgs) (interface{}, error) {
	rep, err := s.oracle.Capacity(in.ReqID)
	if err != nil {
		return nil, err
	}

	var warnings []string
	warnings = append(warnings, rep.Global.ConfidenceReasons...)
	if rep.Global.UsedCohortFallback {
		warnings = append(warnings, "Some stages have no observed throughput; cohort defaults were used.")
	}

	var guidance []string
	extra := rep.Global.TotalQueueDelayDays - rep.SingleReq.TotalQueueDelayDays
	if extra > 0 {
		guidance = append(guidance, fmt.Sprintf("Other requisitions sharing this recruiter/hiring manager add %.1f days of queueing.", extra))
	}
	if len(rep.Global.Recommendations) > 0 {
		guidance = append(guidance, "Recommendations are ranked by estimated days saved; validate one with forecast_what_if.")
	} else {
		guidance = append(guidance, "No stage is over capacity; queueing is not what limits this requisition.")
	}

	env := WrapResponse(rep, rep.ReqID, warnings, guidance)
	if s.cfg.EnableMermaidCharts {
		if chart := visuals.GenerateBottleneckChart(rep.Global.Stages); chart != "" {
			env.Charts = map[string]string{"bottlenecks": chart}
		}
	}
	return env, nil
}

func (s *Server) handleGlobalDemand(_ context.Context, in ReqArgs) (interface{}, error) {
	gd, err := s.oracle.Demand(in.ReqID)
	if err != nil {
		return nil, err
	}
	var guidance []string
	if gd.Scope == capacity.ScopeSingleReq {
		guidance = append(guidance, "Neither recruiter nor hiring manager is known; demand covers this requisition only.")
	}
	return WrapResponse(gd, in.ReqID, gd.ConfidenceReasons, guidance), nil
}
