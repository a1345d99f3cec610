package mcp

import (
	"context"
	"fmt"
	"sort"

	"req-oracle/internal/oracle"

	"github.com/rs/zerolog/log"
)

func (s *Server) handleListRequisitions(_ context.Context, in ListArgs) (interface{}, error) {
	all := s.oracle.Requisitions()
	out := make([]oracle.RequisitionSummary, 0, len(all))
	for _, r := range all {
		if in.OpenOnly && !r.Open {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Open != out[j].Open {
			return out[i].Open
		}
		return out[i].ID < out[j].ID
	})

	var guidance []string
	if len(out) == 0 {
		guidance = append(guidance, "No requisitions found. Check SNAPSHOT_PATH and call reload_workload.")
	} else {
		guidance = append(guidance, "Call forecast_requisition with a req_id to get P10/P50/P90 hire dates.")
	}
	return WrapResponse(out, "", nil, guidance), nil
}

func (s *Server) handleReload(_ context.Context, _ ReloadArgs) (interface{}, error) {
	if s.load == nil {
		return nil, fmt.Errorf("workload reload is not configured")
	}
	w, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("failed to reload workload: %w", err)
	}
	s.oracle.SetWorkload(w)

	open := len(w.OpenRequisitions())
	log.Info().Int("open_requisitions", open).Msg("Workload reloaded")
	return WrapResponse(map[string]interface{}{
		"requisitions":      len(w.AllRequisitions()),
		"open_requisitions": open,
		"candidates":        len(w.AllCandidates()),
	}, "", nil, []string{"Cached forecasts were dropped; subsequent forecasts use the new snapshot."}), nil
}
