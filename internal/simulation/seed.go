package simulation

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"req-oracle/internal/pipeline"
)

// ComputeStableSeed derives the seed of a requisition forecast from its identity, the
// composition of its pipeline and the iteration count.
//
// It must never take what-if lever values as input: baseline and adjusted runs share one
// random sequence so that their difference reflects only the parameter change.
func ComputeStableSeed(reqID, pipelineHash string, iterations int) string {
	return fmt.Sprintf("oracle:%s:%s:%d", reqID, pipelineHash, iterations)
}

// PipelineHash fingerprints a set of candidates independent of their order.
func PipelineHash(candidates []PipelineCandidate) string {
	entries := make([]string, 0, len(candidates))
	for _, c := range candidates {
		stage := strings.ToLower(strings.TrimSpace(c.Stage))
		if s, ok := pipeline.Parse(c.Stage); ok {
			stage = string(s)
		}
		entries = append(entries, c.ID+"="+stage)
	}
	slices.Sort(entries)

	h := fnv.New64a()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
