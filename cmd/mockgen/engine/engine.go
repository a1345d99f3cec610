package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/snapshot"

	"github.com/google/uuid"
)

// GeneratorConfig drives synthetic workload generation.
type GeneratorConfig struct {
	// Scenario is "mild", "crunch" (an overloaded recruiter) or "thin" (little history).
	Scenario     string
	Requisitions int
	Recruiters   int
	Seed         uint64
	Now          time.Time
}

// stageMix is the share of in-flight candidates per stage; the rest are terminal.
var stageMix = []struct {
	label string
	share float64
}{
	{"Applied", 0.25},
	{"Phone Screen", 0.20},
	{"Hiring Manager Screen", 0.15},
	{"Onsite Interview", 0.12},
	{"Offer Extended", 0.05},
	{"Rejected", 0.15},
	{"Withdrawn", 0.05},
	{"Offer Accepted", 0.03},
}

var candidateNS = uuid.MustParse("6f1c2a8e-3b7d-4e0a-9f51-2d8c7b4a1e90")

// Generate builds a synthetic workload snapshot. Identical configs produce identical files.
func Generate(cfg GeneratorConfig) snapshot.File {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Requisitions <= 0 {
		cfg.Requisitions = 12
	}
	if cfg.Recruiters <= 0 {
		cfg.Recruiters = 3
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	f := snapshot.File{
		GeneratedAt:   cfg.Now.UTC().Format(time.RFC3339),
		Benchmarks:    benchmarks(cfg.Scenario),
		ReqParameters: map[string]snapshot.ParametersSpec{},
	}

	for i := 0; i < cfg.Requisitions; i++ {
		recruiter := fmt.Sprintf("rec-%d", i%cfg.Recruiters+1)
		if cfg.Scenario == "crunch" && i%2 == 0 {
			recruiter = "rec-1"
		}
		req := pipeline.Requisition{
			ID:          fmt.Sprintf("REQ-%03d", i+1),
			Title:       fmt.Sprintf("Engineer %d", i+1),
			Status:      "open",
			RecruiterID: recruiter,
			HMID:        fmt.Sprintf("hm-%d", i%(cfg.Recruiters*2)+1),
		}
		if i%7 == 6 {
			req.Status = "filled"
		}
		f.Requisitions = append(f.Requisitions, req)

		size := 2 + rng.IntN(10)
		if cfg.Scenario == "crunch" && req.RecruiterID == "rec-1" {
			size += 8
		}
		for j := 0; j < size; j++ {
			name := fmt.Sprintf("%s/%d", req.ID, j)
			f.Candidates = append(f.Candidates, pipeline.Candidate{
				ID:     uuid.NewSHA1(candidateNS, []byte(name)).String(),
				ReqID:  req.ID,
				Stage:  pickStage(rng),
				Source: []string{"referral", "inbound", "sourced"}[rng.IntN(3)],
			})
		}

		if cfg.Scenario != "thin" && rng.Float64() < 0.5 {
			f.ReqParameters[req.ID] = reqParameters(rng)
		}
	}

	for r := 1; r <= cfg.Recruiters; r++ {
		if cfg.Scenario == "thin" && r > 1 {
			break
		}
		f.Capacity = append(f.Capacity, snapshot.CapacitySpec{
			PersonID:   fmt.Sprintf("rec-%d", r),
			Confidence: "MEDIUM",
			ThroughputPerWeek: map[string]float64{
				"SCREEN":    round1(6 + rng.Float64()*6),
				"HM_SCREEN": round1(3 + rng.Float64()*3),
				"ONSITE":    round1(2 + rng.Float64()*2),
				"OFFER":     round1(1 + rng.Float64()),
			},
		})
	}
	return f
}

func pickStage(rng *rand.Rand) string {
	u := rng.Float64()
	acc := 0.0
	for _, m := range stageMix {
		acc += m.share
		if u < acc {
			return m.label
		}
	}
	return stageMix[len(stageMix)-1].label
}

func benchmarks(scenario string) snapshot.ParametersSpec {
	n := 60
	if scenario == "thin" {
		n = 4
	}
	return snapshot.ParametersSpec{
		ConversionRates: map[string]float64{"SCREEN": 0.45, "HM_SCREEN": 0.55, "ONSITE": 0.35, "OFFER": 0.85},
		Durations: map[string]snapshot.DistributionSpec{
			"SCREEN":    {Type: snapshot.KindLogNormal, Mu: math.Log(5), Sigma: 0.5},
			"HM_SCREEN": {Type: snapshot.KindLogNormal, Mu: math.Log(7), Sigma: 0.6},
			"ONSITE":    {Type: snapshot.KindLogNormal, Mu: math.Log(10), Sigma: 0.5},
			"OFFER": {Type: snapshot.KindEmpirical, Buckets: []snapshot.BucketSpec{
				{Days: 3, Probability: 0.4},
				{Days: 7, Probability: 0.4},
				{Days: 14, Probability: 0.2},
			}},
		},
		SampleSizes: map[string]int{"SCREEN": n, "HM_SCREEN": n, "ONSITE": n, "OFFER": n},
	}
}

// reqParameters gives a requisition its own thin history, which the engine shrinks toward the benchmarks.
func reqParameters(rng *rand.Rand) snapshot.ParametersSpec {
	return snapshot.ParametersSpec{
		ConversionRates: map[string]float64{
			"SCREEN": round2(0.3 + rng.Float64()*0.4),
			"ONSITE": round2(0.2 + rng.Float64()*0.4),
		},
		SampleSizes: map[string]int{"SCREEN": 3 + rng.IntN(20), "ONSITE": 2 + rng.IntN(10)},
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Save writes the snapshot to path, picking the encoding from its extension.
func Save(path string, f snapshot.File) error {
	data, err := snapshot.Encode(f, snapshot.FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
