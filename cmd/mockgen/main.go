package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"req-oracle/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, crunch, thin")
	out := flag.String("out", "./.cache/workload.yaml", "Output file (.yaml, .toml or .json)")
	reqs := flag.Int("reqs", 12, "Number of requisitions to generate")
	recruiters := flag.Int("recruiters", 3, "Number of recruiters")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Requisitions: *reqs,
		Recruiters:   *recruiters,
		Seed:         *seed,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Requisitions: %d, Recruiters: %d) to %s...\n", cfg.Scenario, cfg.Requisitions, cfg.Recruiters, *out)

	if err := engine.Save(*out, engine.Generate(cfg)); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
