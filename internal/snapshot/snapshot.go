package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"req-oracle/internal/capacity"
	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension. Unknown extensions read as YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// File is the on-disk workload snapshot: the current state of requisitions and candidates
// plus the mined parameters and capacity history that feed the forecast.
type File struct {
	GeneratedAt   string                    `json:"generated_at,omitempty" yaml:"generated_at,omitempty" toml:"generated_at,omitempty"`
	Requisitions  []pipeline.Requisition    `json:"requisitions" yaml:"requisitions" toml:"requisitions"`
	Candidates    []pipeline.Candidate      `json:"candidates" yaml:"candidates" toml:"candidates"`
	Benchmarks    ParametersSpec            `json:"benchmarks" yaml:"benchmarks" toml:"benchmarks"`
	ReqParameters map[string]ParametersSpec `json:"req_parameters,omitempty" yaml:"req_parameters,omitempty" toml:"req_parameters,omitempty"`
	Capacity      []CapacitySpec            `json:"capacity,omitempty" yaml:"capacity,omitempty" toml:"capacity,omitempty"`
}

// Snapshot is a validated workload with canonical stages.
type Snapshot struct {
	Requisitions  []pipeline.Requisition
	Candidates    []pipeline.Candidate
	Benchmarks    simulation.Parameters
	ReqParameters map[string]simulation.Parameters
	Capacity      map[string]capacity.OwnerCapacity
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	log.Info().
		Str("path", path).
		Int("requisitions", len(snap.Requisitions)).
		Int("candidates", len(snap.Candidates)).
		Int("capacityProfiles", len(snap.Capacity)).
		Msg("Loaded workload snapshot")
	return snap, nil
}

// Decode parses raw snapshot bytes in the given format.
func Decode(data []byte, format Format) (*Snapshot, error) {
	var f File
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	return f.Snapshot()
}

// Encode writes a snapshot file in the given format.
func Encode(f File, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(f)
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Snapshot validates the file and converts it into domain values.
func (f File) Snapshot() (*Snapshot, error) {
	seen := make(map[string]bool, len(f.Requisitions))
	for _, r := range f.Requisitions {
		if r.ID == "" {
			return nil, fmt.Errorf("requisition without id")
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate requisition %s", r.ID)
		}
		seen[r.ID] = true
	}

	for _, c := range f.Candidates {
		if !seen[c.ReqID] {
			log.Warn().Str("candidate", c.ID).Str("req", c.ReqID).Msg("Candidate references an unknown requisition")
		}
		if _, ok := pipeline.Parse(c.Stage); !ok {
			log.Debug().Str("candidate", c.ID).Str("stage", c.Stage).Msg("Candidate stage does not map to a canonical stage")
		}
	}

	bench, err := f.Benchmarks.Parameters()
	if err != nil {
		return nil, fmt.Errorf("benchmarks: %w", err)
	}

	snap := &Snapshot{
		Requisitions:  f.Requisitions,
		Candidates:    f.Candidates,
		Benchmarks:    bench,
		ReqParameters: make(map[string]simulation.Parameters, len(f.ReqParameters)),
		Capacity:      make(map[string]capacity.OwnerCapacity, len(f.Capacity)),
	}

	for reqID, spec := range f.ReqParameters {
		p, err := spec.Parameters()
		if err != nil {
			return nil, fmt.Errorf("req_parameters[%s]: %w", reqID, err)
		}
		snap.ReqParameters[reqID] = p
	}

	for _, spec := range f.Capacity {
		oc, err := spec.OwnerCapacity()
		if err != nil {
			return nil, err
		}
		snap.Capacity[oc.PersonID] = oc
	}
	return snap, nil
}

// Requisition looks up a requisition by id.
func (s *Snapshot) Requisition(id string) (pipeline.Requisition, bool) {
	for _, r := range s.Requisitions {
		if r.ID == id {
			return r, true
		}
	}
	return pipeline.Requisition{}, false
}

// OpenRequisitions lists requisitions that still consume capacity.
func (s *Snapshot) OpenRequisitions() []pipeline.Requisition {
	var out []pipeline.Requisition
	for _, r := range s.Requisitions {
		if r.IsOpen() {
			out = append(out, r)
		}
	}
	return out
}

// CandidatesFor lists every candidate of a requisition, terminal ones included.
func (s *Snapshot) CandidatesFor(reqID string) []pipeline.Candidate {
	var out []pipeline.Candidate
	for _, c := range s.Candidates {
		if c.ReqID == reqID {
			out = append(out, c)
		}
	}
	return out
}

// ParametersFor returns the requisition's own parameters, falling back to the benchmarks.
// Benchmark rates become the priors for shrinkage and benchmark durations fill missing stages.
func (s *Snapshot) ParametersFor(reqID string) simulation.Parameters {
	own, ok := s.ReqParameters[reqID]
	if !ok {
		return s.Benchmarks.Clone()
	}

	out := own.Clone()
	for st, v := range s.Benchmarks.ConversionRates {
		if _, ok := out.PriorRates[st]; !ok {
			out.PriorRates[st] = v
		}
	}
	for st, d := range s.Benchmarks.Durations {
		if _, ok := out.Durations[st]; !ok {
			out.Durations[st] = d
		}
	}
	return out
}

// AllRequisitions lists every requisition in the snapshot.
func (s *Snapshot) AllRequisitions() []pipeline.Requisition {
	return s.Requisitions
}

// AllCandidates lists every candidate in the snapshot.
func (s *Snapshot) AllCandidates() []pipeline.Candidate {
	return s.Candidates
}

// CapacityProfiles returns the known per-person capacity keyed by person id.
func (s *Snapshot) CapacityProfiles() map[string]capacity.OwnerCapacity {
	return s.Capacity
}
