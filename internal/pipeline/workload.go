package pipeline

import "strings"

// Requisition is an open or closed job requisition and the people who own its pipeline.
type Requisition struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
	RecruiterID string `json:"recruiter_id,omitempty" yaml:"recruiter_id,omitempty" toml:"recruiter_id,omitempty"`
	HMID        string `json:"hm_id,omitempty" yaml:"hm_id,omitempty" toml:"hm_id,omitempty"`
}

// IsOpen reports whether the requisition still consumes recruiting capacity.
// A blank status counts as open.
func (r Requisition) IsOpen() bool {
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case "closed", "filled", "cancelled", "canceled", "archived":
		return false
	default:
		return true
	}
}

// Candidate is a person in a requisition's pipeline. Stage is the raw source label.
type Candidate struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	ReqID  string `json:"req_id" yaml:"req_id" toml:"req_id"`
	Stage  string `json:"stage" yaml:"stage" toml:"stage"`
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
}

// ActiveStage returns the canonical stage of an in-flight candidate. Terminal and unmappable
// candidates report false.
func (c Candidate) ActiveStage() (Stage, bool) {
	s, ok := Parse(c.Stage)
	if !ok || !s.IsActive() {
		return "", false
	}
	return s, true
}
