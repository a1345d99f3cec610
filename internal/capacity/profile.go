package capacity

import (
	"fmt"

	"req-oracle/internal/pipeline"
	"req-oracle/internal/simulation"
)

// OwnerType names who a stage's capacity belongs to.
type OwnerType string

const (
	OwnerRecruiter OwnerType = "recruiter"
	OwnerHM        OwnerType = "hm"
	OwnerBoth      OwnerType = "both"
)

// RateSource tells whether a service rate came from the person's own history.
type RateSource string

const (
	SourceIndividual RateSource = "individual"
	SourceCohort     RateSource = "cohort"
)

// CohortRecruiterThroughput is the cohort-wide candidates processed per week by a recruiter.
var CohortRecruiterThroughput = map[pipeline.Stage]float64{
	pipeline.Screen:   8,
	pipeline.HMScreen: 4,
	pipeline.Onsite:   3,
	pipeline.Offer:    1.5,
}

// CohortHMThroughput is the cohort-wide candidates processed per week by a hiring manager.
var CohortHMThroughput = map[pipeline.Stage]float64{
	pipeline.HMScreen: 4,
	pipeline.Onsite:   3,
}

// OwnerCapacity is one person's observed throughput per stage per week, as supplied by the
// capacity-inference service.
type OwnerCapacity struct {
	PersonID          string                     `json:"person_id" yaml:"person_id" toml:"person_id"`
	ThroughputPerWeek map[pipeline.Stage]float64 `json:"throughput_per_week" yaml:"-" toml:"-"`
	Confidence        simulation.Confidence      `json:"confidence" yaml:"confidence" toml:"confidence"`
	ConfidenceReasons []string                   `json:"confidence_reasons,omitempty" yaml:"confidence_reasons,omitempty" toml:"confidence_reasons,omitempty"`
}

// usable reports whether the record carries enough individual data to trust.
func (o *OwnerCapacity) usable() bool {
	return o != nil && len(o.ThroughputPerWeek) > 0 && o.Confidence != simulation.ConfidenceLow
}

func (o *OwnerCapacity) rate(s pipeline.Stage) (float64, bool) {
	if !o.usable() {
		return 0, false
	}
	r, ok := o.ThroughputPerWeek[s]
	return r, ok
}

// Profile is the resolved capacity picture for one requisition's recruiter and hiring manager.
// Recruiter and HM are nil when that party has no usable individual data.
type Profile struct {
	RecruiterID        string                `json:"recruiter_id,omitempty"`
	HMID               string                `json:"hm_id,omitempty"`
	Recruiter          *OwnerCapacity        `json:"recruiter,omitempty"`
	HM                 *OwnerCapacity        `json:"hm,omitempty"`
	UsedCohortFallback bool                  `json:"used_cohort_fallback"`
	Confidence         simulation.Confidence `json:"confidence"`
	ConfidenceReasons  []string              `json:"confidence_reasons,omitempty"`
}

// ResolveProfile looks up individual capacity for the recruiter and hiring manager. Parties
// without usable data fall back to cohort defaults and set UsedCohortFallback.
func ResolveProfile(recruiterID, hmID string, known map[string]OwnerCapacity) Profile {
	p := Profile{RecruiterID: recruiterID, HMID: hmID}

	lookup := func(role, id string) *OwnerCapacity {
		if id == "" {
			p.ConfidenceReasons = append(p.ConfidenceReasons, fmt.Sprintf("No %s assigned; using cohort defaults", role))
			return nil
		}
		oc, ok := known[id]
		if !ok {
			p.ConfidenceReasons = append(p.ConfidenceReasons, fmt.Sprintf("No capacity history for %s %s; using cohort defaults", role, id))
			return nil
		}
		if !oc.usable() {
			p.ConfidenceReasons = append(p.ConfidenceReasons, fmt.Sprintf("Capacity history for %s %s is too sparse; using cohort defaults", role, id))
			return nil
		}
		return &oc
	}

	p.Recruiter = lookup("recruiter", recruiterID)
	p.HM = lookup("hiring manager", hmID)
	p.UsedCohortFallback = p.Recruiter == nil || p.HM == nil

	switch {
	case p.Recruiter != nil && p.HM != nil:
		p.Confidence = minConfidence(p.Recruiter.Confidence, p.HM.Confidence)
	case p.Recruiter != nil || p.HM != nil:
		p.Confidence = simulation.ConfidenceMedium
	default:
		p.Confidence = simulation.ConfidenceLow
	}
	return p
}

type lane struct {
	owner  OwnerType
	rate   float64
	source RateSource
}

// lanes lists who serves stage s and at what weekly rate.
// HM_SCREEN belongs to the hiring manager when HM data exists, else to the recruiter;
// ONSITE is shared and constrained by the slower party.
func (p Profile) lanes(s pipeline.Stage) []lane {
	switch s {
	case pipeline.Screen, pipeline.Offer:
		if r, ok := p.Recruiter.rate(s); ok {
			return []lane{{OwnerRecruiter, r, SourceIndividual}}
		}
		return []lane{{OwnerRecruiter, CohortRecruiterThroughput[s], SourceCohort}}
	case pipeline.HMScreen:
		if r, ok := p.HM.rate(s); ok {
			return []lane{{OwnerHM, r, SourceIndividual}}
		}
		if r, ok := p.Recruiter.rate(s); ok {
			return []lane{{OwnerRecruiter, r, SourceIndividual}}
		}
		return []lane{{OwnerRecruiter, CohortRecruiterThroughput[s], SourceCohort}}
	case pipeline.Onsite:
		var out []lane
		if r, ok := p.HM.rate(s); ok {
			out = append(out, lane{OwnerHM, r, SourceIndividual})
		}
		if r, ok := p.Recruiter.rate(s); ok {
			out = append(out, lane{OwnerRecruiter, r, SourceIndividual})
		}
		if len(out) == 0 {
			out = append(out, lane{OwnerBoth, CohortHMThroughput[s], SourceCohort})
		}
		return out
	default:
		return nil
	}
}

func minConfidence(a, b simulation.Confidence) simulation.Confidence {
	rank := map[simulation.Confidence]int{
		simulation.ConfidenceLow:    0,
		simulation.ConfidenceMedium: 1,
		simulation.ConfidenceHigh:   2,
	}
	if rank[a] <= rank[b] {
		return a
	}
	return b
}
