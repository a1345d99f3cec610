package pipeline

import "strings"

// Stage is a canonical recruiting pipeline stage.
type Stage string

const (
	Screen    Stage = "SCREEN"
	HMScreen  Stage = "HM_SCREEN"
	Onsite    Stage = "ONSITE"
	Offer     Stage = "OFFER"
	Hired     Stage = "HIRED"
	Rejected  Stage = "REJECTED"
	Withdrawn Stage = "WITHDRAWN"
)

// Ordered is the forward-only progression of a candidate. Rejected and Withdrawn sit outside it.
var Ordered = []Stage{Screen, HMScreen, Onsite, Offer, Hired}

// Simulated are the stages a candidate must pass before being hired.
var Simulated = []Stage{Screen, HMScreen, Onsite, Offer}

// Index returns the position of s in Ordered, or -1 for terminal outcomes and unknown values.
func (s Stage) Index() int {
	for i, o := range Ordered {
		if o == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether a candidate at s is no longer in flight.
func (s Stage) IsTerminal() bool {
	return s == Hired || s == Rejected || s == Withdrawn
}

// IsActive reports whether s is one of the in-flight stages.
func (s Stage) IsActive() bool {
	return s.Index() >= 0 && !s.IsTerminal()
}

func (s Stage) String() string {
	return string(s)
}

var aliases = map[string]Stage{
	"SCREEN":                Screen,
	"SCREENING":             Screen,
	"PHONE_SCREEN":          Screen,
	"RECRUITER_SCREEN":      Screen,
	"APPLIED":               Screen,
	"HM_SCREEN":             HMScreen,
	"HMSCREEN":              HMScreen,
	"HIRING_MANAGER_SCREEN": HMScreen,
	"HIRING_MANAGER":        HMScreen,
	"MANAGER_SCREEN":        HMScreen,
	"ONSITE":                Onsite,
	"ON_SITE":               Onsite,
	"ONSITE_INTERVIEW":      Onsite,
	"INTERVIEW":             Onsite,
	"FINAL_INTERVIEW":       Onsite,
	"LOOP":                  Onsite,
	"OFFER":                 Offer,
	"OFFER_EXTENDED":        Offer,
	"OFFER_PENDING":         Offer,
	"HIRED":                 Hired,
	"OFFER_ACCEPTED":        Hired,
	"REJECTED":              Rejected,
	"DECLINED":              Rejected,
	"OFFER_DECLINED":        Rejected,
	"WITHDRAWN":             Withdrawn,
	"WITHDREW":              Withdrawn,
	"CANDIDATE_WITHDREW":    Withdrawn,
}

// Parse maps a raw stage label from any data source onto a canonical Stage.
// Case, surrounding whitespace, and space/hyphen separators are ignored.
func Parse(raw string) (Stage, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	s, ok := aliases[key]
	return s, ok
}
