package contracts

import "strings"

// Step 정의 (SSOT)
// Every log line, session status key and preview request uses these constants.
//
// Pipeline flow:
//   lifecycle → opportunity → offers → launch

// Step represents a pipeline step
type Step string

const (
	// StepLifecycle classifies every subscriber into a lifecycle stage.
	// Location: internal/s1_lifecycle/
	StepLifecycle Step = "lifecycle"

	// StepOpportunity assigns a strategy per (subscriber, LOB).
	// Location: internal/s2_opportunity/
	StepOpportunity Step = "opportunity"

	// StepOffers generates offer text per opportunity.
	// Location: internal/s3_offers/
	StepOffers Step = "offers"

	// StepLaunch freezes the offers table as the export artifact.
	// Location: internal/s4_launch/
	StepLaunch Step = "launch"
)

// String returns the step name
func (s Step) String() string {
	return string(s)
}

// Title returns the display name used in client-facing messages
func (s Step) Title() string {
	switch s {
	case StepLifecycle:
		return "Lifecycle"
	case StepOpportunity:
		return "Opportunity"
	case StepOffers:
		return "Offers"
	case StepLaunch:
		return "Launch"
	default:
		return "Unknown"
	}
}

// Prerequisite returns the step that must be completed first.
// The second return value is false for steps without a prerequisite.
func (s Step) Prerequisite() (Step, bool) {
	switch s {
	case StepOpportunity:
		return StepLifecycle, true
	case StepOffers:
		return StepOpportunity, true
	case StepLaunch:
		return StepOffers, true
	default:
		return "", false
	}
}

// Downstream returns every step computed from this step's output, in order
func (s Step) Downstream() []Step {
	all := AllSteps()
	for i, step := range all {
		if step == s {
			return all[i+1:]
		}
	}
	return nil
}

// AllSteps returns all pipeline steps in order
func AllSteps() []Step {
	return []Step{
		StepLifecycle,
		StepOpportunity,
		StepOffers,
		StepLaunch,
	}
}

// ParseStep trims and lowercases s and checks it against the known steps
func ParseStep(s string) (Step, bool) {
	candidate := Step(strings.ToLower(strings.TrimSpace(s)))
	for _, step := range AllSteps() {
		if step == candidate {
			return step, true
		}
	}
	return "", false
}

// StepResult is returned to the caller after a step run
type StepResult struct {
	OK         bool   `json:"ok"`
	Step       Step   `json:"step"`
	SessionID  string `json:"session_id"`
	Rows       int    `json:"rows"`
	DurationMS int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}
