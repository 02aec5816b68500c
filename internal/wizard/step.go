// Package wizard owns the bill-splitting flow: the ordered steps, the guarded
// state transitions, and the single-slot registry of per-step async actions.
package wizard

// Step is one stage of the bill-splitting flow.
type Step int

const (
	StepContributors Step = iota
	StepCapture
	StepEntry
	StepReviewList
	StepSummary
)

func (s Step) String() string {
	switch s {
	case StepContributors:
		return "contributors"
	case StepCapture:
		return "capture"
	case StepEntry:
		return "entry"
	case StepReviewList:
		return "review_list"
	case StepSummary:
		return "summary"
	default:
		return "unknown"
	}
}
