package wizard

import (
	"fmt"

	"github.com/geoklinglaw/payup/internal/ledger"
)

// State is the wizard's single shared mutable resource. All mutation goes
// through Apply; each action is synchronous and atomic, so no partial state
// is ever observable between actions.
type State struct {
	Step         Step                  `json:"step"`
	Contributors []ledger.Contributor  `json:"contributors"`
	Bills        []ledger.Bill         `json:"bills"`
	Staging      ledger.ReceiptStaging `json:"staging"`
}

// NewState returns the initial state: the contributors step with empty lists.
func NewState() State {
	return State{
		Step:         StepContributors,
		Contributors: []ledger.Contributor{},
		Bills:        []ledger.Bill{},
	}
}

// CanAdvance reports whether the forward guard for the current step is met.
// The contributors step requires at least two contributors (a split between
// fewer is vacuous); the review step requires at least one saved bill.
func (s State) CanAdvance() bool {
	switch s.Step {
	case StepContributors:
		return len(s.Contributors) >= 2
	case StepReviewList:
		return len(s.Bills) >= 1
	case StepSummary:
		return false
	default:
		return true
	}
}

// Apply dispatches an action and returns the next state. Blocked guards are
// silent no-ops: the state comes back unchanged and the caller surfaces why.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case AddContributor:
		s.Contributors = append(append([]ledger.Contributor{}, s.Contributors...), a.Contributor)
		return s
	case RemoveContributor:
		kept := make([]ledger.Contributor, 0, len(s.Contributors))
		for _, c := range s.Contributors {
			if c.ID != a.ID {
				kept = append(kept, c)
			}
		}
		s.Contributors = kept
		return s
	case Goto:
		if a.Step < StepContributors || a.Step > StepSummary {
			return s
		}
		s.Step = a.Step
		return s
	case Advance:
		if !s.CanAdvance() {
			return s
		}
		if s.Step < StepSummary {
			s.Step++
		}
		return s
	case AddBill:
		s.Bills = append(append([]ledger.Bill{}, s.Bills...), a.Bill)
		return s
	case SetReceiptStaging:
		s.Staging = a.Staging
		return s
	case Reset:
		return NewState()
	default:
		// The Action set is sealed; a new variant must be added above.
		panic(fmt.Sprintf("wizard: unhandled action %T", action))
	}
}
