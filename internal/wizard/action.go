package wizard

import "github.com/geoklinglaw/payup/internal/ledger"

// Action is a sealed set of state transitions. Every variant is handled in
// Apply; the unexported marker keeps the set closed so the dispatch switch
// stays exhaustive.
type Action interface {
	isAction()
}

// AddContributor appends a contributor with the given display name.
type AddContributor struct {
	Contributor ledger.Contributor
}

// RemoveContributor removes the contributor with the given id.
type RemoveContributor struct {
	ID string
}

// Goto jumps directly to a step, used by the "add another bill" and
// "view summary" flows.
type Goto struct {
	Step Step
}

// Advance attempts to move to the next step, capped at the summary step.
// Guards block the transition silently when unmet.
type Advance struct{}

// AddBill appends a saved bill to the ledger. It does not itself change step.
type AddBill struct {
	Bill ledger.Bill
}

// SetReceiptStaging replaces the transient extracted-receipt data.
type SetReceiptStaging struct {
	Staging ledger.ReceiptStaging
}

// Reset returns to the contributors step with all entity lists cleared.
type Reset struct{}

func (AddContributor) isAction()    {}
func (RemoveContributor) isAction() {}
func (Goto) isAction()              {}
func (Advance) isAction()           {}
func (AddBill) isAction()           {}
func (SetReceiptStaging) isAction() {}
func (Reset) isAction()             {}

