package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geoklinglaw/payup/internal/ledger"
	"github.com/geoklinglaw/payup/internal/scanning"
	"github.com/geoklinglaw/payup/internal/settle"
	"github.com/geoklinglaw/payup/internal/wizard"
)

// DraftItem is one editable row of a bill draft.
type DraftItem struct {
	Label     string   `json:"label"`
	UnitPrice float64  `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Assignees []string `json:"assignees"`
}

// BillDraft is a bill being edited at the entry step. Saving it produces an
// immutable ledger bill; a rejected draft stays editable.
type BillDraft struct {
	Name    string      `json:"name"`
	HostID  string      `json:"host_id"`
	TaxRate float64     `json:"tax_rate"`
	Items   []DraftItem `json:"items"`
}

// SummaryResult is the settlement output at the summary step.
type SummaryResult struct {
	Lines []settle.Line `json:"lines"`
	Text  string        `json:"text"`
}

// Service drives one bill-splitting session. It owns the wizard controller,
// registers the capture step's extraction action and the entry step's save
// action, and reads the accumulated ledger for the final settlement.
type Service struct {
	ctrl    *wizard.Controller
	scanner scanning.Scanner
	spool   Spool
}

// NewService creates a session service.
func NewService(scanner scanning.Scanner, spool Spool) *Service {
	return &Service{
		ctrl:    wizard.NewController(),
		scanner: scanner,
		spool:   spool,
	}
}

// State returns a snapshot of the wizard state.
func (s *Service) State() wizard.State {
	return s.ctrl.State()
}

// AddContributor creates a contributor and appends it to the session.
func (s *Service) AddContributor(name string) (wizard.State, error) {
	c, err := ledger.NewContributor(name)
	if err != nil {
		return s.ctrl.State(), err
	}
	return s.ctrl.Dispatch(wizard.AddContributor{Contributor: c}), nil
}

// RemoveContributor removes a contributor by id.
func (s *Service) RemoveContributor(id string) wizard.State {
	return s.ctrl.Dispatch(wizard.RemoveContributor{ID: id})
}

// AttachSnapshot stores the pending receipt image and registers the capture
// step's extraction action. Invoking the action calls the scanner, maps the
// result into receipt staging, and clears the spool; a failed extraction
// leaves staging and the spool untouched so the user can retry.
func (s *Service) AttachSnapshot(data []byte, contentType string) error {
	if err := s.spool.Put(data, contentType); err != nil {
		return fmt.Errorf("spooling snapshot: %w", err)
	}

	s.ctrl.Register(wizard.HandlerExtract, func(ctx context.Context) (bool, error) {
		if s.scanner == nil {
			return false, ErrNoScanner
		}
		image, mime, err := s.spool.Get()
		if err != nil {
			return false, err
		}
		receipt, err := s.scanner.Extract(ctx, image, mime)
		if err != nil {
			slog.Error("receipt extraction failed", "content_type", mime, "image_size", len(image), "error", err)
			return false, fmt.Errorf("extracting receipt: %w", err)
		}
		s.ctrl.Dispatch(wizard.SetReceiptStaging{Staging: stagingFromReceipt(receipt)})
		if err := s.spool.Clear(); err != nil {
			slog.Warn("failed to clear snapshot spool", "error", err)
		}
		slog.Info("receipt extracted", "merchant", receipt.Merchant, "items", len(receipt.LineItems), "total", receipt.Total)
		return true, nil
	})
	return nil
}

// StageDraft registers the entry step's save action for the given draft.
// Invoking the action validates the draft against the contributors present
// at save time and appends the resulting bill; a validation failure blocks
// the save and leaves the wizard at the entry step.
func (s *Service) StageDraft(draft BillDraft) {
	s.ctrl.Register(wizard.HandlerSave, func(ctx context.Context) (bool, error) {
		state := s.ctrl.State()
		items := make([]ledger.LineItem, 0, len(draft.Items))
		for _, it := range draft.Items {
			items = append(items, ledger.NewLineItem(it.Label, it.UnitPrice, it.Quantity, it.Assignees))
		}
		bill, err := ledger.NewBill(draft.Name, draft.HostID, draft.TaxRate, items, state.Contributors)
		if err != nil {
			return false, err
		}
		s.ctrl.Dispatch(wizard.AddBill{Bill: bill})
		slog.Info("bill saved", "bill", bill.Name, "items", len(bill.Items), "host", bill.HostID)
		return true, nil
	})
}

// DraftFromStaging seeds an editable draft from the extracted receipt: each
// staged item resolves to a unit price and quantity, the merchant becomes
// the bill name, and the tax rate is inferred from subtotal and total.
func (s *Service) DraftFromStaging() BillDraft {
	state := s.ctrl.State()
	staging := state.Staging

	draft := BillDraft{
		Name:    staging.Meta.Merchant,
		TaxRate: ledger.InferTaxRate(staging.Meta),
	}
	if len(state.Contributors) > 0 {
		draft.HostID = state.Contributors[0].ID
	}
	for _, it := range staging.Items {
		unitPrice, quantity := ledger.ResolveUnitPrice(it)
		draft.Items = append(draft.Items, DraftItem{
			Label:     it.Description,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			Assignees: []string{},
		})
	}
	return draft
}

// Advance runs the active step's registered action, if any, and moves the
// wizard forward on success.
func (s *Service) Advance(ctx context.Context) (wizard.State, error) {
	return s.ctrl.Advance(ctx)
}

// Goto jumps directly to a step.
func (s *Service) Goto(step wizard.Step) wizard.State {
	return s.ctrl.Dispatch(wizard.Goto{Step: step})
}

// Reset replaces the session with a fresh one: state, handler registrations
// and the snapshot spool are all cleared.
func (s *Service) Reset() wizard.State {
	if err := s.spool.Clear(); err != nil {
		slog.Warn("failed to clear snapshot spool", "error", err)
	}
	return s.ctrl.Reset()
}

// ErrNoScanner reports an extraction attempted without a configured backend.
var ErrNoScanner = errors.New("no extraction backend configured")

// Extract runs a one-shot extraction outside the wizard flow and returns the
// raw JSON text of the structured receipt, mirroring the extraction
// service's {text} response contract.
func (s *Service) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.scanner == nil {
		return "", ErrNoScanner
	}
	receipt, err := s.scanner.Extract(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("extracting receipt: %w", err)
	}
	text, err := json.Marshal(receipt)
	if err != nil {
		return "", fmt.Errorf("encoding receipt: %w", err)
	}
	return string(text), nil
}

// Summary computes the settlement from the accumulated bills.
func (s *Service) Summary() (SummaryResult, error) {
	state := s.ctrl.State()
	lines, err := settle.Compute(state.Contributors, state.Bills)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("computing settlement: %w", err)
	}
	formatted, err := settle.FormatLines(state.Contributors, lines)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("formatting settlement: %w", err)
	}
	return SummaryResult{Lines: lines, Text: settle.Summary(formatted)}, nil
}

// stagingFromReceipt maps scanner output into the ledger's staging shape.
func stagingFromReceipt(receipt *scanning.Receipt) ledger.ReceiptStaging {
	staging := ledger.ReceiptStaging{
		Meta: ledger.StagingMeta{
			Merchant: receipt.Merchant,
			Date:     receipt.Date,
			Subtotal: receipt.Subtotal,
			Tax:      receipt.Tax,
			Total:    receipt.Total,
			Currency: receipt.Currency,
		},
	}
	for _, it := range receipt.LineItems {
		staging.Items = append(staging.Items, ledger.StagingItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return staging
}
