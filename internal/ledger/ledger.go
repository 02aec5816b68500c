package ledger

import (
	"strings"

	"github.com/google/uuid"
)

// Contributor is a participant who may owe or be owed money.
type Contributor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LineItem is a single purchased row on a bill, split among its assignees.
// An empty Assignees slice means "split among all current contributors";
// the set is resolved at settlement time, not at creation time.
type LineItem struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	UnitPrice float64  `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Assignees []string `json:"assignees"`
}

// Total returns the line total (unit price times quantity).
func (it LineItem) Total() float64 {
	return it.UnitPrice * float64(it.Quantity)
}

// Bill is one receipt's worth of itemized charges plus the contributor who
// paid it. A bill is immutable once added to the ledger; edits happen on a
// draft before save, producing a new bill.
type Bill struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	HostID  string     `json:"host_id"`
	TaxRate float64    `json:"tax_rate"` // percent
	Items   []LineItem `json:"items"`
}

// NewContributor creates a contributor with a fresh id.
func NewContributor(name string) (Contributor, error) {
	if strings.TrimSpace(name) == "" {
		return Contributor{}, &ValidationError{Field: "name", Reason: "display name must not be empty"}
	}
	return Contributor{ID: uuid.NewString(), Name: name}, nil
}

// NewLineItem creates a line item with a fresh id.
func NewLineItem(label string, unitPrice float64, quantity int, assignees []string) LineItem {
	if quantity < 1 {
		quantity = 1
	}
	return LineItem{
		ID:        uuid.NewString(),
		Label:     label,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Assignees: assignees,
	}
}

// NewBill assembles and validates a bill against the contributors available
// at save time.
func NewBill(name, hostID string, taxRate float64, items []LineItem, contributors []Contributor) (Bill, error) {
	bill := Bill{
		ID:      uuid.NewString(),
		Name:    name,
		HostID:  hostID,
		TaxRate: taxRate,
		Items:   items,
	}
	if err := ValidateBill(bill, contributors); err != nil {
		return Bill{}, err
	}
	return bill, nil
}

// ValidateBill checks that a bill is well formed: the host references a known
// contributor, the tax rate is not negative, every item has quantity >= 1 and
// unit price >= 0, and every assignee references a known contributor.
func ValidateBill(bill Bill, contributors []Contributor) error {
	known := make(map[string]bool, len(contributors))
	for _, c := range contributors {
		known[c.ID] = true
	}

	if bill.HostID == "" || !known[bill.HostID] {
		return &ValidationError{Field: "host_id", Reason: "host must reference a known contributor"}
	}
	if bill.TaxRate < 0 {
		return &ValidationError{Field: "tax_rate", Reason: "tax rate must not be negative"}
	}
	for _, it := range bill.Items {
		if it.UnitPrice < 0 {
			return &ValidationError{Field: "unit_price", Reason: "unit price must not be negative"}
		}
		if it.Quantity < 1 {
			return &ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
		}
		for _, id := range it.Assignees {
			if !known[id] {
				return &ValidationError{Field: "assignees", Reason: "assignee must reference a known contributor"}
			}
		}
	}
	return nil
}
