package ledger

import "math"

// StagingItem is one extracted receipt row. Quantity, unit price and amount
// are all optional; ResolveUnitPrice turns whatever was extracted into the
// unit price / quantity pair a line item needs.
type StagingItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// StagingMeta holds the receipt-level fields from extraction.
type StagingMeta struct {
	Merchant string  `json:"merchant"`
	Date     string  `json:"date"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// ReceiptStaging is transient pre-bill data produced by extraction. It is
// consumed exactly once when the entry step initializes its editable item
// list, then discarded.
type ReceiptStaging struct {
	Items []StagingItem `json:"items"`
	Meta  StagingMeta   `json:"meta"`
}

// EffectiveAssignees resolves an item's assignee set: the item's own
// assignees when non-empty, otherwise all current contributors. Resolution
// happens at settlement time, so contributors added after item entry still
// join the split.
func EffectiveAssignees(item LineItem, contributors []Contributor) []string {
	if len(item.Assignees) > 0 {
		return item.Assignees
	}
	all := make([]string, len(contributors))
	for i, c := range contributors {
		all[i] = c.ID
	}
	return all
}

// ResolveUnitPrice derives a unit price and quantity from an extracted item.
// The extracted unit price wins when present; otherwise amount/quantity when
// both are usable; otherwise the amount stands in as a quantity-1 unit price.
func ResolveUnitPrice(item StagingItem) (unitPrice float64, quantity int) {
	quantity = item.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if item.UnitPrice > 0 {
		return item.UnitPrice, quantity
	}
	if item.Amount > 0 && item.Quantity > 0 {
		return item.Amount / float64(item.Quantity), quantity
	}
	return item.Amount, 1
}

// InferTaxRate suggests a tax rate (percent) from the extracted subtotal and
// total, rounded to two decimals. Returns 0 when the meta fields cannot
// support the inference.
func InferTaxRate(meta StagingMeta) float64 {
	if meta.Subtotal <= 0 || meta.Total <= 0 {
		return 0
	}
	rate := (meta.Total/meta.Subtotal - 1) * 100
	if rate < 0 {
		return 0
	}
	return math.Round(rate*100) / 100
}
