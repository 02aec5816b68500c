package scanning

import "context"

// Item is one extracted receipt row. Only description and amount are
// guaranteed by the extraction schema; quantity and unit price are optional.
type Item struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// Receipt contains the structured fields extracted from a receipt image.
type Receipt struct {
	Merchant  string  `json:"merchant"`
	Address   string  `json:"address,omitempty"`
	Date      string  `json:"date"` // ISO 8601
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency,omitempty"`
	LineItems []Item  `json:"line_items"`
}

// Scanner defines the interface for receipt extraction backends.
type Scanner interface {
	// Extract analyzes a receipt image/PDF and returns its structured fields.
	Extract(ctx context.Context, imageData []byte, contentType string) (*Receipt, error)
	// Close releases backend resources.
	Close() error
}
