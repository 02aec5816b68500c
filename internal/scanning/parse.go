package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StripFences removes markdown code-fence markers around a model response.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ParseReceiptJSON parses a model response into a Receipt. The response may
// be wrapped in code fences or surrounded by stray prose; only the outermost
// JSON object is considered.
func ParseReceiptJSON(text string) (*Receipt, error) {
	text = StripFences(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[start : end+1]

	var receipt Receipt
	if err := json.Unmarshal([]byte(text), &receipt); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	receipt.Merchant = strings.TrimSpace(receipt.Merchant)
	if receipt.Merchant == "" {
		receipt.Merchant = "Unknown Merchant"
	}
	receipt.Date = normalizeDate(receipt.Date)

	return &receipt, nil
}

// normalizeDate coerces extracted dates to YYYY-MM-DD, falling back to today
// when the model produced something unparseable.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Now().Format("2006-01-02")
	}
	if d, err := time.Parse("2006-01-02", date); err == nil {
		return d.Format("2006-01-02")
	}
	for _, format := range []string{"2006/01/02", "01/02/2006", "02-01-2006"} {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return time.Now().Format("2006-01-02")
}
