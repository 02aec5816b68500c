// Package settle turns itemized, tax-adjusted bills into net pairwise
// obligations. It aggregates per (payer, host) pair across bills; it does not
// attempt global multi-party netting.
package settle

import (
	"fmt"
	"strings"

	"github.com/geoklinglaw/payup/internal/ledger"
)

// noiseFloor is the accumulation cutoff: pair totals at or below it are
// floating-point residue, not debt.
const noiseFloor = 0.009

// Line is a net "payer owes payee amount" statement after aggregation.
type Line struct {
	PayerID string  `json:"payer_id"`
	PayeeID string  `json:"payee_id"`
	Amount  float64 `json:"amount"`
}

type pairKey struct {
	payer string
	payee string
}

// Compute maps contributors and bills to settlement lines. It is pure and
// deterministic: lines appear in first-seen order of each (payer, host) pair
// across bills and items, with the same pair accumulating into one line even
// across bills. Amounts are IEEE doubles; anything accumulating to at or
// below the cent noise floor is dropped. Unknown contributor ids surface as
// a ledger.IntegrityError rather than a placeholder.
func Compute(contributors []ledger.Contributor, bills []ledger.Bill) ([]Line, error) {
	known := make(map[string]bool, len(contributors))
	for _, c := range contributors {
		known[c.ID] = true
	}

	totals := make(map[pairKey]float64)
	var order []pairKey

	for _, bill := range bills {
		if !known[bill.HostID] {
			return nil, &ledger.IntegrityError{ID: bill.HostID}
		}

		// Pre-tax accrual per contributor, scoped to this bill.
		owed := make(map[string]float64)
		var billOrder []string
		for _, item := range bill.Items {
			total := item.Total()
			if total <= 0 {
				continue
			}
			assignees := ledger.EffectiveAssignees(item, contributors)
			if len(assignees) == 0 {
				continue
			}
			share := total / float64(len(assignees))
			for _, id := range assignees {
				if !known[id] {
					return nil, &ledger.IntegrityError{ID: id}
				}
				if _, seen := owed[id]; !seen {
					billOrder = append(billOrder, id)
				}
				owed[id] += share
			}
		}

		tax := bill.TaxRate
		if tax < 0 {
			tax = 0
		}
		multiplier := 1 + tax/100

		for _, payer := range billOrder {
			if payer == bill.HostID {
				continue // no self-debt
			}
			key := pairKey{payer: payer, payee: bill.HostID}
			if _, seen := totals[key]; !seen {
				order = append(order, key)
			}
			totals[key] += owed[payer] * multiplier
		}
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		amount := totals[key]
		if amount <= noiseFloor {
			continue
		}
		lines = append(lines, Line{PayerID: key.payer, PayeeID: key.payee, Amount: amount})
	}
	return lines, nil
}

// FormatLines renders settlement lines as "payer pays payee $X.XX"
// statements, resolving ids to display names. An id missing from the
// contributor list is an integrity failure.
func FormatLines(contributors []ledger.Contributor, lines []Line) ([]string, error) {
	names := make(map[string]string, len(contributors))
	for _, c := range contributors {
		names[c.ID] = c.Name
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		payer, ok := names[line.PayerID]
		if !ok {
			return nil, &ledger.IntegrityError{ID: line.PayerID}
		}
		payee, ok := names[line.PayeeID]
		if !ok {
			return nil, &ledger.IntegrityError{ID: line.PayeeID}
		}
		out = append(out, fmt.Sprintf("%s pays %s $%.2f", payer, payee, line.Amount))
	}
	return out, nil
}

// Summary renders the plain-text final split block shown at the summary step.
func Summary(formatted []string) string {
	var b strings.Builder
	b.WriteString("Final Split\n")
	for _, line := range formatted {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
