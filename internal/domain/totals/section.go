package totals

import (
	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
)

// SectionAggregator sums the lines of one category into a section subtotal.
type SectionAggregator struct {
	// DistinguishBillable restricts sums to billable lines (purchase documents).
	DistinguishBillable bool
}

// Sum returns the total amount of lines in category c.
func (a SectionAggregator) Sum(items []*LineItem, c Category) types.Money {
	total := decimal.Zero
	for _, item := range items {
		if item.Category != c {
			continue
		}
		if a.DistinguishBillable && !item.Billable {
			continue
		}
		total = total.Add(item.Amount)
	}
	return total
}

// SumAll returns the total amount of every non-payment line, billable or not.
func (a SectionAggregator) SumAll(items []*LineItem) types.Money {
	total := decimal.Zero
	for _, item := range items {
		if item.Category.IsPayment() {
			continue
		}
		total = total.Add(item.Amount)
	}
	return total
}

// Sections sums every category in cats.
func (a SectionAggregator) Sections(items []*LineItem, cats []Category) map[Category]types.Money {
	out := make(map[Category]types.Money, len(cats))
	for _, c := range cats {
		out[c] = a.Sum(items, c)
	}
	return out
}
