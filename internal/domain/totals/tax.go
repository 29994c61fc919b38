package totals

import (
	"context"
	"fmt"

	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
)

// ChargeOnNetTotal is the only charge type that contributes to tax.
const ChargeOnNetTotal = "On Net Total"

// TaxRule is one row of a tax template.
type TaxRule struct {
	ChargeType  string          `json:"chargeType" db:"charge_type"`
	Rate        decimal.Decimal `json:"rate" db:"rate"`
	AccountHead string          `json:"accountHead,omitempty" db:"account_head"`
	Description string          `json:"description,omitempty" db:"description"`
}

// TaxTemplate is a read-only, ordered list of tax rules.
type TaxTemplate struct {
	ID    string    `json:"id"`
	Title string    `json:"title,omitempty"`
	Rules []TaxRule `json:"rules"`
}

// IsEmpty reports whether the template carries no rules.
func (t *TaxTemplate) IsEmpty() bool {
	return t == nil || len(t.Rules) == 0
}

// EmptyTaxTemplate is the "no tax" template.
func EmptyTaxTemplate() *TaxTemplate {
	return &TaxTemplate{}
}

// ComputeTax sums subtotal × rate / 100 over "On Net Total" rules. Other charge types contribute 0.
func ComputeTax(subtotal types.Money, t *TaxTemplate) types.Money {
	tax := decimal.Zero
	if t == nil || subtotal.IsZero() {
		return tax
	}
	for _, rule := range t.Rules {
		if rule.ChargeType != ChargeOnNetTotal {
			continue
		}
		tax = tax.Add(types.Percent(subtotal, rule.Rate))
	}
	return tax
}

// TaxResolver resolves tax template ids through a TaxTemplateProvider.
type TaxResolver struct {
	provider TaxTemplateProvider
}

// NewTaxResolver creates a resolver.
func NewTaxResolver(provider TaxTemplateProvider) *TaxResolver {
	return &TaxResolver{provider: provider}
}

// Resolve returns the template for templateID.
// An unset id yields the empty template; an unknown id yields a NotFound error.
func (r *TaxResolver) Resolve(ctx context.Context, templateID string) (*TaxTemplate, error) {
	if templateID == "" {
		return EmptyTaxTemplate(), nil
	}
	t, err := r.provider.GetTaxTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("resolve tax template %q: %w", templateID, err)
	}
	if t == nil {
		return EmptyTaxTemplate(), nil
	}
	return t, nil
}
