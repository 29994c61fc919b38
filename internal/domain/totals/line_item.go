// Package totals keeps the computed fields of a business document (line amounts, section
// subtotals, tax, grand total, balance, payment status) consistent with its inputs.
package totals

import (
	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/id"
	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
)

// Category tags a line item with the section it belongs to.
type Category string

const (
	CategoryService         Category = "Service" // job type, billed by hours
	CategoryServicePackage  Category = "ServicePackage"
	CategoryPart            Category = "Part"
	CategoryExternalService Category = "ExternalService"
	CategoryExpense         Category = "Expense"
	CategoryPayment         Category = "Payment"
)

// AllCategories lists categories in display order.
var AllCategories = []Category{
	CategoryService,
	CategoryServicePackage,
	CategoryPart,
	CategoryExternalService,
	CategoryExpense,
	CategoryPayment,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryService, CategoryServicePackage, CategoryPart,
		CategoryExternalService, CategoryExpense, CategoryPayment:
		return true
	}
	return false
}

// IsPayment reports whether lines of this category are payments rather than charges.
func (c Category) IsPayment() bool {
	return c == CategoryPayment
}

// Reference points at the catalog entity a line was priced from.
type Reference struct {
	// Type is the entity type: "Part", "Job Type", "Service Package", "Expense Type"
	Type string `json:"type,omitempty"`
	// ID is the entity name in the host catalog
	ID string `json:"id,omitempty"`
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// LineItem is one row of a document's itemized table.
type LineItem struct {
	ID          id.ID          `json:"id"`
	Category    Category       `json:"category"`
	Reference   Reference      `json:"reference"`
	Description string         `json:"description,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
	Rate        types.Money    `json:"rate"`
	Amount      types.Money    `json:"amount"`

	// SourceRef identifies the upstream document line this row was copied from.
	SourceRef string `json:"sourceRef,omitempty"`

	Billable bool `json:"billable"`

	// Payment rows only.
	PaymentMethod  string `json:"paymentMethod,omitempty"`
	PaymentAccount string `json:"paymentAccount,omitempty"`
}

// NewLineItem creates a billable line and computes its amount.
func NewLineItem(category Category, ref Reference, quantity types.Quantity, rate types.Money) (*LineItem, error) {
	item := &LineItem{
		ID:        id.New(),
		Category:  category,
		Reference: ref,
		Quantity:  quantity,
		Rate:      rate,
		Billable:  true,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.ComputeAmount()
	return item, nil
}

// NewExternalServiceLine creates a one-off external cost; its amount is the rate.
func NewExternalServiceLine(description string, rate types.Money) (*LineItem, error) {
	item, err := NewLineItem(CategoryExternalService, Reference{}, decimal.NewFromInt(1), rate)
	if err != nil {
		return nil, err
	}
	item.Description = description
	return item, nil
}

// NewPaymentLine creates a payment row. Payments carry quantity 1 and rate = amount.
func NewPaymentLine(method string, amount types.Money) (*LineItem, error) {
	item, err := NewLineItem(CategoryPayment, Reference{}, decimal.NewFromInt(1), amount)
	if err != nil {
		return nil, err
	}
	item.PaymentMethod = method
	return item, nil
}

// Validate checks the per-category field subset.
func (l *LineItem) Validate() error {
	if !l.Category.Valid() {
		return apperror.NewValidation("unknown line category").
			WithDetail("field", "category").
			WithDetail("value", string(l.Category))
	}
	if l.Quantity.IsNegative() {
		return negativeErr("quantity", l.Quantity)
	}
	if l.Rate.IsNegative() {
		return negativeErr("rate", l.Rate)
	}
	if l.Category.IsPayment() && !l.Reference.IsZero() {
		return apperror.NewValidation("payment rows cannot reference a catalog entity").
			WithDetail("field", "reference")
	}
	if !l.Category.IsPayment() && (l.PaymentMethod != "" || l.PaymentAccount != "") {
		return apperror.NewValidation("only payment rows carry a payment method or account").
			WithDetail("field", "paymentMethod")
	}
	return nil
}

// SetQuantity sets the quantity and recomputes the amount.
// A negative value is rejected and the previous quantity is kept.
func (l *LineItem) SetQuantity(q types.Quantity) error {
	if q.IsNegative() {
		return negativeErr("quantity", q)
	}
	l.Quantity = q
	l.ComputeAmount()
	return nil
}

// SetRate sets the rate and recomputes the amount.
// A negative value is rejected and the previous rate is kept.
func (l *LineItem) SetRate(r types.Money) error {
	if r.IsNegative() {
		return negativeErr("rate", r)
	}
	l.Rate = r
	l.ComputeAmount()
	return nil
}

// ComputeAmount derives the amount: quantity × rate, except external services where amount = rate.
func (l *LineItem) ComputeAmount() types.Money {
	if l.Category == CategoryExternalService {
		l.Amount = l.Rate
	} else {
		l.Amount = l.Quantity.Mul(l.Rate)
	}
	return l.Amount
}

// Clone returns a detached copy.
func (l *LineItem) Clone() LineItem {
	return *l
}

func negativeErr(field string, v decimal.Decimal) error {
	return apperror.NewInvalidInput(field, v.String(), field+" cannot be negative")
}
