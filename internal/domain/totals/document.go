package totals

import (
	"carworkshop/internal/core/entity"
	"carworkshop/internal/core/id"
	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
)

// DownPaymentType selects how DownPaymentAmount is read.
type DownPaymentType string

const (
	DownPaymentNone       DownPaymentType = "None"
	DownPaymentPercentage DownPaymentType = "Percentage"
	DownPaymentFixed      DownPaymentType = "Fixed Amount"
)

// Valid reports whether t is a known down payment type. Empty means None.
func (t DownPaymentType) Valid() bool {
	switch t {
	case "", DownPaymentNone, DownPaymentPercentage, DownPaymentFixed:
		return true
	}
	return false
}

// PaymentStatus is derived from total paid versus grand total.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "Unpaid"
	PaymentPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentPaid          PaymentStatus = "Paid"
)

// Payment methods with a default company account.
const (
	PaymentMethodCash         = "Cash"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentModeMultiple       = "Multiple"
)

// Totals holds every computed field of a document.
type Totals struct {
	Sections map[Category]types.Money `json:"sections"`

	TotalServices         types.Money `json:"totalServicesAmount"`
	TotalParts            types.Money `json:"totalPartsAmount"`
	TotalExternalServices types.Money `json:"totalExternalServicesAmount"`
	TotalExpenses         types.Money `json:"totalExpensesAmount"`

	// TotalAmount counts every non-payment line, billable or not.
	TotalAmount       types.Money `json:"totalAmount"`
	BillableAmount    types.Money `json:"billableAmount"`
	NonBillableAmount types.Money `json:"nonBillableAmount"`

	Subtotal     types.Money `json:"subtotal"`
	TaxAmount    types.Money `json:"taxAmount"`
	GrandTotal   types.Money `json:"grandTotal"`
	RoundedTotal types.Money `json:"roundedTotal"`

	PaymentAmount    types.Money   `json:"paymentAmount"`
	DownPayment      types.Money   `json:"downPayment"`
	RemainingBalance types.Money   `json:"remainingBalance"`
	BalanceAmount    types.Money   `json:"balanceAmount"`
	TotalPaid        types.Money   `json:"totalPaid"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`

	// Computed is false until totals were derived from a line set the policy accepts.
	Computed bool `json:"computed"`
}

func (t Totals) clone() Totals {
	out := t
	out.Sections = make(map[Category]types.Money, len(t.Sections))
	for k, v := range t.Sections {
		out.Sections[k] = v
	}
	return out
}

// Document is a business document whose totals are maintained by the Engine.
type Document struct {
	entity.Document

	Kind DocumentKind `json:"kind"`

	// SourceID is the upstream document lines are fetched from (a work order).
	SourceID string `json:"sourceId,omitempty"`

	// PriceList used for reference price lookups.
	PriceList string `json:"priceList,omitempty"`

	Lines []*LineItem `json:"lines"`

	TaxTemplateID     string          `json:"taxTemplateId,omitempty"`
	DiscountAmount    types.Money     `json:"discountAmount"`
	DownPaymentType   DownPaymentType `json:"downPaymentType"`
	DownPaymentAmount types.Money     `json:"downPaymentAmount"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`

	Totals Totals `json:"totals"`
}

// NewDocument creates a draft document of the given kind.
func NewDocument(kind DocumentKind, company string) *Document {
	return &Document{
		Document:          entity.NewDocument(company),
		Kind:              kind,
		DiscountAmount:    decimal.Zero,
		DownPaymentType:   DownPaymentNone,
		DownPaymentAmount: decimal.Zero,
	}
}

// Line returns the line with the given id.
func (d *Document) Line(lineID id.ID) (*LineItem, bool) {
	for _, l := range d.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return nil, false
}

// ChargeLines returns every non-payment line.
func (d *Document) ChargeLines() []*LineItem {
	out := make([]*LineItem, 0, len(d.Lines))
	for _, l := range d.Lines {
		if !l.Category.IsPayment() {
			out = append(out, l)
		}
	}
	return out
}

// PaymentLines returns the payment rows.
func (d *Document) PaymentLines() []*LineItem {
	var out []*LineItem
	for _, l := range d.Lines {
		if l.Category.IsPayment() {
			out = append(out, l)
		}
	}
	return out
}

func (d *Document) clone() Document {
	out := *d
	out.Lines = make([]*LineItem, len(d.Lines))
	for i, l := range d.Lines {
		c := l.Clone()
		out.Lines[i] = &c
	}
	out.Totals = d.Totals.clone()
	return out
}
