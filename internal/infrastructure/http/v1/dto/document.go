package dto

import (
	"carworkshop/internal/core/id"
	"carworkshop/internal/domain/totals"

	"github.com/shopspring/decimal"
)

// LineRequest is one line item row as the host form holds it.
// Quantity and rate are applied through the engine so negative values follow the document policy.
type LineRequest struct {
	ID            string           `json:"id,omitempty"`
	Category      string           `json:"category" binding:"required"`
	ReferenceType string           `json:"referenceType,omitempty"`
	ReferenceID   string           `json:"referenceId,omitempty"`
	Description   string           `json:"description,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Rate          *decimal.Decimal `json:"rate,omitempty"` // nil: look up the reference price
	Billable      *bool            `json:"billable,omitempty"`
	TaxTemplateID string           `json:"taxTemplateId,omitempty"`

	PaymentMethod  string `json:"paymentMethod,omitempty"`
	PaymentAccount string `json:"paymentAccount,omitempty"`
}

// Reference returns the line's catalog reference.
func (r LineRequest) Reference() totals.Reference {
	return totals.Reference{Type: r.ReferenceType, ID: r.ReferenceID}
}

// ToLineItem builds a line with zero quantity and rate; the caller sets them afterwards.
func (r LineRequest) ToLineItem() (*totals.LineItem, error) {
	category := totals.Category(r.Category)
	var ref totals.Reference
	if !category.IsPayment() {
		ref = r.Reference()
	}
	item, err := totals.NewLineItem(category, ref, decimal.Zero, decimal.Zero)
	if err != nil {
		return nil, err
	}
	item.ID = id.ParseOrNew(r.ID)
	item.Description = r.Description
	if r.Billable != nil {
		item.Billable = *r.Billable
	}
	item.PaymentMethod = r.PaymentMethod
	item.PaymentAccount = r.PaymentAccount
	return item, nil
}

// DocumentPreviewRequest asks for the derived totals of an unsaved document.
type DocumentPreviewRequest struct {
	DocumentHeader

	Kind      string        `json:"kind,omitempty"`
	SourceID  string        `json:"sourceId,omitempty"` // fetched when no lines are given
	PriceList string        `json:"priceList,omitempty"`
	Lines     []LineRequest `json:"lines" binding:"dive"`

	TaxTemplateID     string          `json:"taxTemplateId,omitempty"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	DownPaymentType   string          `json:"downPaymentType,omitempty"`
	DownPaymentAmount decimal.Decimal `json:"downPaymentAmount"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`
}

// DocumentKind returns the requested kind, defaulting to Work Order Billing.
func (r *DocumentPreviewRequest) DocumentKind() totals.DocumentKind {
	if r.Kind == "" {
		return totals.KindWorkOrderBilling
	}
	return totals.DocumentKind(r.Kind)
}

// HasPaymentLines reports whether the request carries its own payment rows.
func (r *DocumentPreviewRequest) HasPaymentLines() bool {
	for _, l := range r.Lines {
		if totals.Category(l.Category).IsPayment() {
			return true
		}
	}
	return false
}

// DocumentPreviewResponse is the engine output for the host UI.
type DocumentPreviewResponse struct {
	Kind          totals.DocumentKind `json:"kind"`
	Lines         []*totals.LineItem  `json:"lines"`
	TaxTemplateID string              `json:"taxTemplateId,omitempty"`
	Totals        totals.Totals       `json:"totals"`
	Notices       []totals.Notice     `json:"notices"`
}

// FromEngine builds the response from an engine snapshot.
func FromEngine(e *totals.Engine) DocumentPreviewResponse {
	doc := e.Snapshot()
	notices := e.DrainNotices()
	if notices == nil {
		notices = []totals.Notice{}
	}
	lines := doc.Lines
	if lines == nil {
		lines = []*totals.LineItem{}
	}
	return DocumentPreviewResponse{
		Kind:          doc.Kind,
		Lines:         lines,
		TaxTemplateID: doc.TaxTemplateID,
		Totals:        doc.Totals,
		Notices:       notices,
	}
}
