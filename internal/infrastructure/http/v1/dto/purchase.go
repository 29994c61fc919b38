package dto

import (
	"time"

	"carworkshop/internal/domain/documents/purchase"

	"github.com/shopspring/decimal"
)

// PurchaseLineRequest is one purchase row.
type PurchaseLineRequest struct {
	ItemType      string          `json:"itemType" binding:"required"`
	ReferenceID   string          `json:"referenceId"`
	Description   string          `json:"description,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	Billable      bool            `json:"billable"`
	TaxTemplateID string          `json:"taxTemplateId,omitempty"`
}

// PurchasePreviewRequest previews a Workshop Purchase Order or Invoice.
type PurchasePreviewRequest struct {
	DocumentHeader

	Invoice              bool                  `json:"invoice"`
	Supplier             string                `json:"supplier,omitempty"`
	WorkOrder            string                `json:"workOrder,omitempty"`
	PurchaseType         string                `json:"purchaseType,omitempty"`
	ExpectedDelivery     *time.Time            `json:"expectedDelivery,omitempty"`
	TaxTemplateID        string                `json:"taxTemplateId,omitempty"`
	ApplyDefaultTaxToAll bool                  `json:"applyDefaultTaxToAll"`
	DiscountAmount       decimal.Decimal       `json:"discountAmount"`
	Lines                []PurchaseLineRequest `json:"lines" binding:"dive"`
}

// ToOrder converts the request to a purchase document.
func (r *PurchasePreviewRequest) ToOrder() (*purchase.Order, error) {
	o := purchase.NewOrder(r.Company)
	if r.Invoice {
		o = purchase.NewInvoice(r.Company)
	}
	r.DocumentHeader.ApplyTo(&o.Document.Document)
	o.Supplier = r.Supplier
	o.WorkOrder = r.WorkOrder
	o.PurchaseType = purchase.ItemType(r.PurchaseType)
	o.ExpectedDelivery = r.ExpectedDelivery
	o.TaxTemplateID = r.TaxTemplateID
	o.ApplyDefaultTaxToAll = r.ApplyDefaultTaxToAll

	for _, lr := range r.Lines {
		line, err := purchase.NewLine(purchase.ItemType(lr.ItemType), lr.ReferenceID, lr.Quantity, lr.Rate)
		if err != nil {
			return nil, err
		}
		line.Description = lr.Description
		line.Billable = lr.Billable
		if lr.TaxTemplateID != "" {
			o.ItemTaxTemplates[line.ID.String()] = lr.TaxTemplateID
		}
		o.Lines = append(o.Lines, line)
	}
	return o, nil
}

// PurchasePreviewResponse adds the per-template tax summary to the engine output.
type PurchasePreviewResponse struct {
	DocumentPreviewResponse

	TaxSummary []purchase.TemplateTax `json:"taxSummary"`
}
