package dto

import (
	"time"

	"carworkshop/internal/domain/documents/billing"
	"carworkshop/internal/domain/totals"
)

// BillingPreviewRequest previews a Work Order Billing.
type BillingPreviewRequest struct {
	DocumentPreviewRequest

	WorkOrder      string     `json:"workOrder" binding:"required"`
	Customer       string     `json:"customer,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	ApprovalStatus string     `json:"approvalStatus,omitempty"`
	WorkflowState  string     `json:"workflowState,omitempty"`
}

// ToBilling builds the billing header; lines are applied through the engine.
func (r *BillingPreviewRequest) ToBilling() *billing.Billing {
	b := billing.New(r.Company, r.WorkOrder)
	r.DocumentHeader.ApplyTo(&b.Document.Document)
	b.Kind = totals.KindWorkOrderBilling
	b.Customer = r.Customer
	b.DueDate = r.DueDate
	b.PriceList = r.PriceList
	b.TaxTemplateID = r.TaxTemplateID
	if r.ApprovalStatus != "" {
		b.ApprovalStatus = billing.ApprovalStatus(r.ApprovalStatus)
	}
	b.WorkflowState = r.WorkflowState
	return b
}

// BillingPreviewResponse adds the billing header fields to the engine output.
type BillingPreviewResponse struct {
	DocumentPreviewResponse

	WorkOrder     string         `json:"workOrder"`
	PostingDate   time.Time      `json:"postingDate"`
	DueDate       *time.Time     `json:"dueDate,omitempty"`
	PriceList     string         `json:"priceList"`
	DisplayStatus billing.Status `json:"displayStatus"`

	// SubmitError is set when the billing could not be submitted as it stands.
	SubmitError *ErrorResponse `json:"submitError,omitempty"`
}
