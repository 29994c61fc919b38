// Package billing provides the Work Order Billing document.
package billing

import (
	"context"
	"time"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/entity"
	"carworkshop/internal/domain/totals"
)

// ApprovalStatus of a discount that exceeds the approval threshold.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending Approval"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// Status is the display status shown on the billing list.
type Status string

const (
	StatusDraft          Status = "Draft"
	StatusCancelled      Status = "Cancelled"
	StatusCompleted      Status = "Completed"
	StatusFullyPaid      Status = "Fully Paid"
	StatusPartiallyPaid  Status = "Partially Paid"
	StatusOverdue        Status = "Overdue"
	StatusPendingPayment Status = "Pending Payment"
)

// Billing is a Work Order Billing: a preview invoice built from a completed work order.
type Billing struct {
	*totals.Document

	WorkOrder string     `json:"workOrder"`
	Customer  string     `json:"customer,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`

	// WorkflowState is set by the host workflow; "Completed" overrides payment based status.
	WorkflowState string `json:"workflowState,omitempty"`

	ApprovalStatus ApprovalStatus `json:"approvalStatus,omitempty"`
	ApprovedBy     string         `json:"approvedBy,omitempty"`
	ApprovedOn     *time.Time     `json:"approvedOn,omitempty"`
}

// New creates a draft billing for a work order.
func New(company, workOrder string) *Billing {
	return &Billing{
		Document:       totals.NewDocument(totals.KindWorkOrderBilling, company),
		WorkOrder:      workOrder,
		ApprovalStatus: ApprovalPending,
	}
}

// ApplyDateDefaults fills posting date with today and due date with posting date + dueDays.
func (b *Billing) ApplyDateDefaults(today time.Time, dueDays int) {
	if b.PostingDate.IsZero() {
		b.PostingDate = truncateDay(today)
	}
	if b.DueDate == nil {
		due := truncateDay(b.PostingDate).AddDate(0, 0, dueDays)
		b.DueDate = &due
	}
}

// Validate implements entity.Validatable.
func (b *Billing) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}
	if b.WorkOrder == "" {
		return apperror.NewValidation("Work Order is required").
			WithDetail("field", "workOrder")
	}
	if b.DueDate != nil && truncateDay(*b.DueDate).Before(truncateDay(b.PostingDate)) {
		return apperror.NewValidation("Due Date cannot be before Posting Date").
			WithDetail("field", "dueDate")
	}
	return nil
}

// Approve records a discount approval.
func (b *Billing) Approve(approver string, at time.Time) {
	b.ApprovalStatus = ApprovalApproved
	b.ApprovedBy = approver
	b.ApprovedOn = &at
}

// DisplayStatus derives the list status from lifecycle, payment status and due date.
func (b *Billing) DisplayStatus(today time.Time) Status {
	switch {
	case b.Status == entity.StatusCancelled:
		return StatusCancelled
	case b.IsDraft():
		return StatusDraft
	case b.WorkflowState == string(StatusCompleted):
		return StatusCompleted
	case b.Totals.PaymentStatus == totals.PaymentPaid:
		return StatusFullyPaid
	case b.Totals.PaymentStatus == totals.PaymentPartiallyPaid:
		return StatusPartiallyPaid
	case b.DueDate != nil && truncateDay(*b.DueDate).Before(truncateDay(today)):
		return StatusOverdue
	default:
		return StatusPendingPayment
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var _ entity.Validatable = (*Billing)(nil)
