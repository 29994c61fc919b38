// Package entity provides base types for all domain entities.
package entity

import (
	"context"
	"time"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/id"
)

// DocStatus is the document lifecycle state owned by the host framework.
type DocStatus string

const (
	// StatusDraft documents are mutable and recompute on every change.
	StatusDraft DocStatus = "draft"
	// StatusSubmitted documents are frozen.
	StatusSubmitted DocStatus = "submitted"
	// StatusCancelled documents are frozen and excluded from aggregate reports.
	StatusCancelled DocStatus = "cancelled"
)

// Document is the base type for business documents (billing, purchase order, stock adjustment).
type Document struct {
	BaseDocument

	// Name is the host framework's document name (e.g. WOB-2025-00012)
	Name string `db:"name" json:"name,omitempty"`

	// PostingDate is the business date of the document
	PostingDate time.Time `db:"posting_date" json:"postingDate"`

	// Status is the lifecycle state
	Status DocStatus `db:"status" json:"status"`

	// Company owning the document
	Company string `db:"company" json:"company,omitempty"`

	// Currency is the ISO code of the document currency
	Currency string `db:"currency" json:"currency,omitempty"`
}

// NewDocument creates a new draft Document.
func NewDocument(company string) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		PostingDate:  time.Now().UTC(),
		Status:       StatusDraft,
		Company:      company,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.PostingDate.IsZero() {
		return apperror.NewValidation("posting date is required").
			WithDetail("field", "postingDate")
	}
	return nil
}

// IsDraft reports whether totals may still be recomputed.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft || d.Status == ""
}

// CanModify checks if document can be modified.
func (d *Document) CanModify() error {
	if !d.IsDraft() {
		return apperror.NewDocumentFrozen(d.ID.String(), string(d.Status))
	}
	return nil
}

// MarkSubmitted freezes the document.
func (d *Document) MarkSubmitted() error {
	if err := d.CanModify(); err != nil {
		return err
	}
	d.Status = StatusSubmitted
	d.Touch()
	return nil
}

// MarkCancelled transitions a submitted document to cancelled.
func (d *Document) MarkCancelled() error {
	if d.Status != StatusSubmitted {
		return apperror.NewBusinessRule("INVALID_STATUS", "Only submitted documents can be cancelled").
			WithDetail("status", string(d.Status))
	}
	d.Status = StatusCancelled
	d.Touch()
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
