// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"carworkshop/internal/core/entity"
)

// DocumentHeader carries the fields shared by every document request.
type DocumentHeader struct {
	Name        string     `json:"name,omitempty"`
	Company     string     `json:"company" binding:"required"`
	PostingDate *time.Time `json:"postingDate,omitempty"`
	Currency    string     `json:"currency,omitempty"`
}

// ApplyTo copies the header onto a document.
func (h DocumentHeader) ApplyTo(doc *entity.Document) {
	doc.Name = h.Name
	doc.Company = h.Company
	doc.Currency = h.Currency
	if h.PostingDate != nil {
		doc.PostingDate = h.PostingDate.UTC()
	}
}

// ErrorResponse mirrors the body written by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
