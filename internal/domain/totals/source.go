package totals

import (
	"context"
	"time"

	"carworkshop/internal/core/types"
)

// SourceLine is one row of an upstream document offered for copying.
type SourceLine struct {
	Reference   Reference      `json:"reference"`
	Description string         `json:"description,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
	Rate        types.Money    `json:"rate"`
	SourceRef   string         `json:"sourceRef,omitempty"`
}

// SourceLines is the line data of a source document (e.g. a work order), grouped by section.
type SourceLines struct {
	SourceID string `json:"sourceId"`
	Customer string `json:"customer,omitempty"`
	Company  string `json:"company,omitempty"`

	ServiceLines         []SourceLine `json:"serviceLines"`
	ServicePackageLines  []SourceLine `json:"servicePackageLines"`
	PartLines            []SourceLine `json:"partLines"`
	ExternalServiceLines []SourceLine `json:"externalServiceLines"`
}

// Len returns the number of rows across all sections.
func (s *SourceLines) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ServiceLines) + len(s.ServicePackageLines) + len(s.PartLines) + len(s.ExternalServiceLines)
}

// Items converts the source rows to line items, section by section.
// Rows that fail line validation are returned in rejected.
func (s *SourceLines) Items() (items []*LineItem, rejected []SourceLine) {
	if s == nil {
		return nil, nil
	}
	add := func(c Category, rows []SourceLine) {
		for _, row := range rows {
			item, err := NewLineItem(c, row.Reference, row.Quantity, row.Rate)
			if err != nil {
				rejected = append(rejected, row)
				continue
			}
			item.Description = row.Description
			item.SourceRef = row.SourceRef
			items = append(items, item)
		}
	}
	add(CategoryService, s.ServiceLines)
	add(CategoryServicePackage, s.ServicePackageLines)
	add(CategoryPart, s.PartLines)
	add(CategoryExternalService, s.ExternalServiceLines)
	return items, rejected
}

// PriceQuery selects a reference price.
type PriceQuery struct {
	EntityType  string
	EntityID    string
	PriceList   string
	PostingDate time.Time
}

// Price sources reported by ResolveReferencePrice.
const (
	PriceSourceItemPrice        = "Item Price"
	PriceSourceServicePriceList = "Service Price List"
)

// ReferencePrice is a resolved catalog price.
type ReferencePrice struct {
	Rate     types.Money `json:"rate"`
	Currency string      `json:"currency,omitempty"`
	Source   string      `json:"source"`
}

// SourceLineFetcher loads the lines of an upstream document.
type SourceLineFetcher interface {
	// FetchSourceDocumentLines returns NotFound when sourceID does not resolve.
	// Repeated calls without intervening edits return the same rows.
	FetchSourceDocumentLines(ctx context.Context, sourceID string) (*SourceLines, error)
}

// PriceResolver looks up current catalog prices.
type PriceResolver interface {
	// ResolveReferencePrice tries the primary catalog, falls back to at most one
	// secondary catalog and returns NotFound when neither has a price.
	ResolveReferencePrice(ctx context.Context, q PriceQuery) (*ReferencePrice, error)
}

// AccountResolver looks up company default accounts.
type AccountResolver interface {
	ResolveDefaultAccount(ctx context.Context, company, paymentMethod string) (string, error)
}

// TaxTemplateProvider loads tax templates by id.
type TaxTemplateProvider interface {
	GetTaxTemplate(ctx context.Context, templateID string) (*TaxTemplate, error)
}

// SourceAdapter is the boundary to the host framework. Every method may block.
type SourceAdapter interface {
	SourceLineFetcher
	PriceResolver
	AccountResolver
	TaxTemplateProvider
}
