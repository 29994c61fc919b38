// Package purchase provides the Workshop Purchase Order and Purchase Invoice documents.
package purchase

import (
	"context"
	"fmt"
	"time"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/entity"
	"carworkshop/internal/core/types"
	"carworkshop/internal/domain/totals"
)

// ItemType is the purchase row type chosen on the form.
type ItemType string

const (
	ItemPart    ItemType = "Part"
	ItemOPL     ItemType = "OPL" // outsourced labour, referenced by job type
	ItemExpense ItemType = "Expense"
)

// Category maps the row type to its line category.
func (t ItemType) Category() (totals.Category, bool) {
	switch t {
	case ItemPart:
		return totals.CategoryPart, true
	case ItemOPL:
		return totals.CategoryService, true
	case ItemExpense:
		return totals.CategoryExpense, true
	}
	return "", false
}

// ItemTypeOf maps a line category back to the row type.
func ItemTypeOf(c totals.Category) ItemType {
	switch c {
	case totals.CategoryService:
		return ItemOPL
	case totals.CategoryExpense:
		return ItemExpense
	default:
		return ItemPart
	}
}

// referenceLabel names the reference required for each row type.
var referenceLabel = map[ItemType]string{
	ItemPart:    "Part",
	ItemOPL:     "Job Type",
	ItemExpense: "Expense Type",
}

// NewLine creates a purchase row of the given item type.
func NewLine(it ItemType, referenceID string, qty types.Quantity, rate types.Money) (*totals.LineItem, error) {
	c, ok := it.Category()
	if !ok {
		return nil, apperror.NewInvalidInput("itemType", string(it), "unknown item type")
	}
	return totals.NewLineItem(c, totals.Reference{Type: referenceLabel[it], ID: referenceID}, qty, rate)
}

// Order is a Workshop Purchase Order or Purchase Invoice.
type Order struct {
	*totals.Document

	Supplier  string `json:"supplier,omitempty"`
	WorkOrder string `json:"workOrder,omitempty"`

	// PurchaseType restricts every row to one item type when set.
	PurchaseType ItemType `json:"purchaseType,omitempty"`

	ExpectedDelivery *time.Time `json:"expectedDelivery,omitempty"`

	// ApplyDefaultTaxToAll assigns TaxTemplateID to rows without their own template.
	ApplyDefaultTaxToAll bool `json:"applyDefaultTaxToAll"`

	// ItemTaxTemplates holds per-row tax templates keyed by line id.
	ItemTaxTemplates map[string]string `json:"itemTaxTemplates,omitempty"`

	// PurchaseOrder links an invoice to the order it was created from.
	PurchaseOrder string `json:"purchaseOrder,omitempty"`
}

// NewOrder creates a draft purchase order.
func NewOrder(company string) *Order {
	return &Order{
		Document:         totals.NewDocument(totals.KindPurchaseOrder, company),
		ItemTaxTemplates: make(map[string]string),
	}
}

// NewInvoice creates a draft purchase invoice.
func NewInvoice(company string) *Order {
	o := NewOrder(company)
	o.Kind = totals.KindPurchaseInvoice
	return o
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if o.ExpectedDelivery != nil && o.ExpectedDelivery.Truncate(24*time.Hour).Before(o.PostingDate.Truncate(24*time.Hour)) {
		return apperror.NewValidation("Expected Delivery Date cannot be before Transaction Date").
			WithDetail("field", "expectedDelivery")
	}
	if err := o.ValidateItems(); err != nil {
		return err
	}
	return o.ValidateTaxSettings()
}

// ValidateItems checks the item rows.
func (o *Order) ValidateItems() error {
	lines := o.ChargeLines()
	if len(lines) == 0 {
		return apperror.NewValidation("Items cannot be empty").WithDetail("field", "lines")
	}
	for i, line := range lines {
		row := i + 1
		itemType := ItemTypeOf(line.Category)
		if !line.Quantity.IsPositive() {
			return rowErr(row, "Quantity must be greater than zero")
		}
		if line.Rate.IsNegative() {
			return rowErr(row, "Rate cannot be negative")
		}
		if line.Reference.ID == "" {
			return rowErr(row, fmt.Sprintf("%s reference is required for %s items", referenceLabel[itemType], itemType))
		}
		if line.Billable && o.WorkOrder == "" {
			return rowErr(row, "Work Order is required for billable items")
		}
		if o.PurchaseType != "" && itemType != o.PurchaseType {
			return rowErr(row, fmt.Sprintf("Item type must be '%s' for Purchase Type '%s'", o.PurchaseType, o.PurchaseType))
		}
	}
	return nil
}

// ValidateTaxSettings checks default tax propagation.
func (o *Order) ValidateTaxSettings() error {
	if o.ApplyDefaultTaxToAll && o.TaxTemplateID == "" {
		return apperror.NewValidation("Default Tax Template must be specified when 'Apply Default Tax to All Items' is checked").
			WithDetail("field", "taxTemplateId")
	}
	return nil
}

// TaxTemplateFor returns the tax template applying to a line, or "" for none.
func (o *Order) TaxTemplateFor(line *totals.LineItem) string {
	if t := o.ItemTaxTemplates[line.ID.String()]; t != "" {
		return t
	}
	if o.ApplyDefaultTaxToAll {
		return o.TaxTemplateID
	}
	return ""
}

// ToInvoice copies a submitted order into a draft invoice.
func (o *Order) ToInvoice() (*Order, error) {
	if o.Status != entity.StatusSubmitted {
		return nil, apperror.NewBusinessRule("INVALID_STATUS", "Only submitted purchase orders can be invoiced").
			WithDetail("status", string(o.Status))
	}
	inv := NewInvoice(o.Company)
	inv.Supplier = o.Supplier
	inv.WorkOrder = o.WorkOrder
	inv.PurchaseType = o.PurchaseType
	inv.TaxTemplateID = o.TaxTemplateID
	inv.ApplyDefaultTaxToAll = o.ApplyDefaultTaxToAll
	inv.PurchaseOrder = o.Name
	for _, line := range o.ChargeLines() {
		copied, err := totals.NewLineItem(line.Category, line.Reference, line.Quantity, line.Rate)
		if err != nil {
			return nil, err
		}
		copied.Description = line.Description
		copied.Billable = line.Billable
		copied.SourceRef = line.ID.String()
		if t := o.ItemTaxTemplates[line.ID.String()]; t != "" {
			inv.ItemTaxTemplates[copied.ID.String()] = t
		}
		inv.Lines = append(inv.Lines, copied)
	}
	return inv, nil
}

func rowErr(row int, msg string) error {
	return apperror.NewValidation(fmt.Sprintf("Row %d: %s", row, msg)).WithDetail("row", row)
}

var _ entity.Validatable = (*Order)(nil)
