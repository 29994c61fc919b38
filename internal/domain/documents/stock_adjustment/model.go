// Package stock_adjustment provides the Part Stock Adjustment document, which books the
// differences found by a stock opname.
package stock_adjustment

import (
	"context"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/entity"
	"carworkshop/internal/core/id"
	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
)

// Item is one counted part.
type Item struct {
	LineID id.ID  `json:"lineId"`
	LineNo int    `json:"lineNo"`
	Part   string `json:"part"`

	ActualQty  types.Quantity `json:"actualQty"`
	CountedQty types.Quantity `json:"countedQty"`

	// Difference is counted - actual; positive is a surplus, negative a shortage.
	Difference types.Quantity `json:"difference"`

	ValuationRate    types.Money `json:"valuationRate"`
	AdjustmentAmount types.Money `json:"adjustmentAmount"`

	// ManualAmount keeps AdjustmentAmount from being derived.
	ManualAmount bool `json:"manualAmount"`
}

// Adjustment is a Part Stock Adjustment document.
type Adjustment struct {
	entity.Document

	ReferenceOpname string `json:"referenceOpname"`
	Warehouse       string `json:"warehouse"`

	TotalQuantityDifference types.Quantity `json:"totalQuantityDifference"`
	TotalValueDifference    types.Money    `json:"totalValueDifference"`

	Items []Item `json:"items"`
}

// New creates a draft adjustment.
func New(company, referenceOpname, warehouse string) *Adjustment {
	return &Adjustment{
		Document:                entity.NewDocument(company),
		ReferenceOpname:         referenceOpname,
		Warehouse:               warehouse,
		TotalQuantityDifference: decimal.Zero,
		TotalValueDifference:    decimal.Zero,
		Items:                   make([]Item, 0),
	}
}

// AddItem adds a counted part.
func (a *Adjustment) AddItem(part string, actualQty, countedQty types.Quantity, valuationRate types.Money) error {
	if err := a.CanModify(); err != nil {
		return err
	}
	if err := checkNonNegative("countedQty", countedQty); err != nil {
		return err
	}
	if err := checkNonNegative("valuationRate", valuationRate); err != nil {
		return err
	}
	a.Items = append(a.Items, Item{
		LineID:        id.New(),
		LineNo:        len(a.Items) + 1,
		Part:          part,
		ActualQty:     actualQty,
		CountedQty:    countedQty,
		ValuationRate: valuationRate,
	})
	a.Recalculate()
	return nil
}

// SetCountedQuantity records the counted quantity of a line.
func (a *Adjustment) SetCountedQuantity(lineNo int, qty types.Quantity) error {
	item, err := a.item(lineNo)
	if err != nil {
		return err
	}
	if err := checkNonNegative("countedQty", qty); err != nil {
		return err
	}
	item.CountedQty = qty
	a.Recalculate()
	return nil
}

// SetAdjustmentAmount overrides the derived adjustment amount of a line.
func (a *Adjustment) SetAdjustmentAmount(lineNo int, amount types.Money) error {
	item, err := a.item(lineNo)
	if err != nil {
		return err
	}
	item.AdjustmentAmount = amount
	item.ManualAmount = true
	a.Recalculate()
	return nil
}

// Recalculate derives differences, adjustment amounts and totals.
func (a *Adjustment) Recalculate() {
	qty := decimal.Zero
	value := decimal.Zero
	for i := range a.Items {
		item := &a.Items[i]
		item.Difference = item.CountedQty.Sub(item.ActualQty)
		if !item.ManualAmount {
			item.AdjustmentAmount = item.Difference.Mul(item.ValuationRate)
		}
		qty = qty.Add(item.Difference)
		value = value.Add(item.AdjustmentAmount)
	}
	a.TotalQuantityDifference = qty
	a.TotalValueDifference = value
}

// Validate implements entity.Validatable.
func (a *Adjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if a.ReferenceOpname == "" {
		return apperror.NewValidation("Reference Stock Opname is mandatory").
			WithDetail("field", "referenceOpname")
	}
	if a.Warehouse == "" {
		return apperror.NewValidation("Warehouse is mandatory").
			WithDetail("field", "warehouse")
	}
	if len(a.Items) == 0 {
		return apperror.NewValidation("At least one adjustment item is required").
			WithDetail("field", "items")
	}
	for _, item := range a.Items {
		if !item.Difference.IsZero() {
			return nil
		}
	}
	return apperror.NewValidation("No differences found to adjust. Please remove items with zero difference.").
		WithDetail("field", "items")
}

// Submit validates and freezes the adjustment.
func (a *Adjustment) Submit(ctx context.Context) error {
	a.Recalculate()
	if err := a.Validate(ctx); err != nil {
		return err
	}
	return a.MarkSubmitted()
}

// Movement is one stock entry row produced by an adjustment.
type Movement struct {
	Part      string         `json:"part"`
	Warehouse string         `json:"warehouse"`
	Quantity  types.Quantity `json:"quantity"`
	Rate      types.Money    `json:"rate"`
	Amount    types.Money    `json:"amount"`
}

// Movements splits the differences into a receipt (surplus) and an issue (shortage).
// Quantities and amounts are positive in both sets.
func (a *Adjustment) Movements() (receipt, issue []Movement) {
	for _, item := range a.Items {
		switch {
		case item.Difference.IsPositive():
			receipt = append(receipt, Movement{
				Part:      item.Part,
				Warehouse: a.Warehouse,
				Quantity:  item.Difference,
				Rate:      item.ValuationRate,
				Amount:    item.AdjustmentAmount.Abs(),
			})
		case item.Difference.IsNegative():
			issue = append(issue, Movement{
				Part:      item.Part,
				Warehouse: a.Warehouse,
				Quantity:  item.Difference.Neg(),
				Rate:      item.ValuationRate,
				Amount:    item.AdjustmentAmount.Abs(),
			})
		}
	}
	return receipt, issue
}

func (a *Adjustment) item(lineNo int) (*Item, error) {
	if err := a.CanModify(); err != nil {
		return nil, err
	}
	if lineNo < 1 || lineNo > len(a.Items) {
		return nil, apperror.NewValidation("invalid line number").WithDetail("lineNo", lineNo)
	}
	return &a.Items[lineNo-1], nil
}

func checkNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperror.NewInvalidInput(field, v.String(), field+" cannot be negative")
	}
	return nil
}

var _ entity.Validatable = (*Adjustment)(nil)
