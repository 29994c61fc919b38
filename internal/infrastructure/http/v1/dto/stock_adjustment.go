package dto

import (
	"carworkshop/internal/domain/documents/stock_adjustment"

	"github.com/shopspring/decimal"
)

// StockAdjustmentItemRequest is one counted part.
type StockAdjustmentItemRequest struct {
	Part             string           `json:"part" binding:"required"`
	ActualQty        decimal.Decimal  `json:"actualQty"`
	CountedQty       decimal.Decimal  `json:"countedQty"`
	ValuationRate    decimal.Decimal  `json:"valuationRate"`
	AdjustmentAmount *decimal.Decimal `json:"adjustmentAmount,omitempty"`
}

// StockAdjustmentPreviewRequest previews a Part Stock Adjustment.
type StockAdjustmentPreviewRequest struct {
	DocumentHeader

	ReferenceOpname string                       `json:"referenceOpname"`
	Warehouse       string                       `json:"warehouse"`
	Items           []StockAdjustmentItemRequest `json:"items" binding:"dive"`
}

// ToAdjustment converts the request to a domain document.
func (r *StockAdjustmentPreviewRequest) ToAdjustment() (*stock_adjustment.Adjustment, error) {
	a := stock_adjustment.New(r.Company, r.ReferenceOpname, r.Warehouse)
	r.DocumentHeader.ApplyTo(&a.Document)
	for i, item := range r.Items {
		if err := a.AddItem(item.Part, item.ActualQty, item.CountedQty, item.ValuationRate); err != nil {
			return nil, err
		}
		if item.AdjustmentAmount != nil {
			if err := a.SetAdjustmentAmount(i+1, *item.AdjustmentAmount); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// StockAdjustmentPreviewResponse carries the recalculated document and its stock entries.
type StockAdjustmentPreviewResponse struct {
	Adjustment *stock_adjustment.Adjustment `json:"adjustment"`
	Receipt    []stock_adjustment.Movement  `json:"receipt"`
	Issue      []stock_adjustment.Movement  `json:"issue"`

	// ValidationError is set when the adjustment could not be submitted as it stands.
	ValidationError *ErrorResponse `json:"validationError,omitempty"`
}
