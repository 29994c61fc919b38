package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/domain/totals"
	"carworkshop/internal/infrastructure/http/v1/dto"
)

// tolerate drops InvalidInput errors: the engine already recovered the field and recorded a notice.
func tolerate(err error) error {
	if apperror.IsInvalidInput(err) {
		return nil
	}
	return err
}

// applyLines replays the form rows through the engine. Rows without a rate get the
// price of their reference.
func applyLines(ctx context.Context, e *totals.Engine, lines []dto.LineRequest) error {
	for _, lr := range lines {
		item, err := lr.ToLineItem()
		if err != nil {
			return err
		}
		if err := e.AddLine(item); err != nil {
			return err
		}

		qty := lr.Quantity
		if item.Category.IsPayment() {
			qty = decimal.NewFromInt(1)
		}
		if err := tolerate(e.SetQuantity(item.ID, qty)); err != nil {
			return err
		}

		switch {
		case lr.Rate != nil:
			if err := tolerate(e.SetRate(item.ID, *lr.Rate)); err != nil {
				return err
			}
		case !item.Category.IsPayment() && lr.ReferenceID != "":
			if err := e.SetLineReference(ctx, item.ID, lr.Reference()); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyHeader sets discount and down payment.
func applyHeader(e *totals.Engine, req *dto.DocumentPreviewRequest) error {
	if err := tolerate(e.SetDiscount(req.DiscountAmount)); err != nil {
		return err
	}
	dpType := totals.DownPaymentType(req.DownPaymentType)
	if !dpType.Valid() {
		return apperror.NewInvalidInput("downPaymentType", req.DownPaymentType, "unknown down payment type")
	}
	return tolerate(e.SetDownPayment(dpType, req.DownPaymentAmount))
}

// applyPaymentMode collapses payments to the chosen method when the form sent no rows of its own.
func applyPaymentMode(ctx context.Context, e *totals.Engine, req *dto.DocumentPreviewRequest) error {
	if req.PaymentMethod == "" || !e.Policy().Allows(totals.CategoryPayment) {
		return nil
	}
	if req.HasPaymentLines() && req.PaymentMethod != totals.PaymentModeMultiple {
		return nil
	}
	return e.ApplySinglePaymentMode(ctx, req.PaymentMethod)
}
