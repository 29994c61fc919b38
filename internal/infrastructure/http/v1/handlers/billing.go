package handlers

import (
	"github.com/gin-gonic/gin"

	"carworkshop/internal/domain/documents/billing"
	"carworkshop/internal/infrastructure/http/v1/dto"
)

// BillingHandler handles Work Order Billing requests.
type BillingHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, service *billing.Service) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service}
}

// Preview prepares a billing from its work order or the given lines and checks
// whether it could be submitted.
// POST /api/v1/billings/preview
func (h *BillingHandler) Preview(c *gin.Context) {
	var req dto.BillingPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	b := req.ToBilling()
	engine := h.service.Open(b)
	if err := applyLines(ctx, engine, req.Lines); err != nil {
		h.Error(c, err)
		return
	}
	if _, err := h.service.PrepareWith(ctx, b, engine); err != nil {
		h.Error(c, err)
		return
	}
	if err := applyHeader(engine, &req.DocumentPreviewRequest); err != nil {
		h.Error(c, err)
		return
	}
	if err := applyPaymentMode(ctx, engine, &req.DocumentPreviewRequest); err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.BillingPreviewResponse{
		DocumentPreviewResponse: dto.FromEngine(engine),
		WorkOrder:               b.WorkOrder,
		PostingDate:             b.PostingDate,
		DueDate:                 b.DueDate,
		PriceList:               b.PriceList,
		DisplayStatus:           b.DisplayStatus(h.service.Now()),
	}
	if err := h.service.CheckSubmit(ctx, b, engine); err != nil {
		resp.SubmitError = dto.FromAppError(err)
		if resp.SubmitError == nil {
			h.Error(c, err)
			return
		}
	}
	h.OK(c, resp)
}
