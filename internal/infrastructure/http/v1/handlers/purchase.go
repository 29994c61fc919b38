package handlers

import (
	"github.com/gin-gonic/gin"

	"carworkshop/internal/domain/documents/purchase"
	"carworkshop/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles Workshop Purchase Order and Invoice requests.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Preview validates a purchase document and returns its billable split and tax summary.
// POST /api/v1/purchase-orders/preview
func (h *PurchaseHandler) Preview(c *gin.Context) {
	var req dto.PurchasePreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	o, err := req.ToOrder()
	if err != nil {
		h.Error(c, err)
		return
	}
	engine, err := h.service.Prepare(ctx, o)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := tolerate(engine.SetDiscount(req.DiscountAmount)); err != nil {
		h.Error(c, err)
		return
	}
	summary, err := h.service.TaxSummary(ctx, o)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.PurchasePreviewResponse{
		DocumentPreviewResponse: dto.FromEngine(engine),
		TaxSummary:              summary,
	})
}
