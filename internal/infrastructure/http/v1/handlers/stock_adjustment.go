package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/domain/documents/stock_adjustment"
	"carworkshop/internal/infrastructure/http/v1/dto"
)

// StockAdjustmentHandler handles Part Stock Adjustment requests.
type StockAdjustmentHandler struct {
	*BaseHandler
	service *stock_adjustment.Service
}

// NewStockAdjustmentHandler creates a new stock adjustment handler.
func NewStockAdjustmentHandler(base *BaseHandler, service *stock_adjustment.Service) *StockAdjustmentHandler {
	return &StockAdjustmentHandler{BaseHandler: base, service: service}
}

// Preview recalculates differences and reports whether the adjustment is valid.
// POST /api/v1/stock-adjustments/preview
func (h *StockAdjustmentHandler) Preview(c *gin.Context) {
	var req dto.StockAdjustmentPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a, err := req.ToAdjustment()
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.StockAdjustmentPreviewResponse{Adjustment: a}
	if err := h.service.Preview(c.Request.Context(), a); err != nil {
		if !apperror.IsValidation(err) {
			h.Error(c, err)
			return
		}
		resp.ValidationError = dto.FromAppError(err)
	}
	resp.Receipt, resp.Issue = a.Movements()
	h.OK(c, resp)
}

// Submit names the adjustment and posts its stock entries.
// POST /api/v1/stock-adjustments
func (h *StockAdjustmentHandler) Submit(c *gin.Context) {
	var req dto.StockAdjustmentPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a, err := req.ToAdjustment()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Submit(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.StockAdjustmentPreviewResponse{Adjustment: a}
	resp.Receipt, resp.Issue = a.Movements()
	c.JSON(http.StatusCreated, resp)
}
