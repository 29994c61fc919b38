package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/domain/totals"
	"carworkshop/internal/infrastructure/http/v1/dto"
	"carworkshop/pkg/logger"
)

// DocumentHandler exposes the totals engine and the source adapter to the host UI.
type DocumentHandler struct {
	*BaseHandler
	adapter          totals.SourceAdapter
	log              *logger.Logger
	defaultPriceList string
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, adapter totals.SourceAdapter, log *logger.Logger, defaultPriceList string) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:      base,
		adapter:          adapter,
		log:              log.WithComponent("totals"),
		defaultPriceList: defaultPriceList,
	}
}

// Preview recomputes the totals of an unsaved document.
// POST /api/v1/documents/preview
func (h *DocumentHandler) Preview(c *gin.Context) {
	var req dto.DocumentPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	kind := req.DocumentKind()
	if !kind.Valid() {
		h.Error(c, apperror.NewInvalidInput("kind", req.Kind, "unknown document kind"))
		return
	}

	doc := totals.NewDocument(kind, req.Company)
	req.DocumentHeader.ApplyTo(&doc.Document)
	doc.PriceList = req.PriceList
	if doc.PriceList == "" {
		doc.PriceList = h.defaultPriceList
	}

	ctx := c.Request.Context()
	e := totals.NewEngine(doc, h.adapter, totals.WithLogger(h.log))

	if len(req.Lines) == 0 && req.SourceID != "" {
		if err := e.FetchSource(ctx, req.SourceID); err != nil {
			h.Error(c, err)
			return
		}
	}
	if err := applyLines(ctx, e, req.Lines); err != nil {
		h.Error(c, err)
		return
	}
	if err := applyHeader(e, &req); err != nil {
		h.Error(c, err)
		return
	}
	if req.TaxTemplateID != "" {
		if err := e.SetTaxTemplate(ctx, req.TaxTemplateID); err != nil {
			h.Error(c, err)
			return
		}
	}
	if err := applyPaymentMode(ctx, e, &req); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEngine(e))
}

// BillingSource returns the billable lines of a work order.
// GET /api/v1/work-orders/:id/billing-source
func (h *DocumentHandler) BillingSource(c *gin.Context) {
	lines, err := h.adapter.FetchSourceDocumentLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lines)
}

// Price resolves the reference price of a catalog entity.
// GET /api/v1/prices/:entityType/:entityId?priceList=&date=YYYY-MM-DD
func (h *DocumentHandler) Price(c *gin.Context) {
	q := totals.PriceQuery{
		EntityType: c.Param("entityType"),
		EntityID:   c.Param("entityId"),
		PriceList:  c.DefaultQuery("priceList", h.defaultPriceList),
	}
	if date := c.Query("date"); date != "" {
		d, err := time.Parse(time.DateOnly, date)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("date", date, "date must be YYYY-MM-DD"))
			return
		}
		q.PostingDate = d
	}

	price, err := h.adapter.ResolveReferencePrice(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, price)
}
