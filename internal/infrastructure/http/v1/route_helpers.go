package v1

import (
	"github.com/gin-gonic/gin"
)

// PreviewRouteHandler is implemented by every document handler.
type PreviewRouteHandler interface {
	Preview(c *gin.Context)
}

// RegisterDocumentRoutes registers the routes of one document type under group.
//
// Usage:
//
//	handler := handlers.NewBillingHandler(baseHandler, cfg.BillingService)
//	RegisterDocumentRoutes(v1.Group("/billings"), handler)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler PreviewRouteHandler, extra ...func(*gin.RouterGroup)) {
	group.POST("/preview", handler.Preview)
	for _, register := range extra {
		register(group)
	}
}
