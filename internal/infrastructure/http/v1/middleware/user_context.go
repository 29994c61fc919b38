package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "carworkshop/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// UserContext copies the user forwarded by the host framework into the request context.
// Headers are read only when the direct peer is a trusted proxy; otherwise the request
// stays anonymous. Roles arrive comma separated.
func UserContext(trust *ProxyTrust) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID != "" && trust.Trusted(c.RemoteIP()) {
			var roles []string
			for _, r := range strings.Split(c.GetHeader(HeaderUserRoles), ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{UserID: userID, Roles: roles})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
