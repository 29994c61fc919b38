package context

import (
	"context"
)

// UserContext identifies the host user acting on a document.
// The host framework authenticates; this service only trusts what it forwards.
type UserContext struct {
	UserID string
	Roles  []string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasAnyRole reports whether the user holds at least one of roles.
func HasAnyRole(ctx context.Context, roles ...string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
