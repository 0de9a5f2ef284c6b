package httpserver

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const userIDKey ctxKey = "bp.userID"

// WithUserID stores authenticated user ID in context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches user ID from context.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// bearerToken extracts the token of an "Authorization: Bearer <JWT>" header.
func bearerToken(header string) (string, bool) {
	v := strings.TrimSpace(header)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		t := strings.TrimSpace(v[7:])
		if t != "" {
			return t, true
		}
	}
	return "", false
}

// userID returns the authenticated user of a request that passed Auth.
func userID(c *gin.Context) string {
	id, _ := UserIDFromCtx(c.Request.Context())
	return id
}
