package shop

import (
	"context"
	"strings"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

// Context identifies the shop and the user an operation runs for
type Context struct {
	ShopID   string
	ShopName string
	UserID   string
}

// Validate checks that the shop is identified
func (c *Context) Validate() error {
	if c == nil || strings.TrimSpace(c.ShopID) == "" {
		return errors.NewValidationError("shop ID is required")
	}
	return nil
}

// Name returns the shop's display name, falling back to its ID
func (c *Context) Name() string {
	if c.ShopName != "" {
		return c.ShopName
	}
	return c.ShopID
}

type contextKey struct{}

// WithContext stores the shop context on ctx
func WithContext(ctx context.Context, shopCtx *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, shopCtx)
}

// FromContext returns the shop context stored on ctx, if any
func FromContext(ctx context.Context) (*Context, bool) {
	shopCtx, ok := ctx.Value(contextKey{}).(*Context)
	return shopCtx, ok && shopCtx != nil
}
