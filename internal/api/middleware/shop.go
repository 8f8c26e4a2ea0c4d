package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/shop-ledger/backend/internal/api/response"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

const (
	HeaderShopID   = "X-Shop-Id"
	HeaderShopName = "X-Shop-Name"
	HeaderUserID   = "X-User-Id"
)

// ShopMiddleware puts the shop identified by the request headers on the context
type ShopMiddleware struct{}

// NewShopMiddleware creates a new shop middleware
func NewShopMiddleware() ShopMiddleware {
	return ShopMiddleware{}
}

// Handle rejects requests without a shop ID, except CORS preflights
func (m ShopMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if request.HTTPMethod == http.MethodOptions {
			return next(ctx, logger, request)
		}

		sc := &shop.Context{
			ShopID:   strings.TrimSpace(header(request.Headers, HeaderShopID)),
			ShopName: strings.TrimSpace(header(request.Headers, HeaderShopName)),
			UserID:   strings.TrimSpace(header(request.Headers, HeaderUserID)),
		}
		if err := sc.Validate(); err != nil {
			return response.ValidationError(HeaderShopID+" header is required", request.RequestContext.RequestID), nil
		}

		ctx = shop.WithContext(ctx, sc)
		return next(ctx, logger.With("shopID", sc.ShopID, "userID", sc.UserID), request)
	}
}
