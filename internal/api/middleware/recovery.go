package middleware

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/shop-ledger/backend/internal/api/response"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

// RecoveryMiddleware turns panics and returned errors into error responses
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware() RecoveryMiddleware {
	return RecoveryMiddleware{}
}

// Handle handles the recovery middleware
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		requestID := request.RequestContext.RequestID
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "panic while handling request",
					"panic", r,
					"requestId", requestID,
					"stack", string(debug.Stack()))
				resp = response.Error(errors.NewInternalError("An unexpected error occurred", fmt.Errorf("panic: %v", r)), requestID)
				err = nil
			}
		}()

		resp, err = next(ctx, logger, request)
		if err == nil {
			return resp, nil
		}

		var appErr errors.AppError
		if !stderrors.As(err, &appErr) {
			appErr = errors.NewInternalError("An unexpected error occurred", err)
		}
		logger.ErrorContext(ctx, "request failed",
			"code", appErr.Code,
			"requestId", requestID,
			"error", err)
		return response.Error(appErr, requestID), nil
	}
}
