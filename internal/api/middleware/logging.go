package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// LoggingMiddleware logs each request and its response status
type LoggingMiddleware struct {
	// Bodies enables body logging; set it outside production only
	Bodies bool
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(bodies bool) LoggingMiddleware {
	return LoggingMiddleware{Bodies: bodies}
}

// Handle handles the logging middleware
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()
		logger = logger.With("requestId", request.RequestContext.RequestID)

		attrs := []any{
			"method", request.HTTPMethod,
			"path", request.Path,
			"sourceIP", request.RequestContext.Identity.SourceIP,
			"headers", maskSensitiveHeaders(request.Headers),
		}
		if m.Bodies && request.Body != "" {
			attrs = append(attrs, "body", request.Body)
		}
		logger.InfoContext(ctx, "REQUEST", attrs...)

		response, err := next(ctx, logger, request)

		attrs = []any{
			"status", response.StatusCode,
			"duration", time.Since(startTime),
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		if m.Bodies && response.Body != "" {
			attrs = append(attrs, "body", response.Body)
		}
		logger.InfoContext(ctx, "RESPONSE", attrs...)
		return response, err
	}
}

// maskSensitiveHeaders masks sensitive headers
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		masked[k] = v
	}
	for k := range masked {
		for _, name := range []string{"Authorization", "X-Api-Key", "Cookie"} {
			if strings.EqualFold(k, name) {
				masked[k] = "***"
			}
		}
	}
	return masked
}
