package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hirosato/shop-ledger/backend/internal/api/mcp/resources"
	"github.com/hirosato/shop-ledger/backend/internal/api/mcp/tools"
	"github.com/hirosato/shop-ledger/backend/internal/api/middleware"
	"github.com/hirosato/shop-ledger/backend/internal/api/response"
	"github.com/hirosato/shop-ledger/backend/internal/app"
	envconfig "github.com/hirosato/shop-ledger/backend/internal/common/config"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type MCPRequestHandler struct {
	mcpService *mcp.Service
	config     *envconfig.Config
}

// NewMCPRequestHandler creates a new MCP request handler
func NewMCPRequestHandler(mcpService *mcp.Service, config *envconfig.Config) *MCPRequestHandler {
	return &MCPRequestHandler{
		mcpService: mcpService,
		config:     config,
	}
}

func (h *MCPRequestHandler) HandleRequest(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return response.Preflight(), nil
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.DebugContext(ctx, "mcp - Memory Status", "MB", m.Alloc/1024/1024)

	if request.Path == "/" && request.HTTPMethod != http.MethodPost {
		return h.jsonRPCMethodNotAllowedError(), nil
	}

	// MCP servers handle JSON-RPC requests on the root path
	if request.Path != "/" {
		return response.NotFound("Endpoint not found", request.RequestContext.RequestID), nil
	}

	var jsonRPCRequest mcp.JSONRPCRequest
	if err := json.Unmarshal([]byte(request.Body), &jsonRPCRequest); err != nil {
		logger.ErrorContext(ctx, "Failed to parse JSON-RPC request", "error", err)
		return h.jsonRPCErrorResponse(mcp.ParseError, "Parse error", err.Error()), nil
	}

	httpResponse := h.mcpService.HandleRequest(ctx, jsonRPCRequest)
	return response.JSON(httpResponse.StatusCode, httpResponse.JSONRPCResponse), nil
}

func (h *MCPRequestHandler) jsonRPCErrorResponse(code int, message string, data string) events.APIGatewayProxyResponse {
	// JSON-RPC errors still return 200
	return response.JSON(http.StatusOK, mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &mcp.JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (h *MCPRequestHandler) jsonRPCMethodNotAllowedError() events.APIGatewayProxyResponse {
	resp := response.JSON(http.StatusMethodNotAllowed, mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &mcp.JSONRPCError{
			Code:    mcp.MethodNotAllowed,
			Message: "Method Not Allowed",
		},
	})
	resp.Headers["Allow"] = http.MethodPost
	return resp
}

// newRegistry registers the ledger tools and resources
func newRegistry(a *app.App) *mcp.HandlerRegistry {
	registry := mcp.NewHandlerRegistry()
	for _, tool := range tools.All(a) {
		registry.RegisterTool(tool)
	}
	registry.RegisterResource(resources.NewCounterpartiesResource(a))
	return registry
}

func main() {
	config, err := envconfig.LoadFromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)

	a, err := app.New(context.Background(), config, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	mcpService := mcp.NewService(logger, newRegistry(a))
	handler := NewMCPRequestHandler(mcpService, config)

	chain := middleware.Chain(handler.HandleRequest,
		middleware.NewRecoveryMiddleware(),
		middleware.NewLoggingMiddleware(!config.IsProd()),
		middleware.NewShopMiddleware(),
	)

	lambda.Start(func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := chain(ctx, logger, request)
		// Balance messages run detached; finish them before the invocation freezes.
		a.Engine.Wait()
		return resp, err
	})
}
