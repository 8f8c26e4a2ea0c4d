package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

type stubTool struct {
	name   string
	result *CallToolResult
	err    error
}

func (s *stubTool) GetName() string            { return s.name }
func (s *stubTool) GetDescription() string     { return "stub " + s.name }
func (s *stubTool) GetInputSchema() JSONSchema { return JSONSchema{Type: "object"} }
func (s *stubTool) Execute(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error) {
	return s.result, s.err
}

type stubResource struct {
	uri string
	err error
}

func (s *stubResource) GetURI() string         { return s.uri }
func (s *stubResource) GetName() string        { return "stub" }
func (s *stubResource) GetDescription() string { return "stub resource" }
func (s *stubResource) GetMimeType() string    { return "application/json" }
func (s *stubResource) Read(ctx context.Context) (*ReadResourceResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ReadResourceResult{Contents: []ResourceContent{{URI: s.uri, Text: "{}"}}}, nil
}

func newTestService(register func(*HandlerRegistry)) *Service {
	registry := NewHandlerRegistry()
	if register != nil {
		register(registry)
	}
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), registry)
}

func call(t *testing.T, svc *Service, method string, params interface{}) HTTPResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return svc.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  raw,
	})
}

func decode[T any](t *testing.T, v interface{}) T {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestService_Initialize(t *testing.T) {
	resp := call(t, newTestService(nil), "initialize", InitializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
	})

	require.Nil(t, resp.JSONRPCResponse.Error)
	assert.Equal(t, 200, resp.StatusCode)
	result := decode[InitializeResult](t, resp.JSONRPCResponse.Result)
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "shop-ledger", result.ServerInfo.Name)
	assert.True(t, result.Capabilities.Tools.ListChanged)
}

func TestService_ListToolsIsSorted(t *testing.T) {
	svc := newTestService(func(r *HandlerRegistry) {
		r.RegisterTool(&stubTool{name: "record-transactions"})
		r.RegisterTool(&stubTool{name: "add-expense"})
		r.RegisterTool(&stubTool{name: "list-counterparties"})
	})

	resp := call(t, svc, "tools/list", map[string]any{})
	result := decode[ListToolsResult](t, resp.JSONRPCResponse.Result)
	require.Len(t, result.Tools, 3)
	assert.Equal(t, "add-expense", result.Tools[0].Name)
	assert.Equal(t, "list-counterparties", result.Tools[1].Name)
	assert.Equal(t, "record-transactions", result.Tools[2].Name)
}

func TestService_CallTool(t *testing.T) {
	svc := newTestService(func(r *HandlerRegistry) {
		r.RegisterTool(&stubTool{name: "ok", result: TextResult("done")})
		r.RegisterTool(&stubTool{name: "fails", err: errors.NewValidationError("amount must be greater than zero")})
	})

	tests := []struct {
		name    string
		tool    string
		isError bool
		text    string
		rpcErr  bool
	}{
		{name: "success", tool: "ok", text: "done"},
		{name: "app error becomes tool error", tool: "fails", isError: true, text: "VALIDATION_ERROR: amount must be greater than zero"},
		{name: "unknown tool", tool: "missing", rpcErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, svc, "tools/call", CallToolParams{Name: tt.tool, Arguments: json.RawMessage(`{}`)})
			if tt.rpcErr {
				require.NotNil(t, resp.JSONRPCResponse.Error)
				assert.Equal(t, InvalidParams, resp.JSONRPCResponse.Error.Code)
				return
			}
			result := decode[CallToolResult](t, resp.JSONRPCResponse.Result)
			assert.Equal(t, tt.isError, result.IsError)
			require.Len(t, result.Content, 1)
			assert.Equal(t, tt.text, result.Content[0].Text)
		})
	}
}

func TestService_ReadResource(t *testing.T) {
	svc := newTestService(func(r *HandlerRegistry) {
		r.RegisterResource(&stubResource{uri: "shopledger://counterparties"})
		r.RegisterResource(&stubResource{uri: "shopledger://broken", err: stderrors.New("boom")})
	})

	resp := call(t, svc, "resources/read", ReadResourceParams{URI: "shopledger://counterparties"})
	require.Nil(t, resp.JSONRPCResponse.Error)
	result := decode[ReadResourceResult](t, resp.JSONRPCResponse.Result)
	assert.Equal(t, "shopledger://counterparties", result.Contents[0].URI)

	resp = call(t, svc, "resources/read", ReadResourceParams{URI: "shopledger://broken"})
	require.NotNil(t, resp.JSONRPCResponse.Error)
	assert.Equal(t, InternalError, resp.JSONRPCResponse.Error.Code)

	resp = call(t, svc, "resources/read", ReadResourceParams{URI: "shopledger://nope"})
	require.NotNil(t, resp.JSONRPCResponse.Error)
	assert.Equal(t, InvalidParams, resp.JSONRPCResponse.Error.Code)
}

func TestService_NotificationsAndUnknownMethods(t *testing.T) {
	svc := newTestService(nil)

	resp := call(t, svc, "notifications/initialized", map[string]any{})
	assert.Equal(t, 202, resp.StatusCode)

	resp = call(t, svc, "sampling/createMessage", map[string]any{})
	require.NotNil(t, resp.JSONRPCResponse.Error)
	assert.Equal(t, MethodNotFound, resp.JSONRPCResponse.Error.Code)
}
