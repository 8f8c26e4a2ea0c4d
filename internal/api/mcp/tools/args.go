package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

func parseArgs(arguments json.RawMessage, v interface{}) *mcp.CallToolResult {
	if len(arguments) == 0 {
		arguments = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(arguments, v); err != nil {
		return mcp.ErrorResult(fmt.Errorf("Error parsing arguments: %w", err))
	}
	return nil
}

func shopContext(ctx context.Context) (*shop.Context, error) {
	sc, ok := shop.FromContext(ctx)
	if !ok {
		return nil, errors.NewValidationError("shop context is missing, send the X-Shop-Id header")
	}
	return sc, sc.Validate()
}

func parseRole(s string) (counterparty.Role, error) {
	role, ok := counterparty.ParseRole(s)
	if !ok {
		return "", errors.NewValidationError(fmt.Sprintf("role must be customer or supplier, got %q", s))
	}
	return role, nil
}

var roleSchema = map[string]interface{}{
	"type":        "string",
	"description": "Whether the counterparty buys from the shop (customer) or sells to it (supplier)",
	"enum":        []string{string(counterparty.Customer), string(counterparty.Supplier)},
}

var dateSchema = map[string]string{
	"type":        "string",
	"description": "Date in YYYY-MM-DD format",
	"pattern":     "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
}
