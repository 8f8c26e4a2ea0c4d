package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type ReconcileCounterpartyTool struct {
	engine *ledger.Engine
}

func NewReconcileCounterpartyTool(engine *ledger.Engine) *ReconcileCounterpartyTool {
	return &ReconcileCounterpartyTool{engine: engine}
}

func (t *ReconcileCounterpartyTool) GetName() string {
	return "reconcile-counterparty"
}

func (t *ReconcileCounterpartyTool) GetDescription() string {
	return "Replays the transaction log and repairs the stored balance of one counterparty, or of every counterparty in the shop when no ID is given"
}

func (t *ReconcileCounterpartyTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"counterpartyId": map[string]string{
				"type":        "string",
				"description": "ID of the counterparty; omit to reconcile the whole shop",
			},
		},
	}
}

func (t *ReconcileCounterpartyTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		CounterpartyID string `json:"counterpartyId,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	if args.CounterpartyID == "" {
		report, err := t.engine.ReconcileShop(ctx, sc.ShopID)
		if err != nil {
			return mcp.ErrorResult(err), nil
		}
		return mcp.JSONResult("Shop reconciled", report), nil
	}

	result, err := t.engine.Reconcile(ctx, sc.ShopID, args.CounterpartyID)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Counterparty reconciled", result), nil
}
