package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type NotifyGroupTool struct {
	app *app.App
}

func NewNotifyGroupTool(a *app.App) *NotifyGroupTool {
	return &NotifyGroupTool{app: a}
}

func (t *NotifyGroupTool) GetName() string {
	return "notify-group"
}

func (t *NotifyGroupTool) GetDescription() string {
	return "Sends each selected counterparty its current balance over the shop's chosen channel. " +
		"Counterparties without a phone are skipped."
}

func (t *NotifyGroupTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"role": roleSchema,
			"counterpartyIds": map[string]interface{}{
				"type":        "array",
				"description": "IDs to notify; omit to notify every active counterparty of the role",
				"items":       map[string]string{"type": "string"},
			},
		},
		Required: []string{"role"},
	}
}

func (t *NotifyGroupTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Role            string   `json:"role"`
		CounterpartyIDs []string `json:"counterpartyIds,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	role, err := parseRole(args.Role)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	all, err := t.app.AllCounterparties(ctx, sc.ShopID, role)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	targets, err := selectTargets(all, args.CounterpartyIDs)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	result, err := t.app.Dispatcher.NotifyGroup(ctx, sc.ShopID, sc.Name(), targets)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Group notification finished", result), nil
}

func selectTargets(all []counterparty.Counterparty, ids []string) ([]counterparty.Counterparty, error) {
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]counterparty.Counterparty, len(all))
	for _, cp := range all {
		byID[cp.ID] = cp
	}
	targets := make([]counterparty.Counterparty, 0, len(ids))
	for _, id := range ids {
		cp, ok := byID[id]
		if !ok {
			return nil, errors.NewNotFoundError("counterparty not found").WithDetail("counterpartyId", id)
		}
		targets = append(targets, cp)
	}
	return targets, nil
}
