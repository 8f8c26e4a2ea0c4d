package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
)

type SelectChannelTool struct {
	selections *notification.SelectionService
}

func NewSelectChannelTool(selections *notification.SelectionService) *SelectChannelTool {
	return &SelectChannelTool{selections: selections}
}

func (t *SelectChannelTool) GetName() string {
	return "select-channel"
}

func (t *SelectChannelTool) GetDescription() string {
	return "Chooses the channel used for balance messages, or turns messages off for the shop"
}

func (t *SelectChannelTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"channelId": map[string]string{
				"type":        "string",
				"description": "Channel identifier, for example a SIM slot or sender ID",
			},
			"displayName": map[string]string{
				"type":        "string",
				"description": "Label shown to the shop owner",
			},
			"optOut": map[string]interface{}{
				"type":        "boolean",
				"description": "Stop sending messages; channelId is ignored",
				"default":     false,
			},
		},
	}
}

func (t *SelectChannelTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ChannelID   string `json:"channelId,omitempty"`
		DisplayName string `json:"displayName,omitempty"`
		OptOut      bool   `json:"optOut,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	var sel *notification.ChannelSelection
	if args.OptOut {
		sel, err = t.selections.OptOut(ctx, sc.ShopID)
	} else {
		sel, err = t.selections.Select(ctx, sc.ShopID, args.ChannelID, args.DisplayName)
	}
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Channel selection saved", sel), nil
}
