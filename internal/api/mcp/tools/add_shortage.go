package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
)

type AddShortageTool struct {
	shortages *shortage.Service
}

func NewAddShortageTool(shortages *shortage.Service) *AddShortageTool {
	return &AddShortageTool{shortages: shortages}
}

func (t *AddShortageTool) GetName() string {
	return "add-shortage"
}

func (t *AddShortageTool) GetDescription() string {
	return "Notes an item the shop has run short of and needs to restock"
}

func (t *AddShortageTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"title": map[string]string{
				"type":        "string",
				"description": "Item name",
			},
		},
		Required: []string{"title"},
	}
}

func (t *AddShortageTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Title string `json:"title"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	note, err := t.shortages.Add(ctx, sc, args.Title)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Shortage noted", note), nil
}
