package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type ListCounterpartiesTool struct {
	app *app.App
}

func NewListCounterpartiesTool(a *app.App) *ListCounterpartiesTool {
	return &ListCounterpartiesTool{app: a}
}

func (t *ListCounterpartiesTool) GetName() string {
	return "list-counterparties"
}

func (t *ListCounterpartiesTool) GetDescription() string {
	return "Lists active customers or suppliers one page at a time with the shop's total dues"
}

func (t *ListCounterpartiesTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"role": roleSchema,
			"page": map[string]interface{}{
				"type":        "integer",
				"description": "1-based page number",
				"minimum":     1,
				"default":     1,
			},
			"pageSize": map[string]interface{}{
				"type":        "integer",
				"description": "Rows per page",
				"minimum":     1,
				"maximum":     100,
			},
			"search": map[string]string{
				"type":        "string",
				"description": "Case-insensitive match on name or phone",
			},
			"sort": map[string]interface{}{
				"type":        "string",
				"description": "Sort order",
				"enum":        []string{listing.SortUpdatedDesc, listing.SortNameAsc, listing.SortBalanceDesc, listing.SortCreatedDesc},
				"default":     listing.SortUpdatedDesc,
			},
		},
		Required: []string{"role"},
	}
}

func (t *ListCounterpartiesTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Role     string `json:"role"`
		Page     int    `json:"page,omitempty"`
		PageSize int    `json:"pageSize,omitempty"`
		Search   string `json:"search,omitempty"`
		Sort     string `json:"sort,omitempty"`
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
	if args.PageSize > 100 {
		args.PageSize = 100
	}

	ctrl := t.app.CounterpartyController(sc.ShopID, role)
	page, err := ctrl.Load(ctx, args.Page, args.PageSize, args.Search, args.Sort, listing.Replace)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Counterparties", page), nil
}
