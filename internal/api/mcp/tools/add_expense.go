package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/common/utils"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type AddExpenseTool struct {
	expenses *expense.Service
}

func NewAddExpenseTool(expenses *expense.Service) *AddExpenseTool {
	return &AddExpenseTool{expenses: expenses}
}

func (t *AddExpenseTool) GetName() string {
	return "add-expense"
}

func (t *AddExpenseTool) GetDescription() string {
	return "Records money the shop spent, such as rent or wages, outside any customer or supplier ledger"
}

func (t *AddExpenseTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"title": map[string]string{
				"type":        "string",
				"description": "What the money was spent on",
			},
			"amount": map[string]string{
				"type":        "string",
				"description": "Amount as a decimal string",
			},
			"date": dateSchema,
			"note": map[string]string{
				"type":        "string",
				"description": "Optional note",
			},
		},
		Required: []string{"title", "amount"},
	}
}

func (t *AddExpenseTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Title  string `json:"title"`
		Amount string `json:"amount"`
		Date   string `json:"date,omitempty"`
		Note   string `json:"note,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	amount, err := utils.ParseAmount(args.Amount, "amount")
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	spentOn, err := utils.ParseISODate(args.Date)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	e, err := t.expenses.Add(ctx, sc, expense.AddRequest{
		Title:   args.Title,
		Amount:  amount,
		SpentOn: spentOn,
		Note:    args.Note,
	})
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Expense recorded", e), nil
}
