package tools

import (
	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

// All returns every ledger tool wired to a
func All(a *app.App) []mcp.ToolHandler {
	return []mcp.ToolHandler{
		NewCreateCounterpartyTool(a.Engine),
		NewRecordTransactionsTool(a.Engine),
		NewListCounterpartiesTool(a),
		NewReconcileCounterpartyTool(a.Engine),
		NewNotifyGroupTool(a),
		NewAddExpenseTool(a.Expenses),
		NewAddShortageTool(a.Shortages),
		NewSelectChannelTool(a.Selections),
	}
}
