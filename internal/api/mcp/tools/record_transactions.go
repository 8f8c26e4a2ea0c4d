package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/common/utils"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type RecordTransactionsTool struct {
	engine *ledger.Engine
}

func NewRecordTransactionsTool(engine *ledger.Engine) *RecordTransactionsTool {
	return &RecordTransactionsTool{engine: engine}
}

func (t *RecordTransactionsTool) GetName() string {
	return "record-transactions"
}

func (t *RecordTransactionsTool) GetDescription() string {
	return "Records goods or money given to (outgoing) and received from (incoming) a counterparty and returns the new balance. " +
		"For a customer outgoing is a sale on credit and incoming is a receipt; for a supplier outgoing is a payment and incoming is a purchase."
}

func (t *RecordTransactionsTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"counterpartyId": map[string]string{
				"type":        "string",
				"description": "ID of the customer or supplier",
			},
			"role": roleSchema,
			"outgoingAmount": map[string]string{
				"type":        "string",
				"description": "Amount given by the shop, as a decimal string",
			},
			"incomingAmount": map[string]string{
				"type":        "string",
				"description": "Amount received by the shop, as a decimal string",
			},
			"date": dateSchema,
			"note": map[string]string{
				"type":        "string",
				"description": "Optional note stored on both rows",
			},
		},
		Required: []string{"counterpartyId", "role", "date"},
	}
}

func (t *RecordTransactionsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		CounterpartyID string `json:"counterpartyId"`
		Role           string `json:"role"`
		OutgoingAmount string `json:"outgoingAmount,omitempty"`
		IncomingAmount string `json:"incomingAmount,omitempty"`
		Date           string `json:"date"`
		Note           string `json:"note,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	req, err := buildRecordRequest(args.CounterpartyID, args.Role, args.OutgoingAmount, args.IncomingAmount, args.Date, args.Note)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	balance, err := t.engine.RecordTransactions(ctx, sc, req)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Transactions recorded", balance), nil
}

func buildRecordRequest(id, role, outgoing, incoming, date, note string) (ledger.RecordRequest, error) {
	var req ledger.RecordRequest
	r, err := parseRole(role)
	if err != nil {
		return req, err
	}
	out, err := utils.ParseAmount(outgoing, "outgoingAmount")
	if err != nil {
		return req, err
	}
	in, err := utils.ParseAmount(incoming, "incomingAmount")
	if err != nil {
		return req, err
	}
	occurredAt, err := utils.ParseISODate(date)
	if err != nil {
		return req, err
	}
	return ledger.RecordRequest{
		CounterpartyID: id,
		Role:           r,
		OutgoingAmount: out,
		IncomingAmount: in,
		OccurredAt:     occurredAt,
		Note:           note,
	}, nil
}
