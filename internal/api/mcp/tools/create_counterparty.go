package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/shop-ledger/backend/internal/common/utils"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
)

type CreateCounterpartyTool struct {
	engine *ledger.Engine
}

func NewCreateCounterpartyTool(engine *ledger.Engine) *CreateCounterpartyTool {
	return &CreateCounterpartyTool{engine: engine}
}

func (t *CreateCounterpartyTool) GetName() string {
	return "create-counterparty"
}

func (t *CreateCounterpartyTool) GetDescription() string {
	return "Adds a customer or supplier to the shop ledger, optionally with an opening balance"
}

func (t *CreateCounterpartyTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"id": map[string]string{
				"type":        "string",
				"description": "Optional UUID; generated when omitted",
			},
			"role": roleSchema,
			"displayName": map[string]string{
				"type":        "string",
				"description": "Name shown in listings and messages",
			},
			"phone": map[string]string{
				"type":        "string",
				"description": "Phone number used for balance messages; unique among active customers",
			},
			"address": map[string]string{
				"type":        "string",
				"description": "Optional address",
			},
			"openingAmount": map[string]string{
				"type":        "string",
				"description": "Opening balance as a decimal string",
			},
			"openingDirection": map[string]interface{}{
				"type":        "string",
				"description": "Side of the opening balance",
				"enum":        []string{string(counterparty.Due), string(counterparty.Advance)},
				"default":     string(counterparty.Due),
			},
			"date": dateSchema,
		},
		Required: []string{"role", "displayName"},
	}
}

func (t *CreateCounterpartyTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ID               string `json:"id,omitempty"`
		Role             string `json:"role"`
		DisplayName      string `json:"displayName"`
		Phone            string `json:"phone,omitempty"`
		Address          string `json:"address,omitempty"`
		OpeningAmount    string `json:"openingAmount,omitempty"`
		OpeningDirection string `json:"openingDirection,omitempty"`
		Date             string `json:"date,omitempty"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	sc, err := shopContext(ctx)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	req, err := buildCreateRequest(args.ID, args.Role, args.DisplayName, args.Phone, args.Address, args.OpeningAmount, args.OpeningDirection, args.Date)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}

	cp, err := t.engine.CreateCounterparty(ctx, sc, req)
	if err != nil {
		return mcp.ErrorResult(err), nil
	}
	return mcp.JSONResult("Counterparty created successfully", cp), nil
}

func buildCreateRequest(id, role, name, phone, address, amount, direction, date string) (ledger.CreateCounterpartyRequest, error) {
	var req ledger.CreateCounterpartyRequest
	if id != "" {
		if err := utils.ValidateUUID(id); err != nil {
			return req, err
		}
	}
	r, err := parseRole(role)
	if err != nil {
		return req, err
	}
	if err := utils.ValidateRequiredString(name, "displayName"); err != nil {
		return req, err
	}
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return req, err
	}
	opening, err := utils.ParseAmount(amount, "openingAmount")
	if err != nil {
		return req, err
	}
	dir := counterparty.Due
	if direction != "" {
		d, ok := counterparty.ParseDirection(direction)
		if !ok {
			return req, errors.NewValidationError("openingDirection must be due or advance")
		}
		dir = d
	}
	occurredAt, err := utils.ParseISODate(date)
	if err != nil {
		return req, err
	}
	return ledger.CreateCounterpartyRequest{
		ID:               id,
		Role:             r,
		DisplayName:      name,
		Phone:            normalized,
		Address:          address,
		OpeningAmount:    opening,
		OpeningDirection: dir,
		OccurredAt:       occurredAt,
	}, nil
}
