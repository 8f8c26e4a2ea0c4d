package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

var balanceTemplate = template.Must(template.New("balance").Parse(
	`Dear {{.Name}}, {{if .Settled}}your account with {{.Shop}} is settled.{{else}}your {{.Label}} at {{.Shop}} is {{.Amount}}.{{end}}`))

type balanceView struct {
	Name    string
	Shop    string
	Label   string
	Amount  string
	Settled bool
}

// directionLabel names the balance from the counterparty's point of view
func directionLabel(role counterparty.Role, d counterparty.Direction) string {
	switch {
	case role == counterparty.Customer && d == counterparty.Due:
		return "due amount"
	case role == counterparty.Customer:
		return "advance"
	case d == counterparty.Due:
		return "advance paid"
	default:
		return "payable amount"
	}
}

// RenderBalance builds the balance message body
func RenderBalance(name, shopName string, role counterparty.Role, b counterparty.Balance) (string, error) {
	var buf bytes.Buffer
	err := balanceTemplate.Execute(&buf, balanceView{
		Name:    name,
		Shop:    shopName,
		Label:   directionLabel(role, b.Direction),
		Amount:  b.Amount.StringFixed(2),
		Settled: b.Amount.IsZero(),
	})
	if err != nil {
		return "", fmt.Errorf("render balance message: %w", err)
	}
	return buf.String(), nil
}
