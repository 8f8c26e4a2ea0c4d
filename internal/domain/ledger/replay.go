package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Replay derives a balance from the full transaction log of one counterparty.
// Kinds that do not belong to role are ignored.
func Replay(role counterparty.Role, txns []Transaction) counterparty.Balance {
	outflow := decimal.Zero
	inflow := decimal.Zero
	for _, tx := range txns {
		switch {
		case isOutflow(role, tx.Kind):
			outflow = outflow.Add(tx.Amount)
		case isInflow(role, tx.Kind):
			inflow = inflow.Add(tx.Amount)
		}
	}
	return balanceOf(outflow, inflow)
}

func balanceOf(outflow, inflow decimal.Decimal) counterparty.Balance {
	if outflow.GreaterThan(inflow) {
		return counterparty.Balance{Amount: outflow.Sub(inflow), Direction: counterparty.Due}
	}
	return counterparty.Balance{Amount: inflow.Sub(outflow), Direction: counterparty.Advance}
}

// SortForStatement orders by occurrence date, then creation time, then ID
func SortForStatement(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// RunningBalances annotates each transaction with the balance after it
func RunningBalances(role counterparty.Role, txns []Transaction) []StatementLine {
	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	SortForStatement(sorted)

	lines := make([]StatementLine, 0, len(sorted))
	outflow := decimal.Zero
	inflow := decimal.Zero
	for _, tx := range sorted {
		switch {
		case isOutflow(role, tx.Kind):
			outflow = outflow.Add(tx.Amount)
		case isInflow(role, tx.Kind):
			inflow = inflow.Add(tx.Amount)
		}
		lines = append(lines, StatementLine{Transaction: tx, RunningBalance: balanceOf(outflow, inflow)})
	}
	return lines
}
