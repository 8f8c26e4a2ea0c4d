package expense

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Expense is money the shop spent outside any counterparty ledger
type Expense struct {
	ID        string                 `json:"id"`
	ShopID    string                 `json:"shopId"`
	Title     string                 `json:"title"`
	Amount    decimal.Decimal        `json:"amount"`
	SpentOn   time.Time              `json:"spentOn"`
	Note      string                 `json:"note,omitempty"`
	SyncState counterparty.SyncState `json:"syncState"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// AddRequest is the input for recording an expense
type AddRequest struct {
	Title   string
	Amount  decimal.Decimal
	SpentOn time.Time
	Note    string
}

// Repository stores expenses
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	TotalExpenses(ctx context.Context, shopID string) (decimal.Decimal, error)
}
