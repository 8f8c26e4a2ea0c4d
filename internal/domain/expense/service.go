package expense

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

// Service provides expense-related business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new expense service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add records an expense
func (s *Service) Add(ctx context.Context, sc *shop.Context, req AddRequest) (*Expense, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.NewValidationError("title is required")
	}
	if !req.Amount.IsPositive() {
		return nil, errors.NewValidationError("amount must be greater than zero")
	}

	now := s.now()
	spentOn := req.SpentOn
	if spentOn.IsZero() {
		spentOn = now
	}
	e := &Expense{
		ID:        ulid.Make().String(),
		ShopID:    sc.ShopID,
		Title:     title,
		Amount:    req.Amount,
		SpentOn:   spentOn,
		Note:      strings.TrimSpace(req.Note),
		SyncState: counterparty.SyncPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "expense added", "shopID", sc.ShopID, "expenseID", e.ID, "amount", e.Amount.String())
	return e, nil
}

// Total returns the sum of all expenses of a shop
func (s *Service) Total(ctx context.Context, shopID string) (decimal.Decimal, error) {
	if shopID == "" {
		return decimal.Zero, errors.NewValidationError("shop ID is required")
	}
	return s.repo.TotalExpenses(ctx, shopID)
}
