package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
)

var counterpartyOrder = map[string]string{
	listing.SortUpdatedDesc: "updated_at DESC, id ASC",
	listing.SortNameAsc:     "display_name COLLATE NOCASE ASC, id ASC",
	listing.SortBalanceDesc: "CAST(balance_amount AS REAL) DESC, id ASC",
	listing.SortCreatedDesc: "created_at DESC, id ASC",
}

// CounterpartySource lists active counterparties of one role
type CounterpartySource struct {
	db     *sql.DB
	role   counterparty.Role
	logger *slog.Logger
}

// NewCounterpartySource creates a listing source for role
func NewCounterpartySource(db *sql.DB, role counterparty.Role, logger *slog.Logger) *CounterpartySource {
	return &CounterpartySource{db: db, role: role, logger: logger}
}

func (s *CounterpartySource) where(q listing.Query) (string, []any) {
	clause := "shop_id = ? AND role = ? AND status = ?"
	args := []any{q.ShopID, string(s.role), string(counterparty.Active)}
	if q.Search != "" {
		clause += ` AND (LOWER(display_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`
		p := likePattern(q.Search)
		args = append(args, p, p)
	}
	return clause, args
}

// List returns one page of counterparties
func (s *CounterpartySource) List(ctx context.Context, q listing.Query) ([]counterparty.Counterparty, error) {
	order, ok := counterpartyOrder[q.Sort]
	if !ok {
		order = counterpartyOrder[listing.SortUpdatedDesc]
	}
	clause, args := s.where(q)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM counterparties WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		counterpartyColumns, clause, order), args...)
	if err != nil {
		return nil, errors.NewStorageError("failed to list counterparties", err)
	}
	defer rows.Close()

	out := []counterparty.Counterparty{}
	for rows.Next() {
		cp, err := scanCounterparty(rows)
		if err != nil {
			return nil, errors.NewStorageError("failed to scan counterparty", err)
		}
		out = append(out, *cp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list counterparties", err)
	}
	return out, nil
}

// Count returns the number of rows List would page through
func (s *CounterpartySource) Count(ctx context.Context, q listing.Query) (int, error) {
	clause, args := s.where(q)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM counterparties WHERE `+clause, args...).Scan(&n); err != nil {
		return 0, errors.NewStorageError("failed to count counterparties", err)
	}
	return n, nil
}

// DueSummary totals due balances by role over every active counterparty
func (s *CounterpartySource) DueSummary(ctx context.Context, shopID string) (counterparty.DueSummary, error) {
	return dueSummary(ctx, s.db, shopID)
}

func dueSummary(ctx context.Context, db *sql.DB, shopID string) (counterparty.DueSummary, error) {
	summary := counterparty.DueSummary{CustomerDue: decimal.Zero, SupplierDue: decimal.Zero}
	rows, err := db.QueryContext(ctx, `SELECT role, balance_amount FROM counterparties
		WHERE shop_id = ? AND status = ? AND balance_direction = ?`,
		shopID, string(counterparty.Active), string(counterparty.Due))
	if err != nil {
		return summary, errors.NewStorageError("failed to read due totals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, amount string
		if err := rows.Scan(&role, &amount); err != nil {
			return summary, errors.NewStorageError("failed to scan due total", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return summary, errors.NewStorageError("invalid stored balance", err)
		}
		if counterparty.Role(role) == counterparty.Supplier {
			summary.SupplierDue = summary.SupplierDue.Add(d)
		} else {
			summary.CustomerDue = summary.CustomerDue.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return summary, errors.NewStorageError("failed to read due totals", err)
	}
	return summary, nil
}

var (
	_ listing.Source[counterparty.Counterparty] = (*CounterpartySource)(nil)
	_ listing.SummarySource                     = (*CounterpartySource)(nil)
)
