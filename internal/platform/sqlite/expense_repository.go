package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
)

const expenseColumns = `id, shop_id, title, amount, spent_on, note, sync_state, created_at, updated_at`

var expenseOrder = map[string]string{
	listing.SortUpdatedDesc: "updated_at DESC, id ASC",
	listing.SortNameAsc:     "title COLLATE NOCASE ASC, id ASC",
	listing.SortBalanceDesc: "CAST(amount AS REAL) DESC, id ASC",
	listing.SortCreatedDesc: "created_at DESC, id ASC",
	listing.SortDateDesc:    "spent_on DESC, id ASC",
}

// ExpenseRepository stores expenses and pages through them
type ExpenseRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExpenseRepository creates a new SQLite expense repository
func NewExpenseRepository(db *sql.DB, logger *slog.Logger) *ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

// CreateExpense inserts an expense
func (r *ExpenseRepository) CreateExpense(ctx context.Context, e *expense.Expense) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ShopID, e.Title, e.Amount.String(), toUnix(e.SpentOn), e.Note, string(e.SyncState),
		toUnix(e.CreatedAt), toUnix(e.UpdatedAt))
	if err != nil {
		r.logger.Error("Failed to insert expense", "error", err, "expenseID", e.ID)
		return errors.NewStorageError("failed to insert expense", err)
	}
	return nil
}

// TotalExpenses sums every expense of a shop
func (r *ExpenseRepository) TotalExpenses(ctx context.Context, shopID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM expenses WHERE shop_id = ?`, shopID)
	if err != nil {
		return decimal.Zero, errors.NewStorageError("failed to read expenses", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, errors.NewStorageError("failed to scan expense", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, errors.NewStorageError("invalid stored amount", err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, errors.NewStorageError("failed to read expenses", err)
	}
	return total, nil
}

func expenseWhere(q listing.Query) (string, []any) {
	clause := "shop_id = ?"
	args := []any{q.ShopID}
	if q.Search != "" {
		clause += ` AND LOWER(title) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(q.Search))
	}
	return clause, args
}

// List returns one page of expenses
func (r *ExpenseRepository) List(ctx context.Context, q listing.Query) ([]expense.Expense, error) {
	order, ok := expenseOrder[q.Sort]
	if !ok {
		order = expenseOrder[listing.SortUpdatedDesc]
	}
	clause, args := expenseWhere(q)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		expenseColumns, clause, order), args...)
	if err != nil {
		return nil, errors.NewStorageError("failed to list expenses", err)
	}
	defer rows.Close()

	out := []expense.Expense{}
	for rows.Next() {
		var (
			e                             expense.Expense
			amount, syncState             string
			spentOn, createdAt, updatedAt int64
		)
		if err := rows.Scan(&e.ID, &e.ShopID, &e.Title, &amount, &spentOn, &e.Note, &syncState, &createdAt, &updatedAt); err != nil {
			return nil, errors.NewStorageError("failed to scan expense", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.NewStorageError("invalid stored amount", err)
		}
		e.SyncState = counterparty.SyncState(syncState)
		e.SpentOn = fromUnix(spentOn)
		e.CreatedAt = fromUnix(createdAt)
		e.UpdatedAt = fromUnix(updatedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list expenses", err)
	}
	return out, nil
}

// Count returns the number of expenses matching q
func (r *ExpenseRepository) Count(ctx context.Context, q listing.Query) (int, error) {
	clause, args := expenseWhere(q)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE `+clause, args...).Scan(&n); err != nil {
		return 0, errors.NewStorageError("failed to count expenses", err)
	}
	return n, nil
}

var (
	_ expense.Repository              = (*ExpenseRepository)(nil)
	_ listing.Source[expense.Expense] = (*ExpenseRepository)(nil)
)
