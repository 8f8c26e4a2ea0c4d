package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
)

const counterpartyColumns = `id, shop_id, display_name, phone, address, role, status,
	balance_amount, balance_direction, sync_state, version, created_at, updated_at`

const transactionColumns = `id, shop_id, counterparty_id, kind, occurred_at, amount, note,
	recorded_by, sync_state, created_at, updated_at`

// LedgerRepository implements ledger.Repository on SQLite
type LedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLedgerRepository creates a new SQLite ledger repository
func NewLedgerRepository(db *sql.DB, logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

// CreateCounterparty inserts the counterparty and its opening rows in one transaction
func (r *LedgerRepository) CreateCounterparty(ctx context.Context, cp *counterparty.Counterparty, opening []ledger.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO counterparties (`+counterpartyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.ShopID, cp.DisplayName, cp.Phone, cp.Address, string(cp.Role), string(cp.Status),
		cp.BalanceAmount.String(), string(cp.BalanceDirection), string(cp.SyncState), cp.Version,
		toUnix(cp.CreatedAt), toUnix(cp.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateConstraintError("an active customer with this phone already exists").
				WithDetail("phone", cp.Phone)
		}
		r.logger.Error("Failed to insert counterparty", "error", err, "counterpartyID", cp.ID)
		return errors.NewStorageError("failed to insert counterparty", err)
	}

	if err := insertTransactions(ctx, tx, opening); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit counterparty", err)
	}
	return nil
}

// GetCounterparty retrieves a counterparty by ID
func (r *LedgerRepository) GetCounterparty(ctx context.Context, shopID string, counterpartyID string) (*counterparty.Counterparty, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+counterpartyColumns+` FROM counterparties WHERE shop_id = ? AND id = ?`, shopID, counterpartyID)
	cp, err := scanCounterparty(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("counterparty %s not found", counterpartyID))
		}
		return nil, errors.NewStorageError("failed to read counterparty", err)
	}
	return cp, nil
}

// ListCounterpartyIDs lists every counterparty ID of a shop
func (r *LedgerRepository) ListCounterpartyIDs(ctx context.Context, shopID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM counterparties WHERE shop_id = ? ORDER BY id`, shopID)
	if err != nil {
		return nil, errors.NewStorageError("failed to list counterparties", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewStorageError("failed to scan counterparty ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list counterparties", err)
	}
	return ids, nil
}

// ListTransactions lists the full log of a counterparty in statement order
func (r *LedgerRepository) ListTransactions(ctx context.Context, shopID string, counterpartyID string) ([]ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE shop_id = ? AND counterparty_id = ?
		ORDER BY occurred_at, created_at, id`, shopID, counterpartyID)
	if err != nil {
		return nil, errors.NewStorageError("failed to list transactions", err)
	}
	defer rows.Close()

	var txns []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.NewStorageError("failed to scan transaction", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list transactions", err)
	}
	return txns, nil
}

// AppendTransactions inserts rows and writes the projection in one transaction
func (r *LedgerRepository) AppendTransactions(ctx context.Context, txns []ledger.Transaction, p ledger.Projection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := updateProjection(ctx, tx, p); err != nil {
		return err
	}
	if err := insertTransactions(ctx, tx, txns); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit transactions", err)
	}
	return nil
}

// SaveProjection overwrites the stored balance with a version check
func (r *LedgerRepository) SaveProjection(ctx context.Context, p ledger.Projection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := updateProjection(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit projection", err)
	}
	return nil
}

func updateProjection(ctx context.Context, tx *sql.Tx, p ledger.Projection) error {
	res, err := tx.ExecContext(ctx, `UPDATE counterparties
		SET balance_amount = ?, balance_direction = ?, sync_state = ?, version = version + 1, updated_at = ?
		WHERE shop_id = ? AND id = ? AND version = ?`,
		p.Balance.Amount.String(), string(p.Balance.Direction), string(counterparty.SyncPending), toUnix(p.UpdatedAt),
		p.ShopID, p.CounterpartyID, p.ExpectedVersion)
	if err != nil {
		return errors.NewStorageError("failed to update balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageError("failed to update balance", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM counterparties WHERE shop_id = ? AND id = ?`, p.ShopID, p.CounterpartyID).Scan(&exists)
	if err != nil {
		return errors.NewStorageError("failed to check counterparty", err)
	}
	if exists == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("counterparty %s not found", p.CounterpartyID))
	}
	return errors.NewConflictError("counterparty balance changed concurrently").WithDetail("counterpartyId", p.CounterpartyID)
}

func insertTransactions(ctx context.Context, tx *sql.Tx, txns []ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewStorageError("failed to prepare transaction insert", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		_, err := stmt.ExecContext(ctx, t.ID, t.ShopID, t.CounterpartyID, string(t.Kind), toUnix(t.OccurredAt),
			t.Amount.String(), t.Note, t.RecordedBy, string(t.SyncState), toUnix(t.CreatedAt), toUnix(t.UpdatedAt))
		if err != nil {
			return errors.NewStorageError("failed to insert transaction", err)
		}
	}
	return nil
}

func scanCounterparty(s scanner) (*counterparty.Counterparty, error) {
	var (
		cp                      counterparty.Counterparty
		role, status, direction string
		syncState, amount       string
		createdAt, updatedAt    int64
	)
	err := s.Scan(&cp.ID, &cp.ShopID, &cp.DisplayName, &cp.Phone, &cp.Address, &role, &status,
		&amount, &direction, &syncState, &cp.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	cp.BalanceAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", amount, err)
	}
	cp.Role = counterparty.Role(role)
	cp.Status = counterparty.Status(status)
	cp.BalanceDirection = counterparty.Direction(direction)
	cp.SyncState = counterparty.SyncState(syncState)
	cp.CreatedAt = fromUnix(createdAt)
	cp.UpdatedAt = fromUnix(updatedAt)
	return &cp, nil
}

func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var (
		t                                ledger.Transaction
		kind, amount, syncState          string
		occurredAt, createdAt, updatedAt int64
	)
	err := s.Scan(&t.ID, &t.ShopID, &t.CounterpartyID, &kind, &occurredAt, &amount, &t.Note,
		&t.RecordedBy, &syncState, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	t.Kind = ledger.Kind(kind)
	t.SyncState = counterparty.SyncState(syncState)
	t.OccurredAt = fromUnix(occurredAt)
	t.CreatedAt = fromUnix(createdAt)
	t.UpdatedAt = fromUnix(updatedAt)
	return &t, nil
}

var _ ledger.Repository = (*LedgerRepository)(nil)
