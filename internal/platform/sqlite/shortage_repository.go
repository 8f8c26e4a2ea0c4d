package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
)

const shortageColumns = `id, shop_id, title, status, sync_state, created_at, updated_at`

var shortageOrder = map[string]string{
	listing.SortUpdatedDesc: "updated_at DESC, id ASC",
	listing.SortNameAsc:     "title COLLATE NOCASE ASC, id ASC",
	listing.SortCreatedDesc: "created_at DESC, id ASC",
	listing.SortDateDesc:    "created_at DESC, id ASC",
}

// ShortageRepository stores shortage notes and pages through them
type ShortageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewShortageRepository creates a new SQLite shortage repository
func NewShortageRepository(db *sql.DB, logger *slog.Logger) *ShortageRepository {
	return &ShortageRepository{db: db, logger: logger}
}

// CreateNote inserts a shortage note
func (r *ShortageRepository) CreateNote(ctx context.Context, n *shortage.Note) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO shortages (`+shortageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ShopID, n.Title, string(n.Status), string(n.SyncState), toUnix(n.CreatedAt), toUnix(n.UpdatedAt))
	if err != nil {
		r.logger.Error("Failed to insert shortage", "error", err, "noteID", n.ID)
		return errors.NewStorageError("failed to insert shortage", err)
	}
	return nil
}

// UpdateStatus changes the status of a note
func (r *ShortageRepository) UpdateStatus(ctx context.Context, shopID, id string, status shortage.Status, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shortages SET status = ?, sync_state = ?, updated_at = ? WHERE shop_id = ? AND id = ?`,
		string(status), string(counterparty.SyncPending), toUnix(updatedAt), shopID, id)
	if err != nil {
		return errors.NewStorageError("failed to update shortage", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageError("failed to update shortage", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("shortage %s not found", id))
	}
	return nil
}

func shortageWhere(q listing.Query) (string, []any) {
	clause := "shop_id = ?"
	args := []any{q.ShopID}
	if q.Search != "" {
		clause += ` AND LOWER(title) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(q.Search))
	}
	return clause, args
}

// List returns one page of shortage notes
func (r *ShortageRepository) List(ctx context.Context, q listing.Query) ([]shortage.Note, error) {
	order, ok := shortageOrder[q.Sort]
	if !ok {
		order = shortageOrder[listing.SortUpdatedDesc]
	}
	clause, args := shortageWhere(q)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM shortages WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		shortageColumns, clause, order), args...)
	if err != nil {
		return nil, errors.NewStorageError("failed to list shortages", err)
	}
	defer rows.Close()

	out := []shortage.Note{}
	for rows.Next() {
		var (
			n                    shortage.Note
			status, syncState    string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&n.ID, &n.ShopID, &n.Title, &status, &syncState, &createdAt, &updatedAt); err != nil {
			return nil, errors.NewStorageError("failed to scan shortage", err)
		}
		n.Status = shortage.Status(status)
		n.SyncState = counterparty.SyncState(syncState)
		n.CreatedAt = fromUnix(createdAt)
		n.UpdatedAt = fromUnix(updatedAt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to list shortages", err)
	}
	return out, nil
}

// Count returns the number of notes matching q
func (r *ShortageRepository) Count(ctx context.Context, q listing.Query) (int, error) {
	clause, args := shortageWhere(q)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shortages WHERE `+clause, args...).Scan(&n); err != nil {
		return 0, errors.NewStorageError("failed to count shortages", err)
	}
	return n, nil
}

var (
	_ shortage.Repository           = (*ShortageRepository)(nil)
	_ listing.Source[shortage.Note] = (*ShortageRepository)(nil)
)
