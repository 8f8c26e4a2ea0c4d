package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
)

// SelectionRepository stores the per-shop channel selection
type SelectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSelectionRepository creates a new SQLite selection repository
func NewSelectionRepository(db *sql.DB, logger *slog.Logger) *SelectionRepository {
	return &SelectionRepository{db: db, logger: logger}
}

// GetSelection returns the shop's selection, or nil when none exists
func (r *SelectionRepository) GetSelection(ctx context.Context, shopID string) (*notification.ChannelSelection, error) {
	var (
		sel       notification.ChannelSelection
		noSend    int
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT shop_id, selected_channel_id, display_name, is_no_send_option, updated_at
		FROM notification_channel_selection WHERE shop_id = ?`, shopID).
		Scan(&sel.ShopID, &sel.SelectedChannelID, &sel.DisplayName, &noSend, &updatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewStorageError("failed to read channel selection", err)
	}
	sel.IsNoSendOption = noSend != 0
	sel.UpdatedAt = fromUnix(updatedAt)
	return &sel, nil
}

// SaveSelection replaces the shop's selection
func (r *SelectionRepository) SaveSelection(ctx context.Context, sel *notification.ChannelSelection) error {
	noSend := 0
	if sel.IsNoSendOption {
		noSend = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO notification_channel_selection
		(shop_id, selected_channel_id, display_name, is_no_send_option, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (shop_id) DO UPDATE SET
			selected_channel_id = excluded.selected_channel_id,
			display_name = excluded.display_name,
			is_no_send_option = excluded.is_no_send_option,
			updated_at = excluded.updated_at`,
		sel.ShopID, sel.SelectedChannelID, sel.DisplayName, noSend, toUnix(sel.UpdatedAt))
	if err != nil {
		r.logger.Error("Failed to save channel selection", "error", err, "shopID", sel.ShopID)
		return errors.NewStorageError("failed to save channel selection", err)
	}
	return nil
}

var _ notification.SelectionRepository = (*SelectionRepository)(nil)
