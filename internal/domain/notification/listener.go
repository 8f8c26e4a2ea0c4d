package notification

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
)

// Listener forwards committed balance changes to the dispatcher
type Listener struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewListener creates a ledger.BalanceListener backed by d
func NewListener(d *Dispatcher, logger *slog.Logger) *Listener {
	return &Listener{dispatcher: d, logger: logger}
}

// BalanceChanged implements ledger.BalanceListener
func (l *Listener) BalanceChanged(ctx context.Context, change ledger.BalanceChange) {
	err := l.dispatcher.Notify(ctx, change.ShopID, change.ShopName, change.Counterparty, change.Current)
	if err == nil {
		return
	}
	attrs := []any{
		"shopID", change.ShopID,
		"counterpartyID", change.Counterparty.ID,
		"error", err,
	}
	switch {
	case stderrors.Is(err, errors.ErrPermission):
		l.logger.WarnContext(ctx, "notification permission missing", attrs...)
	case stderrors.Is(err, errors.ErrValidation):
		l.logger.WarnContext(ctx, "notification skipped", attrs...)
	default:
		l.logger.WarnContext(ctx, "notification failed", attrs...)
	}
}

var _ ledger.BalanceListener = (*Listener)(nil)
