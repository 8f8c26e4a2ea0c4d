package notification

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

// DefaultInterval is the pause between consecutive messages in a group send
const DefaultInterval = 2 * time.Second

// Dispatcher sends balance messages through the shop's selected channel.
// Its failures never touch the ledger.
type Dispatcher struct {
	selections SelectionRepository
	channel    Channel
	logger     *slog.Logger
	interval   time.Duration
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(selections SelectionRepository, channel Channel, logger *slog.Logger, interval time.Duration) *Dispatcher {
	if interval < 0 {
		interval = 0
	}
	return &Dispatcher{
		selections: selections,
		channel:    channel,
		logger:     logger,
		interval:   interval,
	}
}

// Notify sends one balance message to one counterparty.
// It succeeds without sending when the shop has no selection or opted out.
func (d *Dispatcher) Notify(ctx context.Context, shopID, shopName string, cp counterparty.Counterparty, balance counterparty.Balance) error {
	selection, err := d.selections.GetSelection(ctx, shopID)
	if err != nil {
		return err
	}
	if !selection.Sends() {
		d.logger.DebugContext(ctx, "notification skipped, no channel selected", "shopID", shopID, "counterpartyID", cp.ID)
		return nil
	}
	if err := d.channel.Available(ctx); err != nil {
		return asPermissionError(err)
	}
	return d.send(ctx, selection, shopName, cp, balance)
}

func (d *Dispatcher) send(ctx context.Context, selection *ChannelSelection, shopName string, cp counterparty.Counterparty, balance counterparty.Balance) error {
	phone := strings.TrimSpace(cp.Phone)
	if phone == "" {
		return errors.NewValidationError("counterparty has no phone number").WithDetail("counterpartyId", cp.ID)
	}
	message, err := RenderBalance(cp.DisplayName, shopName, cp.Role, balance)
	if err != nil {
		return errors.NewInternalError("render message", err)
	}
	if err := d.channel.Send(ctx, phone, message, selection.SelectedChannelID); err != nil {
		if stderrors.Is(err, errors.ErrPermission) || stderrors.Is(err, errors.ErrChannelUnavailable) {
			return err
		}
		return errors.NewChannelUnavailableError("send failed", err)
	}
	d.logger.InfoContext(ctx, "balance notification sent",
		"shopID", cp.ShopID,
		"counterpartyID", cp.ID,
		"channel", selection.SelectedChannelID)
	return nil
}

// NotifyGroup sends the current balance to each counterparty in turn, pausing between messages.
// Missing phones and failed sends are counted, never fatal.
func (d *Dispatcher) NotifyGroup(ctx context.Context, shopID, shopName string, cps []counterparty.Counterparty) (*Result, error) {
	result := &Result{}
	selection, err := d.selections.GetSelection(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !selection.Sends() {
		return result, nil
	}
	if err := d.channel.Available(ctx); err != nil {
		return nil, asPermissionError(err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(d.interval), 1)
	}
	for i, cp := range cps {
		if strings.TrimSpace(cp.Phone) == "" {
			result.SkippedCount++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			d.logger.WarnContext(ctx, "group notification interrupted", "shopID", shopID, "error", err)
			result.FailCount += remaining(cps[i:])
			return result, nil
		}
		if err := d.send(ctx, selection, shopName, cp, cp.Balance()); err != nil {
			result.FailCount++
			d.logger.WarnContext(ctx, "group notification failed",
				"shopID", shopID,
				"counterpartyID", cp.ID,
				"error", err)
			continue
		}
		result.SuccessCount++
	}
	d.logger.InfoContext(ctx, "group notification finished",
		"shopID", shopID,
		"success", result.SuccessCount,
		"failed", result.FailCount,
		"skipped", result.SkippedCount)
	return result, nil
}

// remaining counts the counterparties with a phone
func remaining(cps []counterparty.Counterparty) int {
	n := 0
	for _, cp := range cps {
		if strings.TrimSpace(cp.Phone) != "" {
			n++
		}
	}
	return n
}

func asPermissionError(err error) error {
	if stderrors.Is(err, errors.ErrPermission) {
		return err
	}
	return errors.NewPermissionError("messaging channel not permitted", err)
}
