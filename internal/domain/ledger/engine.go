package ledger

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

const maxAttempts = 3

// Engine records transactions and keeps counterparty balances equal to their replayed log
type Engine struct {
	repo     Repository
	logger   *slog.Logger
	listener BalanceListener
	now      func() time.Time
	locks    *KeyedMutex
	wg       sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithListener registers the receiver of committed balance changes
func WithListener(l BalanceListener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new ledger engine
func NewEngine(repo Repository, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wait blocks until every in-flight listener call has returned
func (e *Engine) Wait() {
	e.wg.Wait()
}

// CreateCounterparty inserts a counterparty and its optional opening transaction atomically
func (e *Engine) CreateCounterparty(ctx context.Context, sc *shop.Context, req CreateCounterpartyRequest) (*counterparty.Counterparty, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	role, ok := counterparty.ParseRole(string(req.Role))
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid role %q", req.Role))
	}
	req.Role = role
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, errors.NewValidationError("display name is required")
	}
	if req.OpeningAmount.IsNegative() {
		return nil, errors.NewValidationError("opening amount must not be negative")
	}
	direction := counterparty.Due
	if req.OpeningDirection != "" {
		if direction, ok = counterparty.ParseDirection(string(req.OpeningDirection)); !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid opening direction %q", req.OpeningDirection))
		}
	}

	now := e.now()
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	cp := &counterparty.Counterparty{
		ID:          id,
		ShopID:      sc.ShopID,
		DisplayName: name,
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Role:        req.Role,
		Status:      counterparty.Active,
		SyncState:   counterparty.SyncPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var opening []Transaction
	if req.OpeningAmount.IsPositive() {
		occurredAt := req.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = now
		}
		opening = append(opening, e.newTransaction(sc, cp.ID, Classify(req.Role, OpeningFlow(direction)), req.OpeningAmount, occurredAt, "opening balance", now))
	}
	cp.SetBalance(Replay(req.Role, opening))

	if err := e.repo.CreateCounterparty(ctx, cp, opening); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "counterparty created",
		"shopID", sc.ShopID,
		"counterpartyID", cp.ID,
		"role", cp.Role,
		"balance", cp.BalanceAmount.String(),
		"direction", cp.BalanceDirection)
	return cp, nil
}

// RecordTransactions appends up to two classified rows and returns the replayed balance
func (e *Engine) RecordTransactions(ctx context.Context, sc *shop.Context, req RecordRequest) (*counterparty.Balance, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := validateRecord(&req); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(sc.ShopID + "/" + req.CounterpartyID)
	defer unlock()

	var change *BalanceChange
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		change, err = e.record(ctx, sc, req)
		if err == nil {
			break
		}
		if !stderrors.Is(err, errors.ErrConflict) {
			return nil, err
		}
		e.logger.WarnContext(ctx, "balance version conflict, retrying",
			"shopID", sc.ShopID,
			"counterpartyID", req.CounterpartyID,
			"attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "transactions recorded",
		"shopID", sc.ShopID,
		"counterpartyID", req.CounterpartyID,
		"rows", len(change.Transactions),
		"balance", change.Current.Amount.String(),
		"direction", change.Current.Direction)

	e.notify(ctx, *change)
	balance := change.Current
	return &balance, nil
}

// validateRecord rejects bad input and normalises the role in place
func validateRecord(req *RecordRequest) error {
	if strings.TrimSpace(req.CounterpartyID) == "" {
		return errors.NewValidationError("counterparty ID is required")
	}
	role, ok := counterparty.ParseRole(string(req.Role))
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("invalid role %q", req.Role))
	}
	req.Role = role
	if req.OutgoingAmount.IsNegative() || req.IncomingAmount.IsNegative() {
		return errors.NewValidationError("amounts must not be negative")
	}
	if !req.OutgoingAmount.IsPositive() && !req.IncomingAmount.IsPositive() {
		return errors.NewValidationError("at least one amount must be greater than zero")
	}
	if req.OccurredAt.IsZero() {
		return errors.NewValidationError("transaction date is required")
	}
	return nil
}

func (e *Engine) record(ctx context.Context, sc *shop.Context, req RecordRequest) (*BalanceChange, error) {
	cp, err := e.repo.GetCounterparty(ctx, sc.ShopID, req.CounterpartyID)
	if err != nil {
		return nil, err
	}
	if cp.Role != req.Role {
		return nil, errors.NewValidationError(fmt.Sprintf("counterparty is a %s, not a %s", cp.Role, req.Role))
	}

	existing, err := e.repo.ListTransactions(ctx, sc.ShopID, cp.ID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var rows []Transaction
	if req.OutgoingAmount.IsPositive() {
		rows = append(rows, e.newTransaction(sc, cp.ID, Classify(cp.Role, Outgoing), req.OutgoingAmount, req.OccurredAt, req.Note, now))
	}
	if req.IncomingAmount.IsPositive() {
		rows = append(rows, e.newTransaction(sc, cp.ID, Classify(cp.Role, Incoming), req.IncomingAmount, req.OccurredAt, req.Note, now))
	}

	all := make([]Transaction, 0, len(existing)+len(rows))
	all = append(all, existing...)
	all = append(all, rows...)
	balance := Replay(cp.Role, all)

	err = e.repo.AppendTransactions(ctx, rows, Projection{
		ShopID:          sc.ShopID,
		CounterpartyID:  cp.ID,
		Balance:         balance,
		ExpectedVersion: cp.Version,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	previous := cp.Balance()
	cp.SetBalance(balance)
	cp.Version++
	cp.UpdatedAt = now
	cp.SyncState = counterparty.SyncPending

	return &BalanceChange{
		ShopID:       sc.ShopID,
		ShopName:     sc.Name(),
		Counterparty: *cp,
		Previous:     previous,
		Current:      balance,
		Transactions: rows,
	}, nil
}

func (e *Engine) newTransaction(sc *shop.Context, counterpartyID string, kind Kind, amount decimal.Decimal, occurredAt time.Time, note string, now time.Time) Transaction {
	return Transaction{
		ID:             ulid.Make().String(),
		ShopID:         sc.ShopID,
		CounterpartyID: counterpartyID,
		Kind:           kind,
		OccurredAt:     occurredAt,
		Amount:         amount,
		Note:           note,
		RecordedBy:     sc.UserID,
		SyncState:      counterparty.SyncPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// notify hands the change to the listener without waiting for it
func (e *Engine) notify(ctx context.Context, change BalanceChange) {
	if e.listener == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.ErrorContext(detached, "balance listener panicked",
					"shopID", change.ShopID,
					"counterpartyID", change.Counterparty.ID,
					"panic", r)
			}
		}()
		e.listener.BalanceChanged(detached, change)
	}()
}

// GetCounterparty retrieves a counterparty by ID
func (e *Engine) GetCounterparty(ctx context.Context, shopID string, counterpartyID string) (*counterparty.Counterparty, error) {
	return e.repo.GetCounterparty(ctx, shopID, counterpartyID)
}

// Statement returns the counterparty with its ordered log and running balances
func (e *Engine) Statement(ctx context.Context, shopID string, counterpartyID string) (*Statement, error) {
	cp, err := e.repo.GetCounterparty(ctx, shopID, counterpartyID)
	if err != nil {
		return nil, err
	}
	txns, err := e.repo.ListTransactions(ctx, shopID, counterpartyID)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Counterparty: *cp,
		Lines:        RunningBalances(cp.Role, txns),
		Balance:      Replay(cp.Role, txns),
	}, nil
}

// Reconcile replays the log and overwrites the projection when it differs
func (e *Engine) Reconcile(ctx context.Context, shopID string, counterpartyID string) (*ReconcileResult, error) {
	unlock := e.locks.Lock(shopID + "/" + counterpartyID)
	defer unlock()

	var result *ReconcileResult
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = e.reconcile(ctx, shopID, counterpartyID)
		if err == nil || !stderrors.Is(err, errors.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if result.Repaired {
		e.logger.WarnContext(ctx, "stale balance repaired",
			"shopID", shopID,
			"counterpartyID", counterpartyID,
			"stored", result.Stored.Amount.String(),
			"storedDirection", result.Stored.Direction,
			"replayed", result.Replayed.Amount.String(),
			"replayedDirection", result.Replayed.Direction)
	}
	return result, nil
}

func (e *Engine) reconcile(ctx context.Context, shopID string, counterpartyID string) (*ReconcileResult, error) {
	cp, err := e.repo.GetCounterparty(ctx, shopID, counterpartyID)
	if err != nil {
		return nil, err
	}
	txns, err := e.repo.ListTransactions(ctx, shopID, counterpartyID)
	if err != nil {
		return nil, err
	}
	replayed := Replay(cp.Role, txns)
	result := &ReconcileResult{
		CounterpartyID: counterpartyID,
		Stored:         cp.Balance(),
		Replayed:       replayed,
	}
	if result.Stored.Direction == replayed.Direction && result.Stored.Amount.Equal(replayed.Amount) {
		return result, nil
	}
	err = e.repo.SaveProjection(ctx, Projection{
		ShopID:          shopID,
		CounterpartyID:  counterpartyID,
		Balance:         replayed,
		ExpectedVersion: cp.Version,
		UpdatedAt:       e.now(),
	})
	if err != nil {
		return nil, err
	}
	result.Repaired = true
	return result, nil
}

// ReconcileShop reconciles every counterparty of a shop and keeps going past failures
func (e *Engine) ReconcileShop(ctx context.Context, shopID string) (*ReconcileReport, error) {
	if shopID == "" {
		return nil, errors.NewValidationError("shop ID is required")
	}
	ids, err := e.repo.ListCounterpartyIDs(ctx, shopID)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{ShopID: shopID}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		result, err := e.Reconcile(ctx, shopID, id)
		if err != nil {
			report.Failed++
			e.logger.ErrorContext(ctx, "reconcile failed",
				"shopID", shopID,
				"counterpartyID", id,
				"error", err)
			continue
		}
		if result.Repaired {
			report.Repaired++
		}
		report.Results = append(report.Results, *result)
	}
	e.logger.InfoContext(ctx, "shop reconciled",
		"shopID", shopID,
		"checked", report.Checked,
		"repaired", report.Repaired,
		"failed", report.Failed)
	return report, nil
}
