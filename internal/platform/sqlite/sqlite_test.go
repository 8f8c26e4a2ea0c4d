package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var shopCtx = &shop.Context{ShopID: "shop-1", ShopName: "Corner Store", UserID: "owner"}

var day = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func TestLedgerRepository_EngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewLedgerRepository(db, testLogger())
	engine := ledger.NewEngine(repo, testLogger())

	cp, err := engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{
		Role: counterparty.Customer, DisplayName: "Asha", Phone: "555-0101",
	})
	require.NoError(t, err)

	_, err = engine.RecordTransactions(ctx, shopCtx, ledger.RecordRequest{
		CounterpartyID: cp.ID, Role: counterparty.Customer, OutgoingAmount: decimal.RequireFromString("500"), OccurredAt: day,
	})
	require.NoError(t, err)
	balance, err := engine.RecordTransactions(ctx, shopCtx, ledger.RecordRequest{
		CounterpartyID: cp.ID, Role: counterparty.Customer, IncomingAmount: decimal.RequireFromString("700"), OccurredAt: day.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, counterparty.Advance, balance.Direction)
	assert.True(t, balance.Amount.Equal(decimal.NewFromInt(200)))

	stored, err := repo.GetCounterparty(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Version)
	assert.True(t, stored.Balance().Equal(*balance))
	assert.Equal(t, counterparty.SyncPending, stored.SyncState)

	txns, err := repo.ListTransactions(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, ledger.Sale, txns[0].Kind)
	assert.Equal(t, ledger.Receive, txns[1].Kind)
	assert.True(t, txns[0].OccurredAt.Equal(day))
	assert.True(t, stored.Balance().Equal(ledger.Replay(stored.Role, txns)))
}

func TestLedgerRepository_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	engine := ledger.NewEngine(NewLedgerRepository(openTestDB(t), testLogger()), testLogger())

	_, err := engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{Role: counterparty.Customer, DisplayName: "A", Phone: "555"})
	require.NoError(t, err)

	_, err = engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{Role: counterparty.Customer, DisplayName: "B", Phone: "555"})
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateConstraint), "got %v", err)

	_, err = engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{Role: counterparty.Supplier, DisplayName: "C", Phone: "555"})
	assert.NoError(t, err)

	other := &shop.Context{ShopID: "shop-2"}
	_, err = engine.CreateCounterparty(ctx, other, ledger.CreateCounterpartyRequest{Role: counterparty.Customer, DisplayName: "D", Phone: "555"})
	assert.NoError(t, err)
}

func TestLedgerRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(openTestDB(t), testLogger())
	engine := ledger.NewEngine(repo, testLogger())
	cp, err := engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{Role: counterparty.Supplier, DisplayName: "S"})
	require.NoError(t, err)

	err = repo.AppendTransactions(ctx, nil, ledger.Projection{
		ShopID: "shop-1", CounterpartyID: cp.ID, Balance: counterparty.Settled(), ExpectedVersion: cp.Version + 5, UpdatedAt: day,
	})
	assert.True(t, stderrors.Is(err, errors.ErrConflict))

	err = repo.SaveProjection(ctx, ledger.Projection{
		ShopID: "shop-1", CounterpartyID: "missing", Balance: counterparty.Settled(), ExpectedVersion: 1, UpdatedAt: day,
	})
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	_, err = repo.GetCounterparty(ctx, "shop-1", "missing")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestCounterpartySource_Listing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	engine := ledger.NewEngine(NewLedgerRepository(db, testLogger()), testLogger())

	for i := 0; i < 45; i++ {
		_, err := engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{
			Role:             counterparty.Customer,
			DisplayName:      fmt.Sprintf("Customer %02d", i),
			Phone:            fmt.Sprintf("0170%04d", i),
			OpeningAmount:    decimal.NewFromInt(int64(i)),
			OpeningDirection: counterparty.Due,
			OccurredAt:       day,
		})
		require.NoError(t, err)
	}
	_, err := engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{
		Role: counterparty.Supplier, DisplayName: "Wholesale", OpeningAmount: decimal.NewFromInt(70), OpeningDirection: counterparty.Due, OccurredAt: day,
	})
	require.NoError(t, err)
	_, err = engine.CreateCounterparty(ctx, shopCtx, ledger.CreateCounterpartyRequest{
		Role: counterparty.Supplier, DisplayName: "Mill 100%", OpeningAmount: decimal.NewFromInt(5), OpeningDirection: counterparty.Advance, OccurredAt: day,
	})
	require.NoError(t, err)

	src := NewCounterpartySource(db, counterparty.Customer, testLogger())
	c := listing.NewController[counterparty.Counterparty]("shop-1", src, testLogger(), listing.WithSummary[counterparty.Counterparty](src))

	page, err := c.Load(ctx, 1, 20, "", listing.SortNameAsc, listing.Replace)
	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.True(t, page.HasMore)
	assert.Equal(t, "Customer 00", page.Items[0].DisplayName)
	require.NotNil(t, page.Summary)
	assert.True(t, page.Summary.CustomerDue.Equal(decimal.NewFromInt(990)), page.Summary.CustomerDue.String())
	assert.True(t, page.Summary.SupplierDue.Equal(decimal.NewFromInt(70)))

	_, err = c.LoadMore(ctx)
	require.NoError(t, err)
	page, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Items, 45)
	assert.False(t, page.HasMore)
	seen := map[string]bool{}
	for _, cp := range page.Items {
		seen[cp.ID] = true
	}
	assert.Len(t, seen, 45)

	page, err = c.Load(ctx, 1, 10, "customer 1", listing.SortBalanceDesc, listing.Replace)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, "Customer 19", page.Items[0].DisplayName)

	page, err = c.Load(ctx, 1, 10, "01700044", "", listing.Replace)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	suppliers := NewCounterpartySource(db, counterparty.Supplier, testLogger())
	n, err := suppliers.Count(ctx, listing.Query{ShopID: "shop-1", Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = suppliers.Count(ctx, listing.Query{ShopID: "shop-1", Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExpenseAndShortageRepositories(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	expenses := NewExpenseRepository(db, testLogger())
	svc := expense.NewService(expenses, testLogger())
	_, err := svc.Add(ctx, shopCtx, expense.AddRequest{Title: "Rent", Amount: decimal.RequireFromString("1200.50"), SpentOn: day})
	require.NoError(t, err)
	_, err = svc.Add(ctx, shopCtx, expense.AddRequest{Title: "Electricity", Amount: decimal.RequireFromString("99.50"), SpentOn: day.AddDate(0, 0, 3)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, shopCtx, expense.AddRequest{Title: "Free", Amount: decimal.Zero})
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	total, err := svc.Total(ctx, "shop-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1300)))

	list, err := expenses.List(ctx, listing.Query{ShopID: "shop-1", Limit: 10, Sort: listing.SortDateDesc})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Electricity", list[0].Title)

	shortages := NewShortageRepository(db, testLogger())
	notes := shortage.NewService(shortages, testLogger())
	n, err := notes.Add(ctx, shopCtx, "Sugar 1kg")
	require.NoError(t, err)
	require.NoError(t, notes.SetStatus(ctx, "shop-1", n.ID, shortage.Done))
	err = notes.SetStatus(ctx, "shop-1", "missing", shortage.Done)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	found, err := shortages.List(ctx, listing.Query{ShopID: "shop-1", Limit: 10, Search: "SUGAR"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, shortage.Done, found[0].Status)
}

func TestSelectionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSelectionRepository(openTestDB(t), testLogger())

	sel, err := repo.GetSelection(ctx, "shop-1")
	require.NoError(t, err)
	assert.Nil(t, sel)

	svc := notification.NewSelectionService(repo, testLogger())
	_, err = svc.Select(ctx, "shop-1", "SHOPSMS", "SMS")
	require.NoError(t, err)
	sel, err = repo.GetSelection(ctx, "shop-1")
	require.NoError(t, err)
	assert.True(t, sel.Sends())

	_, err = svc.OptOut(ctx, "shop-1")
	require.NoError(t, err)
	sel, err = repo.GetSelection(ctx, "shop-1")
	require.NoError(t, err)
	assert.True(t, sel.IsNoSendOption)
	assert.False(t, sel.Sends())
}
