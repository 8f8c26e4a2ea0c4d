package repository

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testShop() *shop.Context {
	return &shop.Context{ShopID: "shop-1", ShopName: "Corner Store", UserID: "user-1"}
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestLedgerRepository_EngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger())
	engine := ledger.NewEngine(repo, testLogger())

	cp, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
		Role:        counterparty.Customer,
		DisplayName: "Asha",
		Phone:       "+8801700000001",
	})
	require.NoError(t, err)

	_, err = engine.RecordTransactions(ctx, testShop(), ledger.RecordRequest{
		CounterpartyID: cp.ID,
		Role:           counterparty.Customer,
		OutgoingAmount: decimal.NewFromInt(500),
		OccurredAt:     day,
	})
	require.NoError(t, err)
	balance, err := engine.RecordTransactions(ctx, testShop(), ledger.RecordRequest{
		CounterpartyID: cp.ID,
		Role:           counterparty.Customer,
		IncomingAmount: decimal.NewFromInt(700),
		OccurredAt:     day.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, counterparty.Advance, balance.Direction)
	assert.True(t, balance.Amount.Equal(decimal.NewFromInt(200)))

	stored, err := repo.GetCounterparty(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", stored.DisplayName)
	assert.Equal(t, int64(3), stored.Version)
	assert.True(t, stored.Balance().Equal(*balance))

	txns, err := repo.ListTransactions(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, ledger.Sale, txns[0].Kind)
	assert.Equal(t, ledger.Receive, txns[1].Kind)
	assert.True(t, txns[0].OccurredAt.Equal(day))

	ids, err := repo.ListCounterpartyIDs(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, []string{cp.ID}, ids)
}

func TestLedgerRepository_OpeningBalanceWrittenAtomically(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger())
	engine := ledger.NewEngine(repo, testLogger())

	cp, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
		Role:             counterparty.Supplier,
		DisplayName:      "Wholesale Co",
		OpeningAmount:    decimal.NewFromInt(1000),
		OpeningDirection: counterparty.Advance,
		OccurredAt:       day,
	})
	require.NoError(t, err)

	txns, err := repo.ListTransactions(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, ledger.Purchase, txns[0].Kind)

	stored, err := repo.GetCounterparty(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, counterparty.Advance, stored.BalanceDirection)
	assert.True(t, stored.BalanceAmount.Equal(decimal.NewFromInt(1000)))
}

func TestLedgerRepository_Duplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("active customer phone", func(t *testing.T) {
		engine := ledger.NewEngine(NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger()), testLogger())
		_, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
			Role: counterparty.Customer, DisplayName: "Asha", Phone: "+8801700000001",
		})
		require.NoError(t, err)

		_, err = engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
			Role: counterparty.Customer, DisplayName: "Asha Again", Phone: "+8801700000001",
		})
		assert.True(t, stderrors.Is(err, commonErrors.ErrDuplicateConstraint))

		_, err = engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
			Role: counterparty.Supplier, DisplayName: "Asha Traders", Phone: "+8801700000001",
		})
		assert.NoError(t, err)
	})

	t.Run("counterparty ID", func(t *testing.T) {
		engine := ledger.NewEngine(NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger()), testLogger())
		_, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
			ID: "cp-1", Role: counterparty.Supplier, DisplayName: "First",
		})
		require.NoError(t, err)

		_, err = engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
			ID: "cp-1", Role: counterparty.Supplier, DisplayName: "Second",
		})
		assert.True(t, stderrors.Is(err, commonErrors.ErrDuplicateConstraint))
	})
}

func TestLedgerRepository_VersionChecks(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger())
	engine := ledger.NewEngine(repo, testLogger())

	cp, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
		ID: "cp-1", Role: counterparty.Customer, DisplayName: "Asha",
	})
	require.NoError(t, err)

	stale := ledger.Projection{
		ShopID:          "shop-1",
		CounterpartyID:  cp.ID,
		Balance:         counterparty.Balance{Amount: decimal.NewFromInt(5), Direction: counterparty.Due},
		ExpectedVersion: cp.Version + 1,
		UpdatedAt:       day,
	}

	err = repo.AppendTransactions(ctx, nil, stale)
	assert.True(t, stderrors.Is(err, commonErrors.ErrConflict))

	err = repo.SaveProjection(ctx, stale)
	assert.True(t, stderrors.Is(err, commonErrors.ErrConflict))

	stale.CounterpartyID = "missing"
	err = repo.SaveProjection(ctx, stale)
	assert.True(t, stderrors.Is(err, commonErrors.ErrNotFound))

	stored, err := repo.GetCounterparty(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.Version, stored.Version)
	assert.True(t, stored.BalanceAmount.IsZero())
}

func TestLedgerRepository_ReconcileRepairsProjection(t *testing.T) {
	ctx := context.Background()
	repo := NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger())
	engine := ledger.NewEngine(repo, testLogger())

	cp, err := engine.CreateCounterparty(ctx, testShop(), ledger.CreateCounterpartyRequest{
		Role: counterparty.Customer, DisplayName: "Asha",
	})
	require.NoError(t, err)
	_, err = engine.RecordTransactions(ctx, testShop(), ledger.RecordRequest{
		CounterpartyID: cp.ID,
		Role:           counterparty.Customer,
		OutgoingAmount: decimal.NewFromInt(300),
		OccurredAt:     day,
	})
	require.NoError(t, err)

	err = repo.SaveProjection(ctx, ledger.Projection{
		ShopID:          "shop-1",
		CounterpartyID:  cp.ID,
		Balance:         counterparty.Balance{Amount: decimal.NewFromInt(999), Direction: counterparty.Advance},
		ExpectedVersion: 2,
		UpdatedAt:       day,
	})
	require.NoError(t, err)

	report, err := engine.ReconcileShop(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Repaired)

	stored, err := repo.GetCounterparty(ctx, "shop-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, counterparty.Due, stored.BalanceDirection)
	assert.True(t, stored.BalanceAmount.Equal(decimal.NewFromInt(300)))
}

func TestLedgerRepository_StorageErrors(t *testing.T) {
	ctx := context.Background()
	failure := stderrors.New("connection reset")

	mock := client.NewMockDynamoDBClient()
	mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
		return nil, failure
	}
	mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
		return nil, failure
	}
	mock.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
		return nil, failure
	}
	repo := NewDynamoDBLedgerRepository(mock, "test-table", testLogger())

	_, err := repo.GetCounterparty(ctx, "shop-1", "cp-1")
	assert.True(t, stderrors.Is(err, commonErrors.ErrStorage))
	assert.ErrorIs(t, err, failure)

	err = repo.CreateCounterparty(ctx, &counterparty.Counterparty{
		ID: "cp-1", ShopID: "shop-1", Role: counterparty.Supplier, DisplayName: "x",
		BalanceAmount: decimal.Zero, BalanceDirection: counterparty.Advance,
	}, nil)
	assert.True(t, stderrors.Is(err, commonErrors.ErrStorage))

	_, err = repo.ListTransactions(ctx, "shop-1", "cp-1")
	assert.True(t, stderrors.Is(err, commonErrors.ErrStorage))
}

func TestLedgerRepository_GetMissing(t *testing.T) {
	repo := NewDynamoDBLedgerRepository(NewTestClient(), "test-table", testLogger())
	_, err := repo.GetCounterparty(context.Background(), "shop-1", "nope")
	assert.True(t, stderrors.Is(err, commonErrors.ErrNotFound))
}
