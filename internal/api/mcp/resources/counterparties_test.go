package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/common/config"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
	"github.com/hirosato/shop-ledger/backend/internal/platform/sqlite"
)

func TestCounterpartiesResource_Read(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	cfg := &config.Config{SelectionCacheTTL: time.Minute, DefaultPageSize: 20}
	a := app.Wire(cfg, logger, app.SQLiteStores(db, logger), notification.NewLogChannel(logger))
	defer a.Close()

	sc := &shop.Context{ShopID: "shop-1", ShopName: "Corner Store"}
	ctx := shop.WithContext(context.Background(), sc)
	for _, req := range []ledger.CreateCounterpartyRequest{
		{Role: counterparty.Customer, DisplayName: "Asha", OpeningAmount: decimal.NewFromInt(100)},
		{Role: counterparty.Customer, DisplayName: "Bilal", OpeningAmount: decimal.NewFromInt(40)},
		{Role: counterparty.Supplier, DisplayName: "Mill", OpeningAmount: decimal.NewFromInt(700)},
	} {
		_, err := a.Engine.CreateCounterparty(ctx, sc, req)
		require.NoError(t, err)
	}

	resource := NewCounterpartiesResource(a)
	assert.Equal(t, "shopledger://counterparties", resource.GetURI())

	res, err := resource.Read(ctx)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MimeType)

	var view counterpartiesView
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &view))
	assert.Equal(t, "shop-1", view.ShopID)
	assert.Equal(t, 2, view.Customers.Total)
	assert.Equal(t, 1, view.Suppliers.Total)
	require.NotNil(t, view.Customers.Summary)
	assert.True(t, view.Customers.Summary.CustomerDue.Equal(decimal.NewFromInt(140)))
	assert.True(t, view.Customers.Summary.SupplierDue.Equal(decimal.NewFromInt(700)))
}

func TestCounterpartiesResource_RequiresShop(t *testing.T) {
	resource := NewCounterpartiesResource(nil)
	_, err := resource.Read(context.Background())
	assert.ErrorIs(t, err, errors.ErrValidation)
}
