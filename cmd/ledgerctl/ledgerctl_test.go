package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	envconfig "github.com/hirosato/shop-ledger/backend/internal/common/config"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/platform/sqlite"
)

func testOpener(t *testing.T) opener {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	cfg := &envconfig.Config{SelectionCacheTTL: time.Minute, DefaultPageSize: 20}
	a := app.Wire(cfg, logger, app.SQLiteStores(db, logger), notification.NewLogChannel(logger))
	t.Cleanup(func() { a.Close() })

	return func(ctx context.Context) (*app.App, func() error, error) {
		return a, func() error { a.Engine.Wait(); return nil }, nil
	}
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--shop", "shop-1", "--shop-name", "Corner Store"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, open opener, args ...string) string {
	t.Helper()
	out, err := run(t, open, args...)
	require.NoError(t, err)
	return out
}

func TestLedgerctl_CustomerLifecycle(t *testing.T) {
	open := testOpener(t)

	var cp counterparty.Counterparty
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open,
		"create", "--name", "Asha", "--phone", "+880 1700 000001", "--opening", "100", "--date", "2024-05-01")), &cp))
	assert.Equal(t, "+8801700000001", cp.Phone)
	assert.Equal(t, "100", cp.BalanceAmount.String())

	var balance counterparty.Balance
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open,
		"record", cp.ID, "--out", "50", "--in", "200", "--date", "2024-05-02")), &balance))
	assert.Equal(t, "50", balance.Amount.String())
	assert.Equal(t, counterparty.Advance, balance.Direction)

	var st ledger.Statement
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open, "statement", cp.ID)), &st))
	assert.Len(t, st.Lines, 3)

	out := mustRun(t, open, "list", "--sort", "name_asc")
	assert.Contains(t, out, "Asha")
	assert.Contains(t, out, `"total": 1`)

	var result ledger.ReconcileResult
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open, "reconcile", cp.ID)), &result))
	assert.False(t, result.Repaired)

	var report ledger.ReconcileReport
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open, "reconcile")), &report))
	assert.Equal(t, 1, report.Checked)
}

func TestLedgerctl_NotifyAfterChannelSelection(t *testing.T) {
	open := testOpener(t)
	mustRun(t, open, "create", "--name", "Asha", "--phone", "+8801700000001", "--opening", "100")
	mustRun(t, open, "create", "--name", "Bilal")

	var result notification.Result
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open, "notify")), &result))
	assert.Equal(t, notification.Result{}, result)

	mustRun(t, open, "channel", "select", "ShopSMS", "--name", "Shop SMS")
	assert.Contains(t, mustRun(t, open, "channel"), "ShopSMS")

	require.NoError(t, json.Unmarshal([]byte(mustRun(t, open, "notify")), &result))
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.SkippedCount)

	_, err := run(t, open, "notify", "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.Contains(t, mustRun(t, open, "channel", "off"), `"isNoSendOption": true`)
}

func TestLedgerctl_ExpensesAndShortages(t *testing.T) {
	open := testOpener(t)
	mustRun(t, open, "expense", "add", "Rent", "1200", "--date", "2024-05-01")
	mustRun(t, open, "expense", "add", "Wages", "300.50")

	assert.Contains(t, mustRun(t, open, "expense", "total"), `"total": "1500.5"`)
	assert.Contains(t, mustRun(t, open, "expense", "list", "--search", "rent"), "Rent")

	out := mustRun(t, open, "shortage", "add", "Rice")
	var note struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &note))
	mustRun(t, open, "shortage", "status", note.ID, "done")
	assert.Contains(t, mustRun(t, open, "shortage", "list"), `"status": "done"`)

	_, err := run(t, open, "shortage", "status", note.ID, "lost")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestLedgerctl_Validation(t *testing.T) {
	open := testOpener(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad role", []string{"list", "--role", "friend"}},
		{"missing name", []string{"create"}},
		{"bad direction", []string{"create", "--name", "A", "--direction", "up"}},
		{"negative amount", []string{"record", "x", "--out", "-1"}},
		{"schedule with id", []string{"reconcile", "x", "--schedule", "@every 1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, open, tt.args...)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}

	cmd := newRootCmd(open)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"list"})
	assert.ErrorIs(t, cmd.Execute(), errors.ErrValidation, "--shop is required")
}
