package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS counterparties (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	display_name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL CHECK (role IN ('customer', 'supplier')),
	status TEXT NOT NULL DEFAULT 'active',
	balance_amount TEXT NOT NULL DEFAULT '0',
	balance_direction TEXT NOT NULL DEFAULT 'advance',
	sync_state TEXT NOT NULL DEFAULT 'pending',
	version INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_counterparties_customer_phone
	ON counterparties (shop_id, phone)
	WHERE role = 'customer' AND status = 'active' AND phone <> '';

CREATE INDEX IF NOT EXISTS ix_counterparties_shop_role
	ON counterparties (shop_id, role, updated_at);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	counterparty_id TEXT NOT NULL REFERENCES counterparties(id),
	kind TEXT NOT NULL CHECK (kind IN ('sale', 'receive', 'purchase', 'payment')),
	occurred_at INTEGER NOT NULL,
	amount TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	recorded_by TEXT NOT NULL DEFAULT '',
	sync_state TEXT NOT NULL DEFAULT 'pending',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_transactions_counterparty
	ON transactions (shop_id, counterparty_id, occurred_at);

CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	title TEXT NOT NULL,
	amount TEXT NOT NULL,
	spent_on INTEGER NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	sync_state TEXT NOT NULL DEFAULT 'pending',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS shortages (
	id TEXT PRIMARY KEY,
	shop_id TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	sync_state TEXT NOT NULL DEFAULT 'pending',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_channel_selection (
	shop_id TEXT PRIMARY KEY,
	selected_channel_id TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	is_no_send_option INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

// Open opens the database at path and ensures the schema exists.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// One connection: SQLite serialises writers anyway and each in-memory connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	logger.Info("Checking database migrations", "databasePath", path)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database tables ensured/created.")
	return db, nil
}

// migrate adds columns introduced after a table was first created
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	columns, err := tableColumns(ctx, db, "counterparties")
	if err != nil {
		return err
	}
	if !columns["version"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE counterparties ADD COLUMN version INTEGER NOT NULL DEFAULT 1"); err != nil {
			return fmt.Errorf("failed to add version column: %w", err)
		}
		logger.Info("Added 'version' column to 'counterparties' table")
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, dataType string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info of %s: %w", table, err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}

type scanner interface {
	Scan(dest ...any) error
}
