package ledger

import (
	"context"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Repository defines the storage operations the engine needs
type Repository interface {
	// Insert a counterparty together with its opening transactions, atomically.
	// Returns a duplicate constraint error when an active customer already uses the phone.
	CreateCounterparty(ctx context.Context, cp *counterparty.Counterparty, opening []Transaction) error

	// Get a counterparty by ID
	GetCounterparty(ctx context.Context, shopID string, counterpartyID string) (*counterparty.Counterparty, error)

	// List the IDs of every counterparty of a shop
	ListCounterpartyIDs(ctx context.Context, shopID string) ([]string, error)

	// List the full transaction log of a counterparty
	ListTransactions(ctx context.Context, shopID string, counterpartyID string) ([]Transaction, error)

	// Append transactions and write the projection as one atomic unit.
	// Returns a conflict error when the stored version differs from projection.ExpectedVersion.
	AppendTransactions(ctx context.Context, txns []Transaction, projection Projection) error

	// Overwrite the projection only, with the same version check
	SaveProjection(ctx context.Context, projection Projection) error
}

// BalanceListener is told about committed balance changes
type BalanceListener interface {
	BalanceChanged(ctx context.Context, change BalanceChange)
}
