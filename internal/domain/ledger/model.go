package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Kind is the classified type of a ledger entry
type Kind string

const (
	// Sale: goods given to a customer on credit
	Sale Kind = "sale"
	// Receive: money received from a customer
	Receive Kind = "receive"
	// Purchase: goods taken from a supplier
	Purchase Kind = "purchase"
	// Payment: money paid to a supplier
	Payment Kind = "payment"
)

// Flow is the side of a recorded figure as entered by the user
type Flow string

const (
	Outgoing Flow = "outgoing"
	Incoming Flow = "incoming"
)

// Transaction is an immutable, dated monetary event against one counterparty
type Transaction struct {
	ID             string                 `json:"id"`
	ShopID         string                 `json:"shopId"`
	CounterpartyID string                 `json:"counterpartyId"`
	Kind           Kind                   `json:"kind"`
	OccurredAt     time.Time              `json:"occurredAt"`
	Amount         decimal.Decimal        `json:"amount"`
	Note           string                 `json:"note,omitempty"`
	RecordedBy     string                 `json:"recordedBy"`
	SyncState      counterparty.SyncState `json:"syncState"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// RecordRequest carries one user action that may enter an outgoing and an incoming figure
type RecordRequest struct {
	CounterpartyID string
	Role           counterparty.Role
	OutgoingAmount decimal.Decimal
	IncomingAmount decimal.Decimal
	OccurredAt     time.Time
	Note           string
}

// CreateCounterpartyRequest onboards a counterparty with an optional opening balance
type CreateCounterpartyRequest struct {
	// ID is optional; a UUID is generated when empty
	ID               string
	Role             counterparty.Role
	DisplayName      string
	Phone            string
	Address          string
	OpeningAmount    decimal.Decimal
	OpeningDirection counterparty.Direction
	OccurredAt       time.Time
}

// Projection is the balance write that accompanies appended transactions
type Projection struct {
	ShopID          string
	CounterpartyID  string
	Balance         counterparty.Balance
	ExpectedVersion int64
	UpdatedAt       time.Time
}

// BalanceChange is emitted after a committed balance-changing operation
type BalanceChange struct {
	ShopID       string
	ShopName     string
	Counterparty counterparty.Counterparty
	Previous     counterparty.Balance
	Current      counterparty.Balance
	Transactions []Transaction
}

// StatementLine is a transaction with the running balance after it
type StatementLine struct {
	Transaction
	RunningBalance counterparty.Balance `json:"runningBalance"`
}

// Statement is a counterparty with its full, replayed transaction log
type Statement struct {
	Counterparty counterparty.Counterparty `json:"counterparty"`
	Lines        []StatementLine           `json:"lines"`
	Balance      counterparty.Balance      `json:"balance"`
}

// ReconcileResult describes one replay-and-overwrite pass
type ReconcileResult struct {
	CounterpartyID string               `json:"counterpartyId"`
	Stored         counterparty.Balance `json:"stored"`
	Replayed       counterparty.Balance `json:"replayed"`
	Repaired       bool                 `json:"repaired"`
}

// ReconcileReport summarises a shop-wide reconciliation
type ReconcileReport struct {
	ShopID   string            `json:"shopId"`
	Checked  int               `json:"checked"`
	Repaired int               `json:"repaired"`
	Failed   int               `json:"failed"`
	Results  []ReconcileResult `json:"results"`
}
