package counterparty

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role tells whether the shop sells to or buys from the counterparty
type Role string

const (
	// Customer buys from the shop
	Customer Role = "customer"
	// Supplier sells to the shop
	Supplier Role = "supplier"
)

// ParseRole normalises a role string
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Customer:
		return Customer, true
	case Supplier:
		return Supplier, true
	}
	return "", false
}

// Status of a counterparty row
type Status string

const (
	Active   Status = "active"
	Inactive Status = "inactive"
)

// Direction of a running balance
type Direction string

const (
	// Due means the outflow side exceeds the inflow side
	Due Direction = "due"
	// Advance means the counterparty is in credit (or settled when the amount is zero)
	Advance Direction = "advance"
)

// ParseDirection normalises a direction string
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Due:
		return Due, true
	case Advance:
		return Advance, true
	}
	return "", false
}

// SyncState marks rows not yet propagated to an external system
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
)

// State is the balance state machine position
type State string

const (
	StateSettled State = "settled"
	StateDue     State = "due"
	StateAdvance State = "advance"
)

// Balance is the projected running balance of a counterparty
type Balance struct {
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
}

// Settled is the zero balance
func Settled() Balance {
	return Balance{Amount: decimal.Zero, Direction: Advance}
}

// State returns Settled, Due or Advance
func (b Balance) State() State {
	if b.Amount.IsZero() {
		return StateSettled
	}
	if b.Direction == Due {
		return StateDue
	}
	return StateAdvance
}

// Equal compares amount and direction, treating every zero balance as settled
func (b Balance) Equal(other Balance) bool {
	if b.Amount.IsZero() && other.Amount.IsZero() {
		return true
	}
	return b.Direction == other.Direction && b.Amount.Equal(other.Amount)
}

// Counterparty is a customer or supplier tracked by a shop.
// BalanceAmount and BalanceDirection are a cached projection of the transaction log.
type Counterparty struct {
	ID               string          `json:"id"`
	ShopID           string          `json:"shopId"`
	DisplayName      string          `json:"displayName"`
	Phone            string          `json:"phone,omitempty"`
	Address          string          `json:"address,omitempty"`
	Role             Role            `json:"role"`
	Status           Status          `json:"status"`
	BalanceAmount    decimal.Decimal `json:"balanceAmount"`
	BalanceDirection Direction       `json:"balanceDirection"`
	SyncState        SyncState       `json:"syncState"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Balance returns the projected balance
func (c *Counterparty) Balance() Balance {
	return Balance{Amount: c.BalanceAmount, Direction: c.BalanceDirection}
}

// SetBalance overwrites the projection
func (c *Counterparty) SetBalance(b Balance) {
	c.BalanceAmount = b.Amount
	c.BalanceDirection = b.Direction
}

// DueSummary totals due balances by role
type DueSummary struct {
	CustomerDue decimal.Decimal `json:"customerDue"`
	SupplierDue decimal.Decimal `json:"supplierDue"`
}
