package shortage

import (
	"context"
	"strings"
	"time"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Status of a shortage note
type Status string

const (
	Open Status = "open"
	Done Status = "done"
)

// ParseStatus normalises a status string
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case Open:
		return Open, true
	case Done:
		return Done, true
	}
	return "", false
}

// Note is an item the shop has run short of
type Note struct {
	ID        string                 `json:"id"`
	ShopID    string                 `json:"shopId"`
	Title     string                 `json:"title"`
	Status    Status                 `json:"status"`
	SyncState counterparty.SyncState `json:"syncState"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Repository stores shortage notes
type Repository interface {
	CreateNote(ctx context.Context, n *Note) error
	UpdateStatus(ctx context.Context, shopID, id string, status Status, updatedAt time.Time) error
}
