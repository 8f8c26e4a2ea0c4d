package listing

import (
	"context"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Sort keys understood by every source; unknown keys fall back to SortUpdatedDesc
const (
	SortUpdatedDesc = "updated_desc"
	SortNameAsc     = "name_asc"
	SortBalanceDesc = "balance_desc"
	SortCreatedDesc = "created_desc"
	SortDateDesc    = "date_desc"
)

// DefaultPageSize is used when a load asks for a non-positive size
const DefaultPageSize = 20

// Mode tells Load whether to replace the held items or append to them
type Mode int

const (
	// Replace is a fresh load or a refresh
	Replace Mode = iota
	// Append is a load-more
	Append
)

// Query is one page request against a source
type Query struct {
	ShopID string
	Offset int
	Limit  int
	Search string
	Sort   string
}

// Source supplies pages and totals for one entity type
type Source[T any] interface {
	List(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, q Query) (int, error)
}

// SummarySource supplies the unfiltered due totals shown beside a list
type SummarySource interface {
	DueSummary(ctx context.Context, shopID string) (counterparty.DueSummary, error)
}

// Page is the state held by a controller after a load
type Page[T any] struct {
	Items   []T                      `json:"items"`
	Page    int                      `json:"page"`
	Size    int                      `json:"size"`
	Total   int                      `json:"total"`
	HasMore bool                     `json:"hasMore"`
	Search  string                   `json:"search,omitempty"`
	Sort    string                   `json:"sort"`
	Summary *counterparty.DueSummary `json:"summary,omitempty"`
}

// Offset converts a 1-based page number into a row offset
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
