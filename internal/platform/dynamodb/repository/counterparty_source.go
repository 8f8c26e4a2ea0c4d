package repository

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBCounterpartySource lists active counterparties of one role.
// The shop partition is read whole and windowed in memory.
type DynamoDBCounterpartySource struct {
	client client.Client
	table  string
	role   counterparty.Role
	logger *slog.Logger
}

// NewDynamoDBCounterpartySource creates a listing source for role
func NewDynamoDBCounterpartySource(client client.Client, table string, role counterparty.Role, logger *slog.Logger) *DynamoDBCounterpartySource {
	return &DynamoDBCounterpartySource{client: client, table: table, role: role, logger: logger}
}

func (s *DynamoDBCounterpartySource) load(ctx context.Context, shopID string) ([]counterparty.Counterparty, error) {
	items, err := queryPrefix(ctx, s.client, s.table, shopID, counterpartyPrefix)
	if err != nil {
		return nil, err
	}
	var rows []counterpartyItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal counterparties", err)
	}
	out := make([]counterparty.Counterparty, 0, len(rows))
	for _, row := range rows {
		cp, err := row.toDomain()
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to decode counterparty", err)
		}
		if cp.Status == counterparty.Active {
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (s *DynamoDBCounterpartySource) filter(ctx context.Context, q listing.Query) ([]counterparty.Counterparty, error) {
	all, err := s.load(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}
	out := make([]counterparty.Counterparty, 0, len(all))
	for _, cp := range all {
		if cp.Role == s.role && matches(q.Search, cp.DisplayName, cp.Phone) {
			out = append(out, cp)
		}
	}
	return out, nil
}

// List returns one page of counterparties
func (s *DynamoDBCounterpartySource) List(ctx context.Context, q listing.Query) ([]counterparty.Counterparty, error) {
	rows, err := s.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	return page(rows, q, counterpartyLess(q.Sort)), nil
}

// Count returns the number of rows List would page through
func (s *DynamoDBCounterpartySource) Count(ctx context.Context, q listing.Query) (int, error) {
	rows, err := s.filter(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// DueSummary totals due balances by role over every active counterparty
func (s *DynamoDBCounterpartySource) DueSummary(ctx context.Context, shopID string) (counterparty.DueSummary, error) {
	summary := counterparty.DueSummary{CustomerDue: decimal.Zero, SupplierDue: decimal.Zero}
	all, err := s.load(ctx, shopID)
	if err != nil {
		return summary, err
	}
	for _, cp := range all {
		if cp.BalanceDirection != counterparty.Due {
			continue
		}
		if cp.Role == counterparty.Supplier {
			summary.SupplierDue = summary.SupplierDue.Add(cp.BalanceAmount)
		} else {
			summary.CustomerDue = summary.CustomerDue.Add(cp.BalanceAmount)
		}
	}
	return summary, nil
}

func counterpartyLess(sortKey string) func(a, b counterparty.Counterparty) bool {
	switch sortKey {
	case listing.SortNameAsc:
		return func(a, b counterparty.Counterparty) bool {
			an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
			if an != bn {
				return an < bn
			}
			return a.ID < b.ID
		}
	case listing.SortBalanceDesc:
		return func(a, b counterparty.Counterparty) bool {
			if !a.BalanceAmount.Equal(b.BalanceAmount) {
				return a.BalanceAmount.GreaterThan(b.BalanceAmount)
			}
			return a.ID < b.ID
		}
	case listing.SortCreatedDesc:
		return func(a, b counterparty.Counterparty) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	default:
		return func(a, b counterparty.Counterparty) bool {
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID < b.ID
		}
	}
}

var (
	_ listing.Source[counterparty.Counterparty] = (*DynamoDBCounterpartySource)(nil)
	_ listing.SummarySource                     = (*DynamoDBCounterpartySource)(nil)
)
