package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBExpenseRepository stores expenses and pages through them
type DynamoDBExpenseRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBExpenseRepository creates a new DynamoDBExpenseRepository
func NewDynamoDBExpenseRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBExpenseRepository {
	return &DynamoDBExpenseRepository{client: client, table: table, logger: logger}
}

// CreateExpense writes an expense item
func (r *DynamoDBExpenseRepository) CreateExpense(ctx context.Context, e *expense.Expense) error {
	item, err := attributevalue.MarshalMap(expenseItem{
		PK:        shopPK(e.ShopID),
		SK:        expensePrefix + e.ID,
		Type:      "expense",
		ID:        e.ID,
		ShopID:    e.ShopID,
		Title:     e.Title,
		Amount:    e.Amount.String(),
		SpentOn:   e.SpentOn,
		Note:      e.Note,
		SyncState: string(e.SyncState),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal expense", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String(conditionNotExists),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewDuplicateConstraintError("expense already exists")
		}
		return commonErrors.NewStorageError("failed to create expense", err)
	}
	return nil
}

func (r *DynamoDBExpenseRepository) load(ctx context.Context, shopID string) ([]expense.Expense, error) {
	items, err := queryPrefix(ctx, r.client, r.table, shopID, expensePrefix)
	if err != nil {
		return nil, err
	}
	var rows []expenseItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal expenses", err)
	}
	out := make([]expense.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toDomain()
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to decode expense", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// TotalExpenses sums every expense of a shop
func (r *DynamoDBExpenseRepository) TotalExpenses(ctx context.Context, shopID string) (decimal.Decimal, error) {
	all, err := r.load(ctx, shopID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range all {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (r *DynamoDBExpenseRepository) filter(ctx context.Context, q listing.Query) ([]expense.Expense, error) {
	all, err := r.load(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if matches(q.Search, e.Title) {
			out = append(out, e)
		}
	}
	return out, nil
}

// List returns one page of expenses
func (r *DynamoDBExpenseRepository) List(ctx context.Context, q listing.Query) ([]expense.Expense, error) {
	rows, err := r.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	return page(rows, q, expenseLess(q.Sort)), nil
}

// Count returns the number of expenses matching q
func (r *DynamoDBExpenseRepository) Count(ctx context.Context, q listing.Query) (int, error) {
	rows, err := r.filter(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func expenseLess(sortKey string) func(a, b expense.Expense) bool {
	switch sortKey {
	case listing.SortNameAsc:
		return func(a, b expense.Expense) bool {
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.ID < b.ID
		}
	case listing.SortBalanceDesc:
		return func(a, b expense.Expense) bool {
			if !a.Amount.Equal(b.Amount) {
				return a.Amount.GreaterThan(b.Amount)
			}
			return a.ID < b.ID
		}
	case listing.SortDateDesc:
		return func(a, b expense.Expense) bool {
			if !a.SpentOn.Equal(b.SpentOn) {
				return a.SpentOn.After(b.SpentOn)
			}
			return a.ID < b.ID
		}
	case listing.SortCreatedDesc:
		return func(a, b expense.Expense) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	default:
		return func(a, b expense.Expense) bool {
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID < b.ID
		}
	}
}

var (
	_ expense.Repository              = (*DynamoDBExpenseRepository)(nil)
	_ listing.Source[expense.Expense] = (*DynamoDBExpenseRepository)(nil)
)
