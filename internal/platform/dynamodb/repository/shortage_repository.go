package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBShortageRepository stores shortage notes and pages through them
type DynamoDBShortageRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBShortageRepository creates a new DynamoDBShortageRepository
func NewDynamoDBShortageRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBShortageRepository {
	return &DynamoDBShortageRepository{client: client, table: table, logger: logger}
}

// CreateNote writes a shortage item
func (r *DynamoDBShortageRepository) CreateNote(ctx context.Context, n *shortage.Note) error {
	item, err := attributevalue.MarshalMap(shortageItem{
		PK:        shopPK(n.ShopID),
		SK:        shortagePrefix + n.ID,
		Type:      "shortage",
		ID:        n.ID,
		ShopID:    n.ShopID,
		Title:     n.Title,
		Status:    string(n.Status),
		SyncState: string(n.SyncState),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal shortage", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String(conditionNotExists),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewDuplicateConstraintError("shortage already exists")
		}
		return commonErrors.NewStorageError("failed to create shortage", err)
	}
	return nil
}

// UpdateStatus changes the status of an existing note
func (r *DynamoDBShortageRepository) UpdateStatus(ctx context.Context, shopID, id string, status shortage.Status, updatedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shopID)},
			"SK": &types.AttributeValueMemberS{Value: shortagePrefix + id},
		},
		UpdateExpression:         aws.String("SET #status = :status, SyncState = :sync, UpdatedAt = :updated"),
		ConditionExpression:      aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{"#status": "Status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":sync":    &types.AttributeValueMemberS{Value: string(counterparty.SyncPending)},
			":updated": &types.AttributeValueMemberS{Value: updatedAt.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError(fmt.Sprintf("shortage %s not found", id))
		}
		return commonErrors.NewStorageError("failed to update shortage", err)
	}
	return nil
}

func (r *DynamoDBShortageRepository) filter(ctx context.Context, q listing.Query) ([]shortage.Note, error) {
	items, err := queryPrefix(ctx, r.client, r.table, q.ShopID, shortagePrefix)
	if err != nil {
		return nil, err
	}
	var rows []shortageItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal shortages", err)
	}
	out := make([]shortage.Note, 0, len(rows))
	for _, row := range rows {
		if matches(q.Search, row.Title) {
			out = append(out, row.toDomain())
		}
	}
	return out, nil
}

// List returns one page of shortage notes
func (r *DynamoDBShortageRepository) List(ctx context.Context, q listing.Query) ([]shortage.Note, error) {
	rows, err := r.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	return page(rows, q, shortageLess(q.Sort)), nil
}

// Count returns the number of notes matching q
func (r *DynamoDBShortageRepository) Count(ctx context.Context, q listing.Query) (int, error) {
	rows, err := r.filter(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func shortageLess(sortKey string) func(a, b shortage.Note) bool {
	switch sortKey {
	case listing.SortNameAsc:
		return func(a, b shortage.Note) bool {
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.ID < b.ID
		}
	case listing.SortCreatedDesc, listing.SortDateDesc:
		return func(a, b shortage.Note) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	default:
		return func(a, b shortage.Note) bool {
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID < b.ID
		}
	}
}

var (
	_ shortage.Repository           = (*DynamoDBShortageRepository)(nil)
	_ listing.Source[shortage.Note] = (*DynamoDBShortageRepository)(nil)
)
