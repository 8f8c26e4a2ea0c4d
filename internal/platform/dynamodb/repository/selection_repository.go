package repository

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBSelectionRepository stores the per-shop channel selection item
type DynamoDBSelectionRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBSelectionRepository creates a new DynamoDBSelectionRepository
func NewDynamoDBSelectionRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBSelectionRepository {
	return &DynamoDBSelectionRepository{client: client, table: table, logger: logger}
}

// GetSelection returns the shop's selection, or nil when none exists
func (r *DynamoDBSelectionRepository) GetSelection(ctx context.Context, shopID string) (*notification.ChannelSelection, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shopID)},
			"SK": &types.AttributeValueMemberS{Value: selectionKey},
		},
	})
	if err != nil {
		return nil, commonErrors.NewStorageError("failed to get channel selection", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	var item selectionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal channel selection", err)
	}
	return item.toDomain(), nil
}

// SaveSelection replaces the shop's selection
func (r *DynamoDBSelectionRepository) SaveSelection(ctx context.Context, sel *notification.ChannelSelection) error {
	item, err := attributevalue.MarshalMap(selectionItem{
		PK:                shopPK(sel.ShopID),
		SK:                selectionKey,
		Type:              "channel_selection",
		ShopID:            sel.ShopID,
		SelectedChannelID: sel.SelectedChannelID,
		DisplayName:       sel.DisplayName,
		IsNoSendOption:    sel.IsNoSendOption,
		UpdatedAt:         sel.UpdatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal channel selection", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		r.logger.Error("Failed to save channel selection", "error", err, "shopID", sel.ShopID)
		return commonErrors.NewStorageError("failed to save channel selection", err)
	}
	return nil
}

var _ notification.SelectionRepository = (*DynamoDBSelectionRepository)(nil)
