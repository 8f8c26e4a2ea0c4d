package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	commonErrors "github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

const (
	conditionNotExists = "attribute_not_exists(PK)"
	conditionVersion   = "attribute_exists(PK) AND #version = :expected"
	updateProjection   = "SET BalanceAmount = :amount, BalanceDirection = :direction, SyncState = :sync, UpdatedAt = :updated ADD #version :one"
)

// DynamoDBLedgerRepository implements the ledger.Repository interface
type DynamoDBLedgerRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBLedgerRepository creates a new DynamoDBLedgerRepository
func NewDynamoDBLedgerRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBLedgerRepository {
	return &DynamoDBLedgerRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// CreateCounterparty writes the counterparty, its phone guard and opening rows in one transaction
func (r *DynamoDBLedgerRepository) CreateCounterparty(ctx context.Context, cp *counterparty.Counterparty, opening []ledger.Transaction) error {
	item, err := attributevalue.MarshalMap(newCounterpartyItem(cp))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal counterparty", err)
	}
	writes := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.table),
			Item:                item,
			ConditionExpression: aws.String(conditionNotExists),
		},
	}}

	phoneIndex := -1
	if cp.Role == counterparty.Customer && cp.Status == counterparty.Active && cp.Phone != "" {
		guard, err := attributevalue.MarshalMap(phoneItem{
			PK:             shopPK(cp.ShopID),
			SK:             phoneSK(cp.Phone),
			Type:           "phone",
			CounterpartyID: cp.ID,
		})
		if err != nil {
			return commonErrors.NewInternalError("failed to marshal phone guard", err)
		}
		phoneIndex = len(writes)
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                guard,
				ConditionExpression: aws.String(conditionNotExists),
			},
		})
	}

	txnWrites, err := r.transactionPuts(opening)
	if err != nil {
		return err
	}
	writes = append(writes, txnWrites...)

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for i, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
					continue
				}
				if i == phoneIndex {
					return commonErrors.NewDuplicateConstraintError("an active customer with this phone already exists").
						WithDetail("phone", cp.Phone)
				}
				if i == 0 {
					return commonErrors.NewDuplicateConstraintError("counterparty already exists").
						WithDetail("counterpartyId", cp.ID)
				}
			}
		}
		r.logger.Error("Failed to create counterparty", "error", err, "counterpartyID", cp.ID)
		return commonErrors.NewStorageError("failed to create counterparty", err)
	}
	return nil
}

func (r *DynamoDBLedgerRepository) transactionPuts(txns []ledger.Transaction) ([]types.TransactWriteItem, error) {
	writes := make([]types.TransactWriteItem, 0, len(txns))
	for _, t := range txns {
		item, err := attributevalue.MarshalMap(newTransactionItem(t))
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to marshal transaction", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                item,
				ConditionExpression: aws.String(conditionNotExists),
			},
		})
	}
	return writes, nil
}

// GetCounterparty retrieves a counterparty by ID
func (r *DynamoDBLedgerRepository) GetCounterparty(ctx context.Context, shopID string, counterpartyID string) (*counterparty.Counterparty, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shopID)},
			"SK": &types.AttributeValueMemberS{Value: counterpartySK(counterpartyID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewStorageError("failed to get counterparty", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("counterparty %s not found", counterpartyID))
	}

	var item counterpartyItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal counterparty", err)
	}
	cp, err := item.toDomain()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to decode counterparty", err)
	}
	return cp, nil
}

// ListCounterpartyIDs lists every counterparty ID of a shop
func (r *DynamoDBLedgerRepository) ListCounterpartyIDs(ctx context.Context, shopID string) ([]string, error) {
	items, err := queryPrefix(ctx, r.client, r.table, shopID, counterpartyPrefix)
	if err != nil {
		return nil, err
	}
	var rows []counterpartyItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal counterparties", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// ListTransactions lists the full log of a counterparty in statement order
func (r *DynamoDBLedgerRepository) ListTransactions(ctx context.Context, shopID string, counterpartyID string) ([]ledger.Transaction, error) {
	items, err := queryPrefix(ctx, r.client, r.table, shopID, transactionPrefix+counterpartyID+"#")
	if err != nil {
		return nil, err
	}
	var rows []transactionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal transactions", err)
	}
	txns := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to decode transaction", err)
		}
		txns = append(txns, t)
	}
	ledger.SortForStatement(txns)
	return txns, nil
}

// AppendTransactions writes the rows and the version-checked projection in one transaction
func (r *DynamoDBLedgerRepository) AppendTransactions(ctx context.Context, txns []ledger.Transaction, p ledger.Projection) error {
	update := r.projectionUpdate(p)
	writes := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 update.TableName,
			Key:                       update.Key,
			UpdateExpression:          update.UpdateExpression,
			ConditionExpression:       update.ConditionExpression,
			ExpressionAttributeNames:  update.ExpressionAttributeNames,
			ExpressionAttributeValues: update.ExpressionAttributeValues,
		},
	}}
	puts, err := r.transactionPuts(txns)
	if err != nil {
		return err
	}
	writes = append(writes, puts...)

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && len(canceled.CancellationReasons) > 0 &&
			aws.ToString(canceled.CancellationReasons[0].Code) == "ConditionalCheckFailed" {
			return r.versionFailure(ctx, p)
		}
		r.logger.Error("Failed to append transactions", "error", err, "counterpartyID", p.CounterpartyID)
		return commonErrors.NewStorageError("failed to append transactions", err)
	}
	return nil
}

// SaveProjection overwrites the stored balance with a version check
func (r *DynamoDBLedgerRepository) SaveProjection(ctx context.Context, p ledger.Projection) error {
	_, err := r.client.UpdateItem(ctx, r.projectionUpdate(p))
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return r.versionFailure(ctx, p)
		}
		return commonErrors.NewStorageError("failed to save balance", err)
	}
	return nil
}

func (r *DynamoDBLedgerRepository) projectionUpdate(p ledger.Projection) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(p.ShopID)},
			"SK": &types.AttributeValueMemberS{Value: counterpartySK(p.CounterpartyID)},
		},
		UpdateExpression:         aws.String(updateProjection),
		ConditionExpression:      aws.String(conditionVersion),
		ExpressionAttributeNames: map[string]string{"#version": "Version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amount":    &types.AttributeValueMemberS{Value: p.Balance.Amount.String()},
			":direction": &types.AttributeValueMemberS{Value: string(p.Balance.Direction)},
			":sync":      &types.AttributeValueMemberS{Value: string(counterparty.SyncPending)},
			":updated":   &types.AttributeValueMemberS{Value: p.UpdatedAt.UTC().Format(time.RFC3339Nano)},
			":expected":  &types.AttributeValueMemberN{Value: strconv.FormatInt(p.ExpectedVersion, 10)},
			":one":       &types.AttributeValueMemberN{Value: "1"},
		},
	}
}

// versionFailure tells a missing counterparty apart from a concurrent update
func (r *DynamoDBLedgerRepository) versionFailure(ctx context.Context, p ledger.Projection) error {
	if _, err := r.GetCounterparty(ctx, p.ShopID, p.CounterpartyID); err != nil {
		return err
	}
	return commonErrors.NewConflictError("counterparty balance changed concurrently").WithDetail("counterpartyId", p.CounterpartyID)
}

var _ ledger.Repository = (*DynamoDBLedgerRepository)(nil)
