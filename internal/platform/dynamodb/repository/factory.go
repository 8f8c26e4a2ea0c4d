package repository

import (
	"log/slog"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
)

// Factory creates repository instances sharing one client and table
type Factory struct {
	client    client.Client
	tableName string
	logger    *slog.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *slog.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// LedgerRepository returns an implementation of the ledger.Repository interface
func (f *Factory) LedgerRepository() *DynamoDBLedgerRepository {
	return NewDynamoDBLedgerRepository(f.client, f.tableName, f.logger)
}

// CounterpartySource returns a listing source for role
func (f *Factory) CounterpartySource(role counterparty.Role) *DynamoDBCounterpartySource {
	return NewDynamoDBCounterpartySource(f.client, f.tableName, role, f.logger)
}

// ExpenseRepository returns an implementation of the expense.Repository interface
func (f *Factory) ExpenseRepository() *DynamoDBExpenseRepository {
	return NewDynamoDBExpenseRepository(f.client, f.tableName, f.logger)
}

// ShortageRepository returns an implementation of the shortage.Repository interface
func (f *Factory) ShortageRepository() *DynamoDBShortageRepository {
	return NewDynamoDBShortageRepository(f.client, f.tableName, f.logger)
}

// SelectionRepository returns an implementation of the notification.SelectionRepository interface
func (f *Factory) SelectionRepository() *DynamoDBSelectionRepository {
	return NewDynamoDBSelectionRepository(f.client, f.tableName, f.logger)
}
