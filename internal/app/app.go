package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hirosato/shop-ledger/backend/internal/common/config"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
	"github.com/hirosato/shop-ledger/backend/internal/platform/cache"
	dynamoClient "github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/client"
	dynamodbRepository "github.com/hirosato/shop-ledger/backend/internal/platform/dynamodb/repository"
	"github.com/hirosato/shop-ledger/backend/internal/platform/sms"
	"github.com/hirosato/shop-ledger/backend/internal/platform/sqlite"
)

// CounterpartySource lists one role's counterparties and totals dues
type CounterpartySource interface {
	listing.Source[counterparty.Counterparty]
	listing.SummarySource
}

// ExpenseStore stores and lists expenses
type ExpenseStore interface {
	expense.Repository
	listing.Source[expense.Expense]
}

// ShortageStore stores and lists shortage notes
type ShortageStore interface {
	shortage.Repository
	listing.Source[shortage.Note]
}

// Stores is one storage backend's set of repositories
type Stores struct {
	Ledger     ledger.Repository
	Customers  CounterpartySource
	Suppliers  CounterpartySource
	Expenses   ExpenseStore
	Shortages  ShortageStore
	Selections notification.SelectionRepository
	Close      func() error
}

// App holds the wired services shared by the Lambda and the CLI
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Engine     *ledger.Engine
	Dispatcher *notification.Dispatcher
	Selections *notification.SelectionService
	Expenses   *expense.Service
	Shortages  *shortage.Service
	Stores     *Stores
}

// New opens the configured backend and wires the engine to the dispatcher
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	channel, err := newChannel(ctx, cfg, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}
	return Wire(cfg, logger, stores, channel), nil
}

// Wire builds the services over already opened stores and a channel
func Wire(cfg *config.Config, logger *slog.Logger, stores *Stores, channel notification.Channel) *App {
	selections := cache.NewSelectionRepository(stores.Selections, cfg.SelectionCacheTTL, logger)
	dispatcher := notification.NewDispatcher(selections, channel, logger, cfg.NotifyInterval)
	engine := ledger.NewEngine(stores.Ledger, logger,
		ledger.WithListener(notification.NewListener(dispatcher, logger)))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Engine:     engine,
		Dispatcher: dispatcher,
		Selections: notification.NewSelectionService(selections, logger),
		Expenses:   expense.NewService(stores.Expenses, logger),
		Shortages:  shortage.NewService(stores.Shortages, logger),
		Stores:     stores,
	}
}

// OpenStores opens the repositories of the configured backend
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamoClient.NewDynamoDBClient(ctx, cfg.AWSRegion, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DynamoDB client: %w", err)
		}
		factory := dynamodbRepository.NewFactory(client, cfg.DynamoDBTableName, logger)
		return &Stores{
			Ledger:     factory.LedgerRepository(),
			Customers:  factory.CounterpartySource(counterparty.Customer),
			Suppliers:  factory.CounterpartySource(counterparty.Supplier),
			Expenses:   factory.ExpenseRepository(),
			Shortages:  factory.ShortageRepository(),
			Selections: factory.SelectionRepository(),
			Close:      func() error { return nil },
		}, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return SQLiteStores(db, logger), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// SQLiteStores builds the repositories over an open database
func SQLiteStores(db *sql.DB, logger *slog.Logger) *Stores {
	return &Stores{
		Ledger:     sqlite.NewLedgerRepository(db, logger),
		Customers:  sqlite.NewCounterpartySource(db, counterparty.Customer, logger),
		Suppliers:  sqlite.NewCounterpartySource(db, counterparty.Supplier, logger),
		Expenses:   sqlite.NewExpenseRepository(db, logger),
		Shortages:  sqlite.NewShortageRepository(db, logger),
		Selections: sqlite.NewSelectionRepository(db, logger),
		Close:      db.Close,
	}
}

func newChannel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notification.Channel, error) {
	if cfg.NotifyChannel == config.ChannelSNS {
		ch, err := sms.NewChannelFromRegion(ctx, cfg.AWSRegion, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMS channel: %w", err)
		}
		return ch, nil
	}
	return notification.NewLogChannel(logger), nil
}

// Counterparties returns the listing source for role
func (a *App) Counterparties(role counterparty.Role) CounterpartySource {
	if role == counterparty.Supplier {
		return a.Stores.Suppliers
	}
	return a.Stores.Customers
}

// CounterpartyController creates a listing controller for one shop and role
func (a *App) CounterpartyController(shopID string, role counterparty.Role, opts ...listing.ControllerOption[counterparty.Counterparty]) *listing.Controller[counterparty.Counterparty] {
	source := a.Counterparties(role)
	base := []listing.ControllerOption[counterparty.Counterparty]{
		listing.WithSummary[counterparty.Counterparty](source),
		listing.WithDebounce[counterparty.Counterparty](a.Config.SearchDebounce),
		listing.WithPageSize[counterparty.Counterparty](a.Config.DefaultPageSize),
	}
	return listing.NewController[counterparty.Counterparty](shopID, source, a.Logger, append(base, opts...)...)
}

// AllCounterparties pages through every active counterparty of role
func (a *App) AllCounterparties(ctx context.Context, shopID string, role counterparty.Role) ([]counterparty.Counterparty, error) {
	ctrl := listing.NewController[counterparty.Counterparty](shopID, a.Counterparties(role), a.Logger,
		listing.WithPageSize[counterparty.Counterparty](100))
	page, err := ctrl.Load(ctx, 1, 0, "", listing.SortNameAsc, listing.Replace)
	for err == nil && page.HasMore {
		page, err = ctrl.LoadMore(ctx)
	}
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Close waits for in-flight notifications and releases the stores
func (a *App) Close() error {
	a.Engine.Wait()
	return a.Stores.Close()
}
