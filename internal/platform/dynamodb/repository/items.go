package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
)

// Single-table keys. Every item of a shop lives in the SHOP#<id> partition.
const (
	counterpartyPrefix = "COUNTERPARTY#"
	transactionPrefix  = "TXN#"
	expensePrefix      = "EXPENSE#"
	shortagePrefix     = "SHORTAGE#"
	phonePrefix        = "PHONE#"
	selectionKey       = "CHANNEL_SELECTION"
)

func shopPK(shopID string) string {
	return fmt.Sprintf("SHOP#%s", shopID)
}

func counterpartySK(id string) string {
	return counterpartyPrefix + id
}

func transactionSK(counterpartyID, id string) string {
	return fmt.Sprintf("%s%s#%s", transactionPrefix, counterpartyID, id)
}

func phoneSK(phone string) string {
	return phonePrefix + phone
}

type counterpartyItem struct {
	PK               string    `dynamodbav:"PK"`
	SK               string    `dynamodbav:"SK"`
	Type             string    `dynamodbav:"Type"`
	ID               string    `dynamodbav:"ID"`
	ShopID           string    `dynamodbav:"ShopID"`
	DisplayName      string    `dynamodbav:"DisplayName"`
	Phone            string    `dynamodbav:"Phone"`
	Address          string    `dynamodbav:"Address"`
	Role             string    `dynamodbav:"Role"`
	Status           string    `dynamodbav:"Status"`
	BalanceAmount    string    `dynamodbav:"BalanceAmount"`
	BalanceDirection string    `dynamodbav:"BalanceDirection"`
	SyncState        string    `dynamodbav:"SyncState"`
	Version          int64     `dynamodbav:"Version"`
	CreatedAt        time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt        time.Time `dynamodbav:"UpdatedAt"`
}

func newCounterpartyItem(cp *counterparty.Counterparty) counterpartyItem {
	return counterpartyItem{
		PK:               shopPK(cp.ShopID),
		SK:               counterpartySK(cp.ID),
		Type:             "counterparty",
		ID:               cp.ID,
		ShopID:           cp.ShopID,
		DisplayName:      cp.DisplayName,
		Phone:            cp.Phone,
		Address:          cp.Address,
		Role:             string(cp.Role),
		Status:           string(cp.Status),
		BalanceAmount:    cp.BalanceAmount.String(),
		BalanceDirection: string(cp.BalanceDirection),
		SyncState:        string(cp.SyncState),
		Version:          cp.Version,
		CreatedAt:        cp.CreatedAt,
		UpdatedAt:        cp.UpdatedAt,
	}
}

func (i counterpartyItem) toDomain() (*counterparty.Counterparty, error) {
	amount, err := decimal.NewFromString(i.BalanceAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", i.BalanceAmount, err)
	}
	return &counterparty.Counterparty{
		ID:               i.ID,
		ShopID:           i.ShopID,
		DisplayName:      i.DisplayName,
		Phone:            i.Phone,
		Address:          i.Address,
		Role:             counterparty.Role(i.Role),
		Status:           counterparty.Status(i.Status),
		BalanceAmount:    amount,
		BalanceDirection: counterparty.Direction(i.BalanceDirection),
		SyncState:        counterparty.SyncState(i.SyncState),
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}, nil
}

type transactionItem struct {
	PK             string    `dynamodbav:"PK"`
	SK             string    `dynamodbav:"SK"`
	Type           string    `dynamodbav:"Type"`
	ID             string    `dynamodbav:"ID"`
	ShopID         string    `dynamodbav:"ShopID"`
	CounterpartyID string    `dynamodbav:"CounterpartyID"`
	Kind           string    `dynamodbav:"Kind"`
	OccurredAt     time.Time `dynamodbav:"OccurredAt"`
	Amount         string    `dynamodbav:"Amount"`
	Note           string    `dynamodbav:"Note"`
	RecordedBy     string    `dynamodbav:"RecordedBy"`
	SyncState      string    `dynamodbav:"SyncState"`
	CreatedAt      time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt      time.Time `dynamodbav:"UpdatedAt"`
}

func newTransactionItem(t ledger.Transaction) transactionItem {
	return transactionItem{
		PK:             shopPK(t.ShopID),
		SK:             transactionSK(t.CounterpartyID, t.ID),
		Type:           "transaction",
		ID:             t.ID,
		ShopID:         t.ShopID,
		CounterpartyID: t.CounterpartyID,
		Kind:           string(t.Kind),
		OccurredAt:     t.OccurredAt,
		Amount:         t.Amount.String(),
		Note:           t.Note,
		RecordedBy:     t.RecordedBy,
		SyncState:      string(t.SyncState),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (i transactionItem) toDomain() (ledger.Transaction, error) {
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid amount %q: %w", i.Amount, err)
	}
	return ledger.Transaction{
		ID:             i.ID,
		ShopID:         i.ShopID,
		CounterpartyID: i.CounterpartyID,
		Kind:           ledger.Kind(i.Kind),
		OccurredAt:     i.OccurredAt,
		Amount:         amount,
		Note:           i.Note,
		RecordedBy:     i.RecordedBy,
		SyncState:      counterparty.SyncState(i.SyncState),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}, nil
}

type phoneItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	Type           string `dynamodbav:"Type"`
	CounterpartyID string `dynamodbav:"CounterpartyID"`
}

type expenseItem struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	Type      string    `dynamodbav:"Type"`
	ID        string    `dynamodbav:"ID"`
	ShopID    string    `dynamodbav:"ShopID"`
	Title     string    `dynamodbav:"Title"`
	Amount    string    `dynamodbav:"Amount"`
	SpentOn   time.Time `dynamodbav:"SpentOn"`
	Note      string    `dynamodbav:"Note"`
	SyncState string    `dynamodbav:"SyncState"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
}

func (i expenseItem) toDomain() (expense.Expense, error) {
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return expense.Expense{}, fmt.Errorf("invalid amount %q: %w", i.Amount, err)
	}
	return expense.Expense{
		ID:        i.ID,
		ShopID:    i.ShopID,
		Title:     i.Title,
		Amount:    amount,
		SpentOn:   i.SpentOn,
		Note:      i.Note,
		SyncState: counterparty.SyncState(i.SyncState),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}, nil
}

type shortageItem struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	Type      string    `dynamodbav:"Type"`
	ID        string    `dynamodbav:"ID"`
	ShopID    string    `dynamodbav:"ShopID"`
	Title     string    `dynamodbav:"Title"`
	Status    string    `dynamodbav:"Status"`
	SyncState string    `dynamodbav:"SyncState"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
}

func (i shortageItem) toDomain() shortage.Note {
	return shortage.Note{
		ID:        i.ID,
		ShopID:    i.ShopID,
		Title:     i.Title,
		Status:    shortage.Status(i.Status),
		SyncState: counterparty.SyncState(i.SyncState),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

type selectionItem struct {
	PK                string    `dynamodbav:"PK"`
	SK                string    `dynamodbav:"SK"`
	Type              string    `dynamodbav:"Type"`
	ShopID            string    `dynamodbav:"ShopID"`
	SelectedChannelID string    `dynamodbav:"SelectedChannelID"`
	DisplayName       string    `dynamodbav:"DisplayName"`
	IsNoSendOption    bool      `dynamodbav:"IsNoSendOption"`
	UpdatedAt         time.Time `dynamodbav:"UpdatedAt"`
}

func (i selectionItem) toDomain() *notification.ChannelSelection {
	return &notification.ChannelSelection{
		ShopID:            i.ShopID,
		SelectedChannelID: i.SelectedChannelID,
		DisplayName:       i.DisplayName,
		IsNoSendOption:    i.IsNoSendOption,
		UpdatedAt:         i.UpdatedAt,
	}
}
