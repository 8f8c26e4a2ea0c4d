package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		role counterparty.Role
		flow Flow
		want Kind
	}{
		{counterparty.Customer, Outgoing, Sale},
		{counterparty.Customer, Incoming, Receive},
		{counterparty.Supplier, Outgoing, Payment},
		{counterparty.Supplier, Incoming, Purchase},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.flow), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.role, tt.flow))
		})
	}
}

func TestReplay(t *testing.T) {
	tests := []struct {
		name      string
		role      counterparty.Role
		txns      []Transaction
		amount    string
		direction counterparty.Direction
	}{
		{"empty log is settled", counterparty.Customer, nil, "0", counterparty.Advance},
		{"customer sale is due", counterparty.Customer, []Transaction{{Kind: Sale, Amount: dec("500")}}, "500", counterparty.Due},
		{"customer overpaid", counterparty.Customer, []Transaction{{Kind: Sale, Amount: dec("500")}, {Kind: Receive, Amount: dec("700")}}, "200", counterparty.Advance},
		{"exactly settled", counterparty.Customer, []Transaction{{Kind: Sale, Amount: dec("10.25")}, {Kind: Receive, Amount: dec("10.25")}}, "0", counterparty.Advance},
		{"supplier payment is due", counterparty.Supplier, []Transaction{{Kind: Payment, Amount: dec("300")}, {Kind: Purchase, Amount: dec("100")}}, "200", counterparty.Due},
		{"foreign kinds ignored", counterparty.Supplier, []Transaction{{Kind: Sale, Amount: dec("300")}, {Kind: Purchase, Amount: dec("100")}}, "100", counterparty.Advance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Replay(tt.role, tt.txns)
			assert.True(t, got.Amount.Equal(dec(tt.amount)), "amount %s", got.Amount)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}

func TestReplay_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []Kind{Sale, Receive}
	var txns []Transaction
	for i := 0; i < 50; i++ {
		txns = append(txns, Transaction{
			Kind:   kinds[rng.Intn(len(kinds))],
			Amount: decimal.New(rng.Int63n(100000)+1, -2),
		})
	}
	want := Replay(counterparty.Customer, txns)
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(txns), func(a, b int) { txns[a], txns[b] = txns[b], txns[a] })
		assert.True(t, want.Equal(Replay(counterparty.Customer, txns)))
	}
	assert.False(t, want.Amount.IsNegative())
}
