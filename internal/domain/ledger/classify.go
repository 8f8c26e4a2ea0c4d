package ledger

import (
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

// Classify resolves the kind of a figure entered for a counterparty of the given role.
//
//	customer: outgoing -> sale,    incoming -> receive
//	supplier: outgoing -> payment, incoming -> purchase
func Classify(role counterparty.Role, flow Flow) Kind {
	switch role {
	case counterparty.Supplier:
		if flow == Outgoing {
			return Payment
		}
		return Purchase
	default:
		if flow == Outgoing {
			return Sale
		}
		return Receive
	}
}

// OpeningFlow maps an opening balance direction onto the flow that produces it
func OpeningFlow(direction counterparty.Direction) Flow {
	if direction == counterparty.Due {
		return Outgoing
	}
	return Incoming
}

// isOutflow reports whether kind counts toward the due side for role
func isOutflow(role counterparty.Role, kind Kind) bool {
	return kind == Classify(role, Outgoing)
}

// isInflow reports whether kind counts toward the advance side for role
func isInflow(role counterparty.Role, kind Kind) bool {
	return kind == Classify(role, Incoming)
}
