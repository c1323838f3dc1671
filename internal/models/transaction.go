package models

import "github.com/shopspring/decimal"

// Kind distinguishes ordinary expenses from debt repayments.
type Kind string

const (
	// KindExpense is a shared cost paid by one user on behalf of the split participants.
	KindExpense Kind = "EXPENSE"
	// KindSettlement is a payment from a debtor (payer) to a single receiver.
	KindSettlement Kind = "SETTLEMENT"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindSettlement
}

// Share is one participant's portion of a transaction.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// Transaction is a single monetary record inside a group or between friends.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// GroupID is the owning group. Empty means a non-group (peer-to-peer) transaction.
	GroupID string

	// PayerID is the user who paid. For settlements, the debtor paying down.
	PayerID string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// Kind is EXPENSE or SETTLEMENT.
	Kind Kind

	// Description is free text for expenses and synthesized for settlements.
	Description string

	// Split lists each participant's share. Participant IDs are distinct.
	// Settlements carry exactly one entry: the receiver.
	Split []Share

	// CreatedBy is the user ID who recorded the transaction.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last update.
	UpdatedAt int64
}

// IsGroup reports whether the transaction belongs to a group.
func (t *Transaction) IsGroup() bool {
	return t.GroupID != ""
}

// ShareOf returns the share of userID and whether the user is in the split.
func (t *Transaction) ShareOf(userID string) (decimal.Decimal, bool) {
	for _, s := range t.Split {
		if s.UserID == userID {
			return s.Amount, true
		}
	}
	return decimal.Zero, false
}

// Involves reports whether userID paid or is part of the split.
func (t *Transaction) Involves(userID string) bool {
	if t.PayerID == userID {
		return true
	}
	_, ok := t.ShareOf(userID)
	return ok
}

// ParticipantIDs returns the split participant IDs in split order.
func (t *Transaction) ParticipantIDs() []string {
	ids := make([]string, len(t.Split))
	for i, s := range t.Split {
		ids[i] = s.UserID
	}
	return ids
}
