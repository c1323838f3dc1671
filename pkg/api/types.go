package api

import "github.com/shopspring/decimal"

// User is the public view of an account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Share is one participant's portion of a transaction.
type Share struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// ShareInput is a proposed split entry. Share is only read in EXACT mode.
type ShareInput struct {
	UserID string          `json:"user_id"`
	Share  decimal.Decimal `json:"share"`
}

// Transaction is an expense or settlement as returned to clients.
type Transaction struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	SplitMode   string          `json:"split_mode"`
	Split       []Share         `json:"split"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// Group is a group with its members resolved to users.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Members   []User `json:"members"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

// CounterpartBalance is what one user owes the caller. Negative means the caller owes them.
type CounterpartBalance struct {
	User    User            `json:"user"`
	Amount  decimal.Decimal `json:"amount"`
	Settled bool            `json:"settled"`
}

// MemberBalance is one member's net position within a group.
type MemberBalance struct {
	User       User            `json:"user"`
	Net        decimal.Decimal `json:"net"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalShare decimal.Decimal `json:"total_share"`
	Settled    bool            `json:"settled"`
}

// SuggestedSettlement is a payment that would clear part of the group's debts.
type SuggestedSettlement struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}
