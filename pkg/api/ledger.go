package api

import "github.com/shopspring/decimal"

// SplitInput is the split part of a create, update or preview request.
// Kind is EXPENSE or SETTLEMENT and Mode is EQUAL or EXACT.
type SplitInput struct {
	Kind         string          `json:"kind"`
	PayerID      string          `json:"payer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Mode         string          `json:"mode"`
	Participants []ShareInput    `json:"participants"`
}

type PreviewSplitRequest struct {
	GroupID string     `json:"group_id"`
	Split   SplitInput `json:"split"`
}

type PreviewSplitResponse struct {
	Mode  string  `json:"mode"`
	Split []Share `json:"split"`
}

type CreateTransactionRequest struct {
	GroupID     string     `json:"group_id"`
	Description string     `json:"description"`
	Split       SplitInput `json:"split"`
}

type CreateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type GetTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// UpdateTransactionRequest replaces amount, description and split.
// Kind and PayerID in Split must match the stored transaction.
type UpdateTransactionRequest struct {
	TransactionID string     `json:"transaction_id"`
	Description   string     `json:"description"`
	Split         SplitInput `json:"split"`
}

type UpdateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type DeleteTransactionResponse struct{}

// ListTransactionsRequest selects a group's transactions, or the caller's
// direct transactions when GroupID is "nongroup".
type ListTransactionsRequest struct {
	GroupID string `json:"group_id"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type ListActivityRequest struct {
	Limit int `json:"limit"`
}

type ListActivityResponse struct {
	Transactions []Transaction `json:"transactions"`
}
