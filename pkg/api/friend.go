package api

import "github.com/shopspring/decimal"

type AddFriendRequest struct {
	Email string `json:"email"`
}

type AddFriendResponse struct {
	Friend User `json:"friend"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends []User `json:"friends"`
}

type GetFriendBalancesRequest struct{}

// GetFriendBalancesResponse lists one entry per counterpart across all groups
// and direct transactions. Net is the caller's overall position.
type GetFriendBalancesResponse struct {
	Balances []CounterpartBalance `json:"balances"`
	Net      decimal.Decimal      `json:"net"`
}
