package api

import "github.com/shopspring/decimal"

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

// GroupSummary is a group with the caller's balance in it.
type GroupSummary struct {
	Group        Group                `json:"group"`
	MyBalance    decimal.Decimal      `json:"my_balance"`
	Counterparts []CounterpartBalance `json:"counterparts"`
}

type ListGroupsResponse struct {
	Groups []GroupSummary `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID string   `json:"group_id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type UpdateGroupResponse struct {
	Group Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	GroupID     string                `json:"group_id"`
	Balances    []MemberBalance       `json:"balances"`
	Settlements []SuggestedSettlement `json:"settlements"`
}
