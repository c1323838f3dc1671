package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberBalance is one group member's position within that group.
type MemberBalance struct {
	UserID         string
	Net            decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid      decimal.Decimal
	TotalShare     decimal.Decimal
	PerCounterpart map[string]decimal.Decimal
}

// GroupLedger pairs a group with its transactions.
type GroupLedger struct {
	Group        models.Group
	Transactions []models.Transaction
}

// involving returns the transactions of txs that userID paid or shares in.
func involving(txs []models.Transaction, userID string) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		if txs[i].Involves(userID) {
			out = append(out, txs[i])
		}
	}
	return out
}

// inGroup returns the transactions of txs that belong to groupID.
func inGroup(txs []models.Transaction, groupID string) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		if txs[i].GroupID == groupID {
			out = append(out, txs[i])
		}
	}
	return out
}

// GroupBalanceFor computes the group ledger from a single member's perspective.
func GroupBalanceFor(group models.Group, txs []models.Transaction, userID string) Balances {
	scoped := involving(inGroup(txs, group.ID), userID)
	return ComputeBalances(scoped, userID, group.Members)
}

// GroupBalances computes every member's position in group, sorted by user ID.
// Transactions from other groups are ignored.
func GroupBalances(group models.Group, txs []models.Transaction) []MemberBalance {
	scoped := inGroup(txs, group.ID)

	members := make([]string, len(group.Members))
	copy(members, group.Members)
	sort.Strings(members)

	out := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		b := ComputeBalances(involving(scoped, m), m, group.Members)
		out = append(out, MemberBalance{
			UserID:         m,
			Net:            b.Net,
			TotalPaid:      b.TotalPaid,
			TotalShare:     b.TotalShare,
			PerCounterpart: b.PerCounterpart,
		})
	}
	return out
}

// NetsOf indexes member balances by user ID.
func NetsOf(balances []MemberBalance) map[string]decimal.Decimal {
	nets := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		nets[b.UserID] = b.Net
	}
	return nets
}

// FriendAggregate sums, per counterpart, what they owe userID across every
// group the user belongs to plus direct (non-group) transactions.
//
// Friends start at zero. Co-members of shared groups appear as well, since a
// group balance with them exists even without a friendship.
func FriendAggregate(userID string, ledgers []GroupLedger, direct []models.Transaction, friends []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(friends))
	for _, f := range friends {
		if f != userID {
			out[f] = decimal.Zero
		}
	}

	add := func(per map[string]decimal.Decimal) {
		for id, amount := range per {
			out[id] = out[id].Add(amount)
		}
	}

	for _, l := range ledgers {
		if !l.Group.HasMember(userID) {
			continue
		}
		add(GroupBalanceFor(l.Group, l.Transactions, userID).PerCounterpart)
	}

	peer := involving(inGroup(direct, ""), userID)
	add(ComputeBalances(peer, userID, directUniverse(peer)).PerCounterpart)

	return out
}

// directUniverse lists the payers and split participants of txs.
func directUniverse(txs []models.Transaction) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range txs {
		for _, id := range append([]string{txs[i].PayerID}, txs[i].ParticipantIDs()...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
