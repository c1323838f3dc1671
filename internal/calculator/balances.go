package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SettledTolerance is the band around zero reported as "settled".
var SettledTolerance = decimal.RequireFromString("0.01")

// Balances is the ledger from one user's perspective.
type Balances struct {
	// Net is what the perspective user should receive minus what they should pay.
	// Positive = net creditor.
	Net decimal.Decimal

	// PerCounterpart maps a user ID to the amount that user owes the perspective
	// user. Negative means the perspective user owes them.
	PerCounterpart map[string]decimal.Decimal

	// TotalPaid is the sum of amounts the perspective user paid.
	TotalPaid decimal.Decimal

	// TotalShare is the sum of the perspective user's own shares.
	TotalShare decimal.Decimal
}

// Settled reports whether d is zero within SettledTolerance.
func Settled(d decimal.Decimal) bool {
	return d.Abs().LessThan(SettledTolerance)
}

// ComputeBalances folds txs into balances for perspective.
//
// Every user in universe other than perspective starts at zero, so an
// all-settled relationship is distinguishable from no relationship.
// Settlements use the same arithmetic as expenses: the payer gains credit
// and the single receiver's credit is reduced.
//
// Transactions that do not involve perspective are skipped; callers are
// expected to filter them out beforehand.
func ComputeBalances(txs []models.Transaction, perspective string, universe []string) Balances {
	b := Balances{
		Net:            decimal.Zero,
		PerCounterpart: make(map[string]decimal.Decimal, len(universe)),
		TotalPaid:      decimal.Zero,
		TotalShare:     decimal.Zero,
	}
	for _, u := range universe {
		if u != perspective {
			b.PerCounterpart[u] = decimal.Zero
		}
	}

	for i := range txs {
		t := &txs[i]
		if t.PayerID == perspective {
			b.Net = b.Net.Add(t.Amount)
			b.TotalPaid = b.TotalPaid.Add(t.Amount)
			for _, s := range t.Split {
				if s.UserID == perspective {
					continue
				}
				b.PerCounterpart[s.UserID] = b.PerCounterpart[s.UserID].Add(s.Amount)
			}
		}

		share, ok := t.ShareOf(perspective)
		if !ok {
			continue
		}
		b.Net = b.Net.Sub(share)
		b.TotalShare = b.TotalShare.Add(share)
		if t.PayerID != perspective {
			b.PerCounterpart[t.PayerID] = b.PerCounterpart[t.PayerID].Sub(share)
		}
	}

	return b
}

// DebtEdge represents a suggested payment from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

type netEntry struct {
	id     string
	amount decimal.Decimal
}

// SimplifyDebts turns per-member net balances into a short list of
// payments that would settle everyone.
//
// Greedy: match the largest debtor with the largest creditor, ties broken
// by ID so the output is deterministic.
func SimplifyDebts(nets map[string]decimal.Decimal) []DebtEdge {
	var creditors, debtors []netEntry
	for id, net := range nets {
		if Settled(net) {
			continue
		}
		if net.IsPositive() {
			creditors = append(creditors, netEntry{id: id, amount: net})
		} else {
			debtors = append(debtors, netEntry{id: id, amount: net.Neg()})
		}
	}
	byAmountDesc := func(s []netEntry) {
		sort.Slice(s, func(i, j int) bool {
			if c := s[i].amount.Cmp(s[j].amount); c != 0 {
				return c > 0
			}
			return s[i].id < s[j].id
		})
	}
	byAmountDesc(creditors)
	byAmountDesc(debtors)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)

		// Avoid rounding noise
		if amount.GreaterThanOrEqual(SettledTolerance) {
			edges = append(edges, DebtEdge{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: amount,
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThan(SettledTolerance) {
			i++
		}
		if creditors[j].amount.LessThan(SettledTolerance) {
			j++
		}
	}
	return edges
}
