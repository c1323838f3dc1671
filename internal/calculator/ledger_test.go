package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func TestGroupBalances(t *testing.T) {
	group := models.Group{ID: "g1", Name: "Trip", Members: []string{"C", "A", "B"}}
	txs := []models.Transaction{
		dinner(),
		settlement("t2", "g1", "B", "A", "30"),
		expense("other", "g2", "C", "500", share("A", "500")),
	}

	balances := GroupBalances(group, txs)
	require.Len(t, balances, 3)

	byID := make(map[string]MemberBalance)
	for i, b := range balances {
		byID[b.UserID] = b
		if i > 0 {
			assert.Less(t, balances[i-1].UserID, b.UserID, "sorted by user id")
		}
	}

	assertAmount(t, "30", byID["A"].Net)
	assert.True(t, Settled(byID["B"].Net))
	assertAmount(t, "-30", byID["C"].Net)
	assertAmount(t, "90", byID["A"].TotalPaid)
	assertAmount(t, "30", byID["B"].TotalPaid)
	assertAmount(t, "-30", byID["C"].PerCounterpart["A"])

	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Net)
	}
	assert.True(t, Settled(total), "conservation, got %s", total)

	nets := NetsOf(balances)
	assert.Len(t, nets, 3)
	assertAmount(t, "30", nets["A"])
}

func TestGroupBalances_NoTransactions(t *testing.T) {
	group := models.Group{ID: "g1", Members: []string{"A", "B"}}
	balances := GroupBalances(group, nil)
	require.Len(t, balances, 2)
	for _, b := range balances {
		assertAmount(t, "0", b.Net)
		assert.Len(t, b.PerCounterpart, 1)
	}
}

func TestGroupBalanceFor(t *testing.T) {
	group := models.Group{ID: "g1", Members: abc}
	b := GroupBalanceFor(group, []models.Transaction{dinner()}, "B")
	assertAmount(t, "-30", b.Net)
	assertAmount(t, "-30", b.PerCounterpart["A"])
	assertAmount(t, "0", b.PerCounterpart["C"])
}

func TestFriendAggregate(t *testing.T) {
	trip := GroupLedger{
		Group:        models.Group{ID: "g1", Members: []string{"A", "B", "C"}},
		Transactions: []models.Transaction{dinner()},
	}
	flat := GroupLedger{
		Group: models.Group{ID: "flat", Members: []string{"A", "B"}},
		Transactions: []models.Transaction{
			expense("rent", "flat", "B", "100", share("A", "50"), share("B", "50")),
		},
	}
	elsewhere := GroupLedger{
		Group: models.Group{ID: "club", Members: []string{"B", "C"}},
		Transactions: []models.Transaction{
			expense("dues", "club", "B", "40", share("C", "40")),
		},
	}
	direct := []models.Transaction{
		expense("taxi", "", "A", "24", share("A", "12"), share("D", "12")),
		settlement("payback", "", "D", "A", "5"),
		expense("unrelated", "", "B", "8", share("C", "8")),
	}

	got := FriendAggregate("A", []GroupLedger{trip, flat, elsewhere}, direct, []string{"B", "D", "E"})

	// trip: B owes 30, C owes 30. flat: A owes B 50. direct: D owes 12 - 5.
	assertAmount(t, "-20", got["B"])
	assertAmount(t, "30", got["C"])
	assertAmount(t, "7", got["D"])
	require.Contains(t, got, "E")
	assertAmount(t, "0", got["E"])
	assert.NotContains(t, got, "A")
}

func TestFriendAggregate_ConsistentWithGroupBalances(t *testing.T) {
	ledgers := []GroupLedger{
		{
			Group: models.Group{ID: "g1", Members: abc},
			Transactions: []models.Transaction{
				dinner(),
				settlement("s1", "g1", "B", "A", "10"),
			},
		},
		{
			Group: models.Group{ID: "g2", Members: []string{"A", "B"}},
			Transactions: []models.Transaction{
				expense("x", "g2", "B", "33.33", EqualShares(d("33.33"), []string{"A", "B"})...),
			},
		},
	}
	direct := []models.Transaction{
		expense("y", "", "B", "7", share("A", "7")),
	}

	got := FriendAggregate("A", ledgers, direct, []string{"B"})

	want := decimal.Zero
	for _, l := range ledgers {
		for _, mb := range GroupBalances(l.Group, l.Transactions) {
			if mb.UserID == "A" {
				want = want.Add(mb.PerCounterpart["B"])
			}
		}
	}
	want = want.Add(ComputeBalances(direct, "A", []string{"A", "B"}).PerCounterpart["B"])

	assert.True(t, want.Equal(got["B"]), "want %s, got %s", want, got["B"])
}

func TestFriendAggregate_Deterministic(t *testing.T) {
	ledgers := []GroupLedger{{
		Group:        models.Group{ID: "g1", Members: abc},
		Transactions: []models.Transaction{dinner(), settlement("s", "g1", "C", "A", "7.77")},
	}}
	first := FriendAggregate("A", ledgers, nil, []string{"B", "C"})
	for i := 0; i < 10; i++ {
		again := FriendAggregate("A", ledgers, nil, []string{"B", "C"})
		for id, v := range first {
			assert.Equal(t, v.String(), again[id].String())
		}
	}
}
