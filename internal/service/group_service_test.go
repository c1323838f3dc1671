package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func memberIDs(g api.Group) []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")

	group := env.createGroup(alice, "Roommates", bob)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, alice.ID, group.CreatedBy)
	assert.NotZero(t, group.CreatedAt)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, memberIDs(group), "creator is added")

	t.Run("unknown member", func(t *testing.T) {
		_, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
			Name:    "Ghosts",
			Members: []string{"ghost"},
		}))
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{Name: "  "}))
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("duplicate members collapse", func(t *testing.T) {
		g := env.createGroup(alice, "Pair", bob, bob, alice)
		assert.Len(t, g.Members, 2)
	})
}

func TestGetGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")
	eve := env.register("Eve")
	env.befriend(alice, eve)

	group := env.createGroup(alice, "Work Lunch", bob)

	resp, err := env.groups.GetGroup(ctx, as(bob, &api.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Work Lunch", resp.Msg.Group.Name)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, memberIDs(resp.Msg.Group))

	t.Run("non-member", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, as(eve, &api.GetGroupRequest{GroupID: group.ID}))
		assertCode(t, connect.CodePermissionDenied, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: "ghost"}))
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("non-group scope lists the caller and friends", func(t *testing.T) {
		resp, err := env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: models.NonGroupID}))
		require.NoError(t, err)
		assert.Equal(t, models.NonGroupID, resp.Msg.Group.ID)
		assert.ElementsMatch(t, []string{alice.ID, eve.ID}, memberIDs(resp.Msg.Group))
	})
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")
	carol := env.register("Carol")

	trip := env.createGroup(alice, "Trip", bob, carol)
	env.createGroup(bob, "Bob and Carol", carol)

	_, err := env.ledger.CreateTransaction(ctx, as(bob, &api.CreateTransactionRequest{
		GroupID:     trip.ID,
		Description: "Fuel",
		Split:       equalSplit(bob, "60", alice, bob, carol),
	}))
	require.NoError(t, err)

	resp, err := env.groups.ListGroups(ctx, as(alice, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Groups, 1)

	summary := resp.Msg.Groups[0]
	assert.Equal(t, trip.ID, summary.Group.ID)
	assertAmount(t, "-20", summary.MyBalance)

	per := counterpartsByUser(summary.Counterparts)
	require.Len(t, per, 2)
	assertAmount(t, "-20", per[bob.ID].Amount)
	assertAmount(t, "0", per[carol.ID].Amount)
	assert.True(t, per[carol.ID].Settled)
}

func TestUpdateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")
	carol := env.register("Carol")
	dave := env.register("Dave")

	group := env.createGroup(alice, "Flat", bob, carol)

	_, err := env.ledger.CreateTransaction(ctx, as(alice, &api.CreateTransactionRequest{
		GroupID:     group.ID,
		Description: "Rent",
		Split:       equalSplit(alice, "100", alice, bob),
	}))
	require.NoError(t, err)

	t.Run("rename and swap an uninvolved member", func(t *testing.T) {
		resp, err := env.groups.UpdateGroup(ctx, as(bob, &api.UpdateGroupRequest{
			GroupID: group.ID,
			Name:    "New Flat",
			Members: []string{bob.ID, dave.ID},
		}))
		require.NoError(t, err)
		assert.Equal(t, "New Flat", resp.Msg.Group.Name)
		assert.ElementsMatch(t, []string{alice.ID, bob.ID, dave.ID}, memberIDs(resp.Msg.Group), "creator is kept")
	})

	t.Run("members with transactions stay", func(t *testing.T) {
		_, err := env.groups.UpdateGroup(ctx, as(alice, &api.UpdateGroupRequest{
			GroupID: group.ID,
			Name:    "Flat",
			Members: []string{dave.ID},
		}))
		assertCode(t, connect.CodeFailedPrecondition, err)
	})

	t.Run("non-member", func(t *testing.T) {
		_, err := env.groups.UpdateGroup(ctx, as(carol, &api.UpdateGroupRequest{
			GroupID: group.ID,
			Name:    "Mine",
		}))
		assertCode(t, connect.CodePermissionDenied, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := env.groups.UpdateGroup(ctx, as(alice, &api.UpdateGroupRequest{GroupID: "ghost", Name: "x"}))
		assertCode(t, connect.CodeNotFound, err)
	})
}

func TestDeleteGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")
	eve := env.register("Eve")

	group := env.createGroup(alice, "Trip", bob)
	created, err := env.ledger.CreateTransaction(ctx, as(alice, &api.CreateTransactionRequest{
		GroupID:     group.ID,
		Description: "Hotel",
		Split:       equalSplit(alice, "200", alice, bob),
	}))
	require.NoError(t, err)

	_, err = env.groups.DeleteGroup(ctx, as(eve, &api.DeleteGroupRequest{GroupID: group.ID}))
	assertCode(t, connect.CodePermissionDenied, err)

	_, err = env.groups.DeleteGroup(ctx, as(bob, &api.DeleteGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: group.ID}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = env.ledger.GetTransaction(ctx, as(alice, &api.GetTransactionRequest{
		TransactionID: created.Msg.Transaction.ID,
	}))
	assertCode(t, connect.CodeNotFound, err)

	balances, err := env.friends.GetFriendBalances(ctx, as(alice, &api.GetFriendBalancesRequest{}))
	require.NoError(t, err)
	assert.Empty(t, balances.Msg.Balances)
}

func TestGetGroupBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.register("Alice")
	b := env.register("Bob")
	c := env.register("Carol")
	group := env.createGroup(a, "Trip", b, c)

	balances := func(t *testing.T) *api.GetGroupBalancesResponse {
		t.Helper()
		resp, err := env.groups.GetGroupBalances(ctx, as(a, &api.GetGroupBalancesRequest{GroupID: group.ID}))
		require.NoError(t, err)
		return resp.Msg
	}

	t.Run("no transactions", func(t *testing.T) {
		resp := balances(t)
		require.Len(t, resp.Balances, 3)
		for _, mb := range resp.Balances {
			assertAmount(t, "0", mb.Net)
			assert.True(t, mb.Settled)
		}
		assert.Empty(t, resp.Settlements)
	})

	// A pays 90 split equally among A, B and C.
	_, err := env.ledger.CreateTransaction(ctx, as(a, &api.CreateTransactionRequest{
		GroupID:     group.ID,
		Description: "Dinner",
		Split:       equalSplit(a, "90", a, b, c),
	}))
	require.NoError(t, err)

	t.Run("after equal expense", func(t *testing.T) {
		resp := balances(t)
		nets := netsByUser(resp.Balances)
		assertAmount(t, "60", nets[a.ID].Net)
		assertAmount(t, "90", nets[a.ID].TotalPaid)
		assertAmount(t, "30", nets[a.ID].TotalShare)
		assertAmount(t, "-30", nets[b.ID].Net)
		assertAmount(t, "-30", nets[c.ID].Net)
		assert.Equal(t, "Alice", nets[a.ID].User.Name)

		require.Len(t, resp.Settlements, 2)
		for _, s := range resp.Settlements {
			assert.Equal(t, a.ID, s.ToUserID)
			assertAmount(t, "30", s.Amount)
		}
		assert.ElementsMatch(t, []string{b.ID, c.ID},
			[]string{resp.Settlements[0].FromUserID, resp.Settlements[1].FromUserID})
	})

	// B pays A 30 as a settlement.
	_, err = env.ledger.CreateTransaction(ctx, as(b, &api.CreateTransactionRequest{
		GroupID: group.ID,
		Split:   settlementSplit(b, a, "30"),
	}))
	require.NoError(t, err)

	t.Run("after settlement", func(t *testing.T) {
		resp := balances(t)
		nets := netsByUser(resp.Balances)
		assertAmount(t, "30", nets[a.ID].Net)
		assertAmount(t, "0", nets[b.ID].Net)
		assert.True(t, nets[b.ID].Settled)
		assertAmount(t, "-30", nets[c.ID].Net)

		require.Len(t, resp.Settlements, 1)
		assert.Equal(t, c.ID, resp.Settlements[0].FromUserID)
		assert.Equal(t, a.ID, resp.Settlements[0].ToUserID)
	})

	t.Run("conservation", func(t *testing.T) {
		total := d("0")
		for _, mb := range balances(t).Balances {
			total = total.Add(mb.Net)
		}
		assertAmount(t, "0", total)
	})

	t.Run("non-group scope is rejected", func(t *testing.T) {
		_, err := env.groups.GetGroupBalances(ctx, as(a, &api.GetGroupBalancesRequest{GroupID: models.NonGroupID}))
		assertCode(t, connect.CodeInvalidArgument, err)
	})
}
