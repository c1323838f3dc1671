package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestFriendService_AddFriend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")

	resp, err := env.friends.AddFriend(ctx, as(alice, &api.AddFriendRequest{Email: "BOB@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, bob.ID, resp.Msg.Friend.ID)

	t.Run("friendship is mutual", func(t *testing.T) {
		list, err := env.friends.ListFriends(ctx, as(bob, &api.ListFriendsRequest{}))
		require.NoError(t, err)
		require.Len(t, list.Msg.Friends, 1)
		assert.Equal(t, alice.ID, list.Msg.Friends[0].ID)
	})

	tests := []struct {
		name  string
		email string
		code  connect.Code
	}{
		{"already friends", "bob@example.com", connect.CodeAlreadyExists},
		{"already friends from the other side", "alice@example.com", connect.CodeAlreadyExists},
		{"self", "alice@example.com", connect.CodeInvalidArgument},
		{"unknown user", "nobody@example.com", connect.CodeNotFound},
		{"blank email", "  ", connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := alice
			if tt.name == "already friends from the other side" {
				caller = bob
			}
			_, err := env.friends.AddFriend(ctx, as(caller, &api.AddFriendRequest{Email: tt.email}))
			assertCode(t, tt.code, err)
		})
	}
}

func TestFriendService_GetFriendBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	bob := env.register("Bob")
	carol := env.register("Carol")
	dave := env.register("Dave")
	env.befriend(alice, bob)
	env.befriend(alice, dave)

	trip := env.createGroup(alice, "Trip", bob, carol)
	flat := env.createGroup(bob, "Flat", alice)

	// Trip: Alice pays 90 for all three. Bob owes 30, Carol owes 30.
	_, err := env.ledger.CreateTransaction(ctx, as(alice, &api.CreateTransactionRequest{
		GroupID:     trip.ID,
		Description: "Dinner",
		Split:       equalSplit(alice, "90", alice, bob, carol),
	}))
	require.NoError(t, err)

	// Flat: Bob pays 50 for both. Alice owes Bob 25.
	_, err = env.ledger.CreateTransaction(ctx, as(bob, &api.CreateTransactionRequest{
		GroupID:     flat.ID,
		Description: "Groceries",
		Split:       equalSplit(bob, "50", alice, bob),
	}))
	require.NoError(t, err)

	// Direct: Alice pays 12 for Bob alone.
	_, err = env.ledger.CreateTransaction(ctx, as(alice, &api.CreateTransactionRequest{
		Description: "Taxi",
		Split:       equalSplit(alice, "12", bob),
	}))
	require.NoError(t, err)

	resp, err := env.friends.GetFriendBalances(ctx, as(alice, &api.GetFriendBalancesRequest{}))
	require.NoError(t, err)

	got := counterpartsByUser(resp.Msg.Balances)
	require.Len(t, got, 3)

	assertAmount(t, "17", got[bob.ID].Amount) // 30 - 25 + 12
	assert.Equal(t, "Bob", got[bob.ID].User.Name)
	assertAmount(t, "30", got[carol.ID].Amount)
	assertAmount(t, "0", got[dave.ID].Amount)
	assert.True(t, got[dave.ID].Settled)
	assert.False(t, got[bob.ID].Settled)
	assertAmount(t, "47", resp.Msg.Net)

	t.Run("consistent with group balances", func(t *testing.T) {
		list, err := env.groups.ListGroups(ctx, as(alice, &api.ListGroupsRequest{}))
		require.NoError(t, err)
		require.Len(t, list.Msg.Groups, 2)

		sum := d("12") // direct transactions
		for _, summary := range list.Msg.Groups {
			sum = sum.Add(counterpartsByUser(summary.Counterparts)[bob.ID].Amount)
		}
		assertAmount(t, sum.String(), got[bob.ID].Amount)
	})

	t.Run("other perspective mirrors", func(t *testing.T) {
		resp, err := env.friends.GetFriendBalances(ctx, as(bob, &api.GetFriendBalancesRequest{}))
		require.NoError(t, err)
		assertAmount(t, "-17", counterpartsByUser(resp.Msg.Balances)[alice.ID].Amount)
	})
}
