package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestAuthService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register("Alice")
	assert.NotEmpty(t, alice.ID)
	assert.NotEmpty(t, alice.token)
	assert.Equal(t, "alice@example.com", alice.Email)

	t.Run("Login", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "Alice@Example.com",
			Password: "password123",
		}))
		require.NoError(t, err)
		assert.Equal(t, alice.ID, resp.Msg.User.ID)
		assert.NotEmpty(t, resp.Msg.Token)
		assert.Equal(t, int64(time.Hour.Seconds()), resp.Msg.ExpiresIn)
	})

	t.Run("Login with wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "nope-nope",
		}))
		assertCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("Register duplicate email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Name:     "Alice Again",
			Email:    "alice@example.com",
			Password: "password123",
		}))
		assertCode(t, connect.CodeAlreadyExists, err)
	})

	t.Run("Register weak password", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Name:     "Bob",
			Email:    "bob@example.com",
			Password: "short",
		}))
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("GetCurrentUser", func(t *testing.T) {
		resp, err := env.auth.GetCurrentUser(ctx, as(alice, &api.GetCurrentUserRequest{}))
		require.NoError(t, err)
		assert.Equal(t, "Alice", resp.Msg.User.Name)
	})

	t.Run("protected procedures need a token", func(t *testing.T) {
		_, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		assertCode(t, connect.CodeUnauthenticated, err)

		_, err = env.groups.ListGroups(ctx, as(testUser{token: "garbage"}, &api.ListGroupsRequest{}))
		assertCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("ListUsers", func(t *testing.T) {
		env.register("Carol")
		resp, err := env.auth.ListUsers(ctx, as(alice, &api.ListUsersRequest{}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Users, 2)
		assert.Equal(t, "Alice", resp.Msg.Users[0].Name)
		assert.Equal(t, "Carol", resp.Msg.Users[1].Name)
	})
}
