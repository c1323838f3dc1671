package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// testEnv is a running server over a temp SQLite store, with a client per service.
type testEnv struct {
	t        *testing.T
	store    *sqlite.SQLiteStore
	registry *prometheus.Registry
	auth     apiconnect.AuthServiceClient
	friends  apiconnect.FriendServiceClient
	groups   apiconnect.GroupServiceClient
	ledger   apiconnect.LedgerServiceClient
}

// testUser is a registered account and its session token.
type testUser struct {
	api.User
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	mux := http.NewServeMux()
	Mount(mux, Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWTManager:    auth.NewJWTManager("test-secret", time.Hour),
		Metrics:       metrics.New(registry),
		Logger:        slog.Default(),
		ActivityLimit: 3,
	})
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		t:        t,
		store:    store,
		registry: registry,
		auth:     apiconnect.NewAuthServiceClient(server.Client(), server.URL),
		friends:  apiconnect.NewFriendServiceClient(server.Client(), server.URL),
		groups:   apiconnect.NewGroupServiceClient(server.Client(), server.URL),
		ledger:   apiconnect.NewLedgerServiceClient(server.Client(), server.URL),
	}
}

// register creates an account named name with a derived email.
func (e *testEnv) register(name string) testUser {
	e.t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "password123",
	}))
	require.NoError(e.t, err)
	return testUser{User: resp.Msg.User, token: resp.Msg.Token}
}

// befriend makes a and b mutual friends.
func (e *testEnv) befriend(a, b testUser) {
	e.t.Helper()
	_, err := e.friends.AddFriend(context.Background(), as(a, &api.AddFriendRequest{Email: b.Email}))
	require.NoError(e.t, err)
}

// createGroup creates a group owned by owner containing members.
func (e *testEnv) createGroup(owner testUser, name string, members ...testUser) api.Group {
	e.t.Helper()
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	resp, err := e.groups.CreateGroup(context.Background(), as(owner, &api.CreateGroupRequest{
		Name:    name,
		Members: ids,
	}))
	require.NoError(e.t, err)
	return resp.Msg.Group
}

// as wraps msg in a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.token)
	return req
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func connectErr(t *testing.T, err error) *connect.Error {
	t.Helper()
	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr), "not a connect error: %v", err)
	return cerr
}

func equalSplit(payer testUser, amount string, participants ...testUser) api.SplitInput {
	in := api.SplitInput{
		Kind:    "EXPENSE",
		PayerID: payer.ID,
		Amount:  d(amount),
		Mode:    "EQUAL",
	}
	for _, p := range participants {
		in.Participants = append(in.Participants, api.ShareInput{UserID: p.ID})
	}
	return in
}

func settlementSplit(payer, receiver testUser, amount string) api.SplitInput {
	return api.SplitInput{
		Kind:         "SETTLEMENT",
		PayerID:      payer.ID,
		Amount:       d(amount),
		Participants: []api.ShareInput{{UserID: receiver.ID, Share: d(amount)}},
	}
}

func netsByUser(balances []api.MemberBalance) map[string]api.MemberBalance {
	out := make(map[string]api.MemberBalance, len(balances))
	for _, b := range balances {
		out[b.User.ID] = b
	}
	return out
}

func counterpartsByUser(balances []api.CounterpartBalance) map[string]api.CounterpartBalance {
	out := make(map[string]api.CounterpartBalance, len(balances))
	for _, b := range balances {
		out[b.User.ID] = b
	}
	return out
}
