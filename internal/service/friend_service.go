package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.FriendServiceHandler = (*FriendService)(nil)

// FriendService implements the Connect FriendService.
type FriendService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewFriendService creates a new FriendService with the given storage backend.
func NewFriendService(store storage.Store, m *metrics.Metrics) *FriendService {
	return &FriendService{store: store, metrics: m}
}

// AddFriend befriends the user with the given email. The friendship is mutual.
func (s *FriendService) AddFriend(ctx context.Context, req *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddFriend request received", "user_id", userID, "email", req.Msg.Email)

	email := auth.NormalizeEmail(req.Msg.Email)
	if email == "" {
		return nil, invalidArgument("email is required")
	}

	friend, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Warn("AddFriend failed - user lookup", "email", email, "error", err)
		return nil, toConnectError(err)
	}
	if friend.ID == userID {
		return nil, invalidArgument("cannot add yourself as a friend")
	}

	if err := s.store.AddFriendship(ctx, userID, friend.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, connect.NewError(connect.CodeAlreadyExists, errors.New("already friends"))
		}
		slog.Error("AddFriend failed", "user_id", userID, "friend_id", friend.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Friend added", "user_id", userID, "friend_id", friend.ID)
	return connect.NewResponse(&api.AddFriendResponse{Friend: toAPIUser(friend)}), nil
}

// ListFriends returns the caller's friends ordered by name.
func (s *FriendService) ListFriends(ctx context.Context, req *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.ListFriendIDs(ctx, userID)
	if err != nil {
		slog.Error("ListFriends failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	dir, err := loadDirectory(ctx, s.store, ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	friends := dir.users(ids)
	sort.SliceStable(friends, func(i, j int) bool { return friends[i].Name < friends[j].Name })

	return connect.NewResponse(&api.ListFriendsResponse{Friends: friends}), nil
}

// GetFriendBalances returns one net balance per counterpart, summed over
// every group the caller belongs to plus direct transactions.
func (s *FriendService) GetFriendBalances(ctx context.Context, req *connect.Request[api.GetFriendBalancesRequest]) (*connect.Response[api.GetFriendBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetFriendBalances request received", "user_id", userID)

	per, err := s.friendAggregate(ctx, userID)
	if err != nil {
		slog.Error("GetFriendBalances failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	dir, err := loadDirectory(ctx, s.store, mapKeys(per))
	if err != nil {
		return nil, toConnectError(err)
	}

	net := decimal.Zero
	for _, amount := range per {
		net = net.Add(amount)
	}

	slog.Info("GetFriendBalances successful", "user_id", userID, "counterparts", len(per))
	return connect.NewResponse(&api.GetFriendBalancesResponse{
		Balances: counterpartBalances(per, dir),
		Net:      net.Round(2),
	}), nil
}

func (s *FriendService) friendAggregate(ctx context.Context, userID string) (_ map[string]decimal.Decimal, err error) {
	ctx, span := tracer.Start(ctx, "calculator.FriendAggregate")
	defer func() { endSpan(span, err) }()

	friends, err := s.store.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledgers, err := loadLedgers(ctx, s.store, groups)
	if err != nil {
		return nil, err
	}
	direct, err := s.store.ListDirectTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("groups", len(groups)),
		attribute.Int("direct_transactions", len(direct)),
	)
	s.metrics.BalanceComputed(metrics.ScopeFriend)

	return calculator.FriendAggregate(userID, ledgers, direct, friends), nil
}
