package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// nonGroupName is the display name of the virtual non-group scope.
const nonGroupName = "Non-group expenses"

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, metrics: m}
}

// memberGroup loads a group and checks that userID belongs to it.
func memberGroup(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("%w: %s", errNotMember, groupID)
	}
	return group, nil
}

// nonGroup builds the virtual group of userID and their friends.
func nonGroup(ctx context.Context, store storage.Store, userID string) (*models.Group, error) {
	friends, err := store.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Group{
		ID:      models.NonGroupID,
		Name:    nonGroupName,
		Members: append([]string{userID}, friends...),
	}, nil
}

// checkUsersExist returns an InvalidArgument error naming the first unknown ID.
func checkUsersExist(ctx context.Context, store storage.Store, ids []string) error {
	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return invalidArgument("unknown member %q", id)
		}
	}
	return nil
}

// CreateGroup creates a new group. The caller is always a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}

	members := dedupe(append([]string{userID}, req.Msg.Members...)...)
	if err := checkUsersExist(ctx, s.store, members); err != nil {
		slog.Warn("CreateGroup failed - members", "error", err)
		return nil, toConnectError(err)
	}

	group := &models.Group{
		Name:      name,
		Members:   members,
		CreatedBy: userID,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	dir, err := loadDirectory(ctx, s.store, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, dir)}), nil
}

// GetGroup retrieves a group by ID. The "nongroup" ID returns the caller's
// virtual peer-to-peer group, whose members are the caller and their friends.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	var group *models.Group
	if req.Msg.GroupID == models.NonGroupID {
		group, err = nonGroup(ctx, s.store, userID)
	} else {
		group, err = memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	}
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	dir, err := loadDirectory(ctx, s.store, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group, dir)}), nil
}

// ListGroups returns the caller's groups with the caller's balance in each.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}
	ledgers, err := loadLedgers(ctx, s.store, groups)
	if err != nil {
		slog.Error("ListGroups failed - could not load transactions", "error", err)
		return nil, toConnectError(err)
	}

	var ids []string
	for _, g := range groups {
		ids = append(ids, g.Members...)
	}
	dir, err := loadDirectory(ctx, s.store, dedupe(ids...))
	if err != nil {
		return nil, toConnectError(err)
	}

	summaries := make([]api.GroupSummary, len(ledgers))
	for i, l := range ledgers {
		b := calculator.GroupBalanceFor(l.Group, l.Transactions, userID)
		s.metrics.BalanceComputed(metrics.ScopeGroup)
		summaries[i] = api.GroupSummary{
			Group:        toAPIGroup(&l.Group, dir),
			MyBalance:    b.Net.Round(2),
			Counterparts: counterpartBalances(b.PerCounterpart, dir),
		}
	}

	slog.Info("ListGroups successful", "count", len(summaries))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: summaries}), nil
}

// UpdateGroup renames a group and replaces its members.
// The creator stays a member, and members referenced by existing
// transactions cannot be removed.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	existing, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("UpdateGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}
	members := dedupe(append([]string{existing.CreatedBy}, req.Msg.Members...)...)
	if err := checkUsersExist(ctx, s.store, members); err != nil {
		return nil, toConnectError(err)
	}

	txs, err := s.store.ListTransactionsByGroup(ctx, existing.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	kept := calculator.NewRoster(members...)
	for _, t := range txs {
		for _, id := range append([]string{t.PayerID}, t.ParticipantIDs()...) {
			if !kept.Contains(id) {
				return nil, connect.NewError(connect.CodeFailedPrecondition,
					fmt.Errorf("member %q has transactions in this group and cannot be removed", id))
			}
		}
	}

	group := &models.Group{
		ID:        existing.ID,
		Name:      name,
		Members:   members,
		CreatedBy: existing.CreatedBy,
		CreatedAt: existing.CreatedAt,
	}
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	dir, err := loadDirectory(ctx, s.store, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group, dir)}), nil
}

// DeleteGroup removes a group and all of its transactions.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupBalances computes every member's net balance in a group and
// suggests the payments that would settle them.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	switch groupID {
	case "":
		return nil, invalidArgument("group_id required")
	case models.NonGroupID:
		return nil, connect.NewError(connect.CodeInvalidArgument, errNonGroupScope)
	}

	group, err := memberGroup(ctx, s.store, groupID, userID)
	if err != nil {
		slog.Error("GetGroupBalances failed - group", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	balances, err := s.groupBalances(ctx, group)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list transactions", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	dir, err := loadDirectory(ctx, s.store, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = api.MemberBalance{
			User:       dir.user(b.UserID),
			Net:        b.Net.Round(2),
			TotalPaid:  b.TotalPaid.Round(2),
			TotalShare: b.TotalShare.Round(2),
			Settled:    calculator.Settled(b.Net),
		}
	}

	edges := calculator.SimplifyDebts(calculator.NetsOf(balances))
	settlements := make([]api.SuggestedSettlement, len(edges))
	for i, e := range edges {
		settlements[i] = api.SuggestedSettlement{
			FromUserID: e.From,
			ToUserID:   e.To,
			Amount:     e.Amount.Round(2),
		}
	}

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"members", len(out),
		"settlements", len(settlements),
	)
	return connect.NewResponse(&api.GetGroupBalancesResponse{
		GroupID:     groupID,
		Balances:    out,
		Settlements: settlements,
	}), nil
}

func (s *GroupService) groupBalances(ctx context.Context, group *models.Group) (_ []calculator.MemberBalance, err error) {
	ctx, span := tracer.Start(ctx, "calculator.GroupBalances")
	defer func() { endSpan(span, err) }()

	txs, err := s.store.ListTransactionsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("group_id", group.ID),
		attribute.Int("members", len(group.Members)),
		attribute.Int("transactions", len(txs)),
	)
	s.metrics.BalanceComputed(metrics.ScopeGroup)

	balances := calculator.GroupBalances(*group, txs)
	if total := sumNets(balances); !calculator.Settled(total) {
		slog.Warn("Group balances do not sum to zero", "group_id", group.ID, "total", total.String())
	}
	return balances, nil
}

// sumNets is the total of all member nets; zero for a closed group.
func sumNets(balances []calculator.MemberBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Net)
	}
	return total
}
