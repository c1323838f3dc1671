package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	store         storage.Store
	metrics       *metrics.Metrics
	activityLimit int
}

// NewLedgerService creates a LedgerService. activityLimit caps ListActivity.
func NewLedgerService(store storage.Store, m *metrics.Metrics, activityLimit int) *LedgerService {
	return &LedgerService{store: store, metrics: m, activityLimit: activityLimit}
}

// scope is the set of users a transaction may reference: the group's
// members, or for non-group transactions the caller and their friends.
type scope struct {
	groupID string
	roster  calculator.RosterSet
}

func (s *LedgerService) resolveScope(ctx context.Context, groupID, userID string) (scope, error) {
	if groupID == "" || groupID == models.NonGroupID {
		group, err := nonGroup(ctx, s.store, userID)
		if err != nil {
			return scope{}, err
		}
		return scope{roster: calculator.NewRoster(group.Members...)}, nil
	}

	group, err := memberGroup(ctx, s.store, groupID, userID)
	if err != nil {
		return scope{}, err
	}
	return scope{groupID: group.ID, roster: calculator.NewRoster(group.Members...)}, nil
}

// splitRequest converts and checks the non-split fields of in.
// An empty kind means EXPENSE, an empty mode EQUAL and an empty payer the caller.
func splitRequest(in api.SplitInput, callerID string) (calculator.SplitRequest, error) {
	req := calculator.SplitRequest{
		Kind:    models.Kind(strings.ToUpper(in.Kind)),
		PayerID: in.PayerID,
		Amount:  in.Amount,
		Mode:    calculator.SplitMode(strings.ToUpper(in.Mode)),
	}
	if req.Kind == "" {
		req.Kind = models.KindExpense
	}
	if !req.Kind.Valid() {
		return req, invalidArgument("unknown transaction kind %q", in.Kind)
	}
	if req.Mode == "" {
		req.Mode = calculator.ModeEqual
	}
	if req.Mode != calculator.ModeEqual && req.Mode != calculator.ModeExact {
		return req, invalidArgument("unknown split mode %q", in.Mode)
	}
	if req.PayerID == "" {
		req.PayerID = callerID
	}

	req.Participants = make([]calculator.ShareInput, len(in.Participants))
	for i, p := range in.Participants {
		req.Participants[i] = calculator.ShareInput{UserID: p.UserID, Share: p.Share}
	}
	return req, nil
}

// validate runs the split rules against sc and returns the shares to store.
func validate(req calculator.SplitRequest, sc scope) ([]models.Share, error) {
	if !sc.roster.Contains(req.PayerID) {
		return nil, &calculator.SplitError{
			Kind:        calculator.KindInvalidParticipant,
			Message:     "payer is not a known member of this scope",
			Participant: req.PayerID,
		}
	}
	return calculator.ValidateSplit(req, sc.roster)
}

// describe returns the stored description. Settlements get a synthesized one.
func (s *LedgerService) describe(ctx context.Context, kind models.Kind, payerID string, split []models.Share, description string) (string, error) {
	if kind != models.KindSettlement {
		description = strings.TrimSpace(description)
		if description == "" {
			return "", invalidArgument("description is required")
		}
		return description, nil
	}

	receiverID := split[0].UserID
	dir, err := loadDirectory(ctx, s.store, []string{payerID, receiverID})
	if err != nil {
		return "", err
	}
	payer, receiver := dir[payerID], dir[receiverID]
	if payer == nil || receiver == nil {
		return "Settlement", nil
	}
	return fmt.Sprintf("%s paid %s", payer.Name, receiver.Name), nil
}

// authorize checks that userID may modify t: group transactions are open to
// group members, non-group ones to the payer and split participants.
func (s *LedgerService) authorize(ctx context.Context, t *models.Transaction, userID string) error {
	if !t.IsGroup() {
		if !t.Involves(userID) {
			return fmt.Errorf("%w: %s", errNotInvolved, t.ID)
		}
		return nil
	}
	_, err := memberGroup(ctx, s.store, t.GroupID, userID)
	return err
}

// PreviewSplit validates a split and returns the shares that would be stored.
func (s *LedgerService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	splitReq, err := splitRequest(req.Msg.Split, userID)
	if err != nil {
		return nil, err
	}
	sc, err := s.resolveScope(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	shares, err := validate(splitReq, sc)
	if err != nil {
		slog.Info("PreviewSplit rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	preview := models.Transaction{Amount: splitReq.Amount, Split: shares}
	return connect.NewResponse(&api.PreviewSplitResponse{
		Mode:  string(calculator.ClassifySplit(preview)),
		Split: toAPITransaction(preview).Split,
	}), nil
}

// CreateTransaction validates and records an expense or settlement.
func (s *LedgerService) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateTransaction request received",
		"group_id", req.Msg.GroupID,
		"kind", req.Msg.Split.Kind,
		"amount", req.Msg.Split.Amount.String(),
		"participants", len(req.Msg.Split.Participants),
	)

	splitReq, err := splitRequest(req.Msg.Split, userID)
	if err != nil {
		return nil, err
	}
	sc, err := s.resolveScope(ctx, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("CreateTransaction failed - scope", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	shares, err := validate(splitReq, sc)
	if err != nil {
		slog.Warn("CreateTransaction rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	description, err := s.describe(ctx, splitReq.Kind, splitReq.PayerID, shares, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}

	t := &models.Transaction{
		GroupID:     sc.groupID,
		PayerID:     splitReq.PayerID,
		Amount:      splitReq.Amount,
		Kind:        splitReq.Kind,
		Description: description,
		Split:       shares,
		CreatedBy:   userID,
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		slog.Error("CreateTransaction failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Transaction created", "transaction_id", t.ID, "group_id", t.GroupID, "kind", t.Kind)
	return connect.NewResponse(&api.CreateTransactionResponse{Transaction: toAPITransaction(*t)}), nil
}

// GetTransaction retrieves a transaction, including its derived split mode.
func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetTransaction request received", "transaction_id", req.Msg.TransactionID)

	t, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		slog.Error("GetTransaction failed", "transaction_id", req.Msg.TransactionID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.authorize(ctx, t, userID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetTransactionResponse{Transaction: toAPITransaction(*t)}), nil
}

// UpdateTransaction replaces amount, description and split, re-running every
// validation. Kind, payer and group cannot change.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateTransaction request received", "transaction_id", req.Msg.TransactionID)

	existing, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		slog.Warn("UpdateTransaction failed", "transaction_id", req.Msg.TransactionID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.authorize(ctx, existing, userID); err != nil {
		return nil, toConnectError(err)
	}

	in := req.Msg.Split
	if in.Kind == "" {
		in.Kind = string(existing.Kind)
	}
	if in.PayerID == "" {
		in.PayerID = existing.PayerID
	}
	splitReq, err := splitRequest(in, userID)
	if err != nil {
		return nil, err
	}
	if splitReq.Kind != existing.Kind {
		return nil, invalidArgument("transaction kind cannot change")
	}
	if splitReq.PayerID != existing.PayerID {
		return nil, invalidArgument("transaction payer cannot change")
	}

	groupID := existing.GroupID
	if groupID == "" {
		groupID = models.NonGroupID
	}
	sc, err := s.resolveScope(ctx, groupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	// A direct transaction stays editable by its participants even when the
	// caller is not friends with everyone in it.
	if !existing.IsGroup() {
		for _, id := range append([]string{existing.PayerID}, existing.ParticipantIDs()...) {
			sc.roster[id] = struct{}{}
		}
	}

	shares, err := validate(splitReq, sc)
	if err != nil {
		slog.Warn("UpdateTransaction rejected", "transaction_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}
	description, err := s.describe(ctx, splitReq.Kind, splitReq.PayerID, shares, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}

	existing.Amount = splitReq.Amount
	existing.Description = description
	existing.Split = shares
	if err := s.store.UpdateTransaction(ctx, existing); err != nil {
		slog.Error("UpdateTransaction failed", "transaction_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Transaction updated", "transaction_id", existing.ID)
	return connect.NewResponse(&api.UpdateTransactionResponse{Transaction: toAPITransaction(*existing)}), nil
}

// DeleteTransaction removes a transaction. Balances are recomputed on the next read.
func (s *LedgerService) DeleteTransaction(ctx context.Context, req *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteTransaction request received", "transaction_id", req.Msg.TransactionID)

	t, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.authorize(ctx, t, userID); err != nil {
		slog.Warn("DeleteTransaction denied", "transaction_id", t.ID, "user_id", userID)
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteTransaction(ctx, t.ID); err != nil {
		slog.Error("DeleteTransaction failed", "transaction_id", t.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Transaction deleted", "transaction_id", t.ID)
	return connect.NewResponse(&api.DeleteTransactionResponse{}), nil
}

// ListTransactions lists a group's transactions, or the caller's direct
// transactions for the "nongroup" scope.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("ListTransactions request received", "group_id", groupID)

	var txs []models.Transaction
	switch groupID {
	case "":
		return nil, invalidArgument("group_id required")
	case models.NonGroupID:
		txs, err = s.store.ListDirectTransactions(ctx, userID)
	default:
		if _, err = memberGroup(ctx, s.store, groupID, userID); err == nil {
			txs, err = s.store.ListTransactionsByGroup(ctx, groupID)
		}
	}
	if err != nil {
		slog.Error("ListTransactions failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: toAPITransactions(txs)}), nil
}

// ListActivity returns the caller's most recent transactions across all scopes.
func (s *LedgerService) ListActivity(ctx context.Context, req *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	limit := s.activityLimit
	if req.Msg.Limit > 0 && req.Msg.Limit < limit {
		limit = req.Msg.Limit
	}

	txs, err := s.store.ListTransactionsByUser(ctx, userID, limit)
	if err != nil {
		slog.Error("ListActivity failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListActivityResponse{Transactions: toAPITransactions(txs)}), nil
}
