// Package calculator holds the ledger core: split validation, balance
// computation and cross-group aggregation. Every function is pure and
// safe for concurrent use.
package calculator

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitMode says how shares are assigned.
type SplitMode string

const (
	// ModeEqual divides the amount equally; shares are computed server-side.
	ModeEqual SplitMode = "EQUAL"
	// ModeExact takes each participant's share from the caller.
	ModeExact SplitMode = "EXACT"
)

var (
	// SplitTolerance bounds |sum(shares) - amount| and equal-share classification.
	SplitTolerance = decimal.RequireFromString("0.05")

	cent = decimal.New(1, -2)
)

// ShareInput is a proposed split entry. Share is ignored in EQUAL mode.
type ShareInput struct {
	UserID string
	Share  decimal.Decimal
}

// SplitRequest is a proposed transaction split awaiting validation.
type SplitRequest struct {
	Kind         models.Kind
	PayerID      string
	Amount       decimal.Decimal
	Mode         SplitMode
	Participants []ShareInput
}

// Roster answers whether a user may appear in a split: the user exists
// and, for group transactions, is a member of the group.
type Roster interface {
	Contains(userID string) bool
}

// RosterSet is a Roster backed by a set of user IDs.
type RosterSet map[string]struct{}

// NewRoster builds a RosterSet from ids.
func NewRoster(ids ...string) RosterSet {
	r := make(RosterSet, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

// Contains implements Roster.
func (r RosterSet) Contains(userID string) bool {
	_, ok := r[userID]
	return ok
}

// ValidateSplit checks a proposed split and returns the shares to persist.
// A nil roster skips the participant existence check.
//
// Checks run in order: amount, emptiness, settlement arity, participants,
// then the mode rules. The first failure is returned as a *SplitError.
//
// Amounts and exact shares are rounded to cents before any check, so the
// stored split never carries sub-cent values.
func ValidateSplit(req SplitRequest, roster Roster) ([]models.Share, error) {
	req.Amount = req.Amount.Round(2)
	if !req.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if len(req.Participants) == 0 {
		return nil, ErrEmptySplit
	}
	if req.Kind == models.KindSettlement && len(req.Participants) > 1 {
		return nil, ErrSettlementMultiParticipant
	}

	seen := make(map[string]struct{}, len(req.Participants))
	for _, p := range req.Participants {
		if p.UserID == "" {
			return nil, invalidParticipant(p.UserID, "participant id is required")
		}
		if _, dup := seen[p.UserID]; dup {
			return nil, invalidParticipant(p.UserID, "participant appears more than once")
		}
		seen[p.UserID] = struct{}{}
		if roster != nil && !roster.Contains(p.UserID) {
			return nil, invalidParticipant(p.UserID, "participant is not a known member of this scope")
		}
	}

	if req.Kind == models.KindSettlement {
		receiver := req.Participants[0].UserID
		if receiver == req.PayerID {
			return nil, invalidParticipant(receiver, "settlement receiver must differ from payer")
		}
		return []models.Share{{UserID: receiver, Amount: req.Amount}}, nil
	}

	switch req.Mode {
	case ModeExact:
		return exactShares(req.Amount, req.PayerID, req.Participants)
	default:
		ids := make([]string, len(req.Participants))
		for i, p := range req.Participants {
			ids[i] = p.UserID
		}
		return EqualShares(req.Amount, ids), nil
	}
}

// EqualShares divides amount equally among ids, rounded to cents.
// Leftover cents go one each to the lowest IDs, so the shares add up to
// amount (to the cent) independent of the order of ids.
func EqualShares(amount decimal.Decimal, ids []string) []models.Share {
	if len(ids) == 0 {
		return nil
	}
	n := decimal.NewFromInt(int64(len(ids)))
	base := amount.Div(n).Truncate(2)
	extra := amount.Sub(base.Mul(n)).Div(cent).IntPart()

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	bonus := make(map[string]bool, extra)
	for i := 0; i < int(extra) && i < len(sorted); i++ {
		bonus[sorted[i]] = true
	}

	shares := make([]models.Share, len(ids))
	for i, id := range ids {
		share := base
		if bonus[id] {
			share = share.Add(cent)
		}
		shares[i] = models.Share{UserID: id, Amount: share}
	}
	return shares
}

// exactShares takes the caller's shares. A residual inside SplitTolerance
// is absorbed by the payer's share, or by the largest share when the payer
// is not in the split, so the stored shares add up to amount.
func exactShares(amount decimal.Decimal, payerID string, participants []ShareInput) ([]models.Share, error) {
	sum := decimal.Zero
	shares := make([]models.Share, len(participants))
	for i, p := range participants {
		share := p.Share.Round(2)
		if share.IsNegative() {
			return nil, invalidParticipant(p.UserID, "share cannot be negative")
		}
		sum = sum.Add(share)
		shares[i] = models.Share{UserID: p.UserID, Amount: share}
	}
	mismatch := &SplitError{
		Kind:     KindSplitMismatch,
		Message:  ErrSplitMismatch.Message,
		Sum:      sum,
		Expected: amount,
	}
	residual := amount.Sub(sum)
	if residual.Abs().GreaterThanOrEqual(SplitTolerance) {
		return nil, mismatch
	}
	if residual.IsZero() {
		return shares, nil
	}

	absorber := slices.IndexFunc(shares, func(s models.Share) bool { return s.UserID == payerID })
	if absorber < 0 {
		absorber = 0
		for i, s := range shares {
			top := shares[absorber]
			if s.Amount.GreaterThan(top.Amount) || (s.Amount.Equal(top.Amount) && s.UserID < top.UserID) {
				absorber = i
			}
		}
	}
	adjusted := shares[absorber].Amount.Add(residual)
	if adjusted.IsNegative() {
		return nil, mismatch
	}
	shares[absorber].Amount = adjusted
	return shares, nil
}

// ClassifySplit derives the mode an editor should preselect for tx.
// A split is EQUAL when every share is within SplitTolerance of amount/n.
func ClassifySplit(tx models.Transaction) SplitMode {
	if len(tx.Split) == 0 {
		return ModeExact
	}
	expected := tx.Amount.Div(decimal.NewFromInt(int64(len(tx.Split))))
	for _, s := range tx.Split {
		if s.Amount.Sub(expected).Abs().GreaterThanOrEqual(SplitTolerance) {
			return ModeExact
		}
	}
	return ModeEqual
}
