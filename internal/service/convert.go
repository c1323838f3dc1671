package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toAPITransaction(t models.Transaction) api.Transaction {
	split := make([]api.Share, len(t.Split))
	for i, s := range t.Split {
		split[i] = api.Share{UserID: s.UserID, Amount: s.Amount}
	}
	return api.Transaction{
		ID:          t.ID,
		GroupID:     t.GroupID,
		PayerID:     t.PayerID,
		Amount:      t.Amount,
		Kind:        string(t.Kind),
		Description: t.Description,
		SplitMode:   string(calculator.ClassifySplit(t)),
		Split:       split,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toAPITransactions(txs []models.Transaction) []api.Transaction {
	out := make([]api.Transaction, len(txs))
	for i, t := range txs {
		out[i] = toAPITransaction(t)
	}
	return out
}

// userDirectory resolves user IDs to their public view.
// IDs without a stored user resolve to a bare api.User carrying only the ID.
type userDirectory map[string]*models.User

func loadDirectory(ctx context.Context, store storage.Store, ids []string) (userDirectory, error) {
	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	return userDirectory(users), nil
}

func (d userDirectory) user(id string) api.User {
	if u, ok := d[id]; ok {
		return toAPIUser(u)
	}
	return api.User{ID: id}
}

// users resolves ids in order.
func (d userDirectory) users(ids []string) []api.User {
	out := make([]api.User, len(ids))
	for i, id := range ids {
		out[i] = d.user(id)
	}
	return out
}

func toAPIGroup(g *models.Group, dir userDirectory) api.Group {
	return api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   dir.users(g.Members),
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

// counterpartBalances renders a per-counterpart map sorted by name, then ID.
func counterpartBalances(per map[string]decimal.Decimal, dir userDirectory) []api.CounterpartBalance {
	out := make([]api.CounterpartBalance, 0, len(per))
	for id, amount := range per {
		out = append(out, api.CounterpartBalance{
			User:    dir.user(id),
			Amount:  amount.Round(2),
			Settled: calculator.Settled(amount),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User.Name != out[j].User.Name {
			return out[i].User.Name < out[j].User.Name
		}
		return out[i].User.ID < out[j].User.ID
	})
	return out
}

func mapKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dedupe returns ids without blanks or repeats, preserving first occurrence.
func dedupe(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
