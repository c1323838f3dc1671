package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

const transactionColumns = "id, group_id, payer_id, amount, kind, description, created_by, created_at, updated_at"

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t       models.Transaction
		groupID sql.NullString
		kind    string
	)
	err := row.Scan(&t.ID, &groupID, &t.PayerID, &t.Amount, &kind,
		&t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.GroupID = groupID.String
	t.Kind = models.Kind(kind)
	return t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateTransaction persists a new transaction and its split in one SQL transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	if t.UpdatedAt == 0 {
		t.UpdatedAt = t.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, nullable(t.GroupID), t.PayerID, t.Amount, string(t.Kind),
		t.Description, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := insertSplit(ctx, tx, t.ID, t.Split); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSplit(ctx context.Context, tx *sql.Tx, transactionID string, split []models.Share) error {
	for _, share := range split {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO transaction_splits (transaction_id, user_id, share) VALUES (?, ?, ?)",
			transactionID, share.UserID, share.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split entry: %w", err)
		}
	}
	return nil
}

// GetTransaction retrieves a transaction by ID, including its split.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txs := []models.Transaction{t}
	if err := s.loadSplits(ctx, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// UpdateTransaction replaces the amount, description and split of a transaction.
// Payer, kind and group are fixed at creation.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, description = ?, updated_at = ? WHERE id = ?",
		t.Amount, t.Description, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("transaction", t.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transaction_splits WHERE transaction_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear split: %w", err)
	}
	if err := insertSplit(ctx, tx, t.ID, t.Split); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction by ID. Its split cascades.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("transaction", id)
	}
	return nil
}

// ListTransactionsByGroup retrieves all transactions for a group, newest first.
func (s *SQLiteStore) ListTransactionsByGroup(ctx context.Context, groupID string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		"WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
}

// ListDirectTransactions retrieves non-group transactions that userID paid or shares in.
func (s *SQLiteStore) ListDirectTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		`WHERE group_id IS NULL
		   AND (payer_id = ? OR id IN (SELECT transaction_id FROM transaction_splits WHERE user_id = ?))
		 ORDER BY created_at DESC, id`,
		userID, userID,
	)
}

// ListTransactionsByUser retrieves the most recent transactions involving userID in any scope.
func (s *SQLiteStore) ListTransactionsByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		`WHERE payer_id = ? OR id IN (SELECT transaction_id FROM transaction_splits WHERE user_id = ?)
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		userID, userID, limit,
	)
}

// queryTransactions runs a SELECT over transactions with the given clause
// and fills in every split with one additional query.
func (s *SQLiteStore) queryTransactions(ctx context.Context, clause string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions "+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	if err := s.loadSplits(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// loadSplits populates the Split field of each transaction in txs.
func (s *SQLiteStore) loadSplits(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	index := make(map[string]int, len(txs))
	ids := make([]string, len(txs))
	for i, t := range txs {
		index[t.ID] = i
		ids[i] = t.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT transaction_id, user_id, share FROM transaction_splits WHERE transaction_id IN ("+
			placeholders(len(ids))+") ORDER BY transaction_id, user_id",
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get split entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			transactionID string
			share         models.Share
		)
		if err := rows.Scan(&transactionID, &share.UserID, &share.Amount); err != nil {
			return fmt.Errorf("failed to scan split entry: %w", err)
		}
		i := index[transactionID]
		txs[i].Split = append(txs[i].Split, share)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split entries: %w", err)
	}
	return nil
}
