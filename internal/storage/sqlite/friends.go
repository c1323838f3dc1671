package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/storage"
)

// AddFriendship writes both directions of a friendship in one transaction,
// so a failure never leaves a one-sided relation behind.
func (s *SQLiteStore) AddFriendship(ctx context.Context, userID, friendID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?",
		userID, friendID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("friendship %w", storage.ErrAlreadyExists)
	}

	now := time.Now().Unix()
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO friendships (user_id, friend_id, created_at) VALUES (?, ?, ?)",
			pair[0], pair[1], now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert friendship: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListFriendIDs returns the IDs of userID's friends, ordered by ID.
func (s *SQLiteStore) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT friend_id FROM friendships WHERE user_id = ? ORDER BY friend_id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}
	return ids, nil
}
