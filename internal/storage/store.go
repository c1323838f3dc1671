// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a referenced user, group or transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique record would be duplicated.
	ErrAlreadyExists = errors.New("already exists")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Writes are visible to the next read on the same Store (read-your-writes).
type Store interface {
	// CreateUser persists a new user. Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns the users that exist among ids, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// ListUsers returns every registered user ordered by name.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// AddFriendship records a mutual friendship between two users in one write.
	// Returns ErrAlreadyExists if they are already friends.
	AddFriendship(ctx context.Context, userID, friendID string) error

	// ListFriendIDs returns the IDs of userID's friends.
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)

	// CreateGroup persists a new group and its members.
	// The group.ID and group.CreatedAt fields will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns the groups userID belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup replaces a group's name and member set.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group along with its transactions.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateTransaction persists a transaction and its split atomically.
	// The tx.ID and tx.CreatedAt fields will be populated by the store.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// GetTransaction retrieves a transaction with its split.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// UpdateTransaction replaces amount, description and split atomically.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error

	// DeleteTransaction removes a transaction and its split.
	DeleteTransaction(ctx context.Context, id string) error

	// ListTransactionsByGroup returns every transaction of a group, newest first.
	ListTransactionsByGroup(ctx context.Context, groupID string) ([]models.Transaction, error)

	// ListDirectTransactions returns non-group transactions involving userID, newest first.
	ListDirectTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// ListTransactionsByUser returns up to limit transactions involving userID
	// across all scopes, newest first.
	ListTransactionsByUser(ctx context.Context, userID string, limit int) ([]models.Transaction, error)

	// Close releases any resources held by the store.
	Close() error
}
