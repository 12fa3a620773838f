// Package repository defines the storage interfaces for the expense
// tracker's logical entities and the shared configuration and error
// taxonomy of their implementations.
//
// Every mutation on a denormalized entity (Tracker, SharedTransaction)
// fans out across several physical copies; implementations are not
// atomic across copies and callers must treat those operations as
// at-least-once (see ErrPartialFanOut).
package repository

import (
	"context"

	"divvy-backend/internal/domain"
)

// UserRepository stores account records.
type UserRepository interface {
	// CreateUser writes the user, failing with ErrAlreadyExists if an
	// item with that id is already present.
	CreateUser(ctx context.Context, user domain.User) error
	// GetUser point-reads a user; a missing id yields (nil, nil).
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetAllUsers lists every user, in no guaranteed order.
	GetAllUsers(ctx context.Context) ([]domain.User, error)
}

// TransactionRepository stores personal transactions.
type TransactionRepository interface {
	// CreateTransaction assigns a new time-sortable id seeded from the
	// transaction date and writes the item. The stored transaction,
	// including its id, is returned.
	CreateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)
	// GetTransaction point-reads one transaction; missing yields (nil, nil).
	GetTransaction(ctx context.Context, userID, txnID string) (*domain.Transaction, error)
	// UpdateTransaction overwrites the whole item, failing with
	// ErrNotFound if it does not exist.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) error
	// DeleteTransaction removes the item; deleting a missing id is a no-op.
	DeleteTransaction(ctx context.Context, userID, txnID string) error
	// GetTransactionsByUser lists a user's transactions, most recent first.
	GetTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	// GetTransactionsBetweenDates lists a user's transactions with
	// from <= date <= to, most recent first.
	GetTransactionsBetweenDates(ctx context.Context, userID string, from, to int64) ([]domain.Transaction, error)
}

// SettleRequest identifies one shared transaction to settle. The
// participants list must be the exact set stored with the transaction.
type SettleRequest struct {
	ID           string   `json:"id"`
	Tracker      string   `json:"tracker"`
	Participants []string `json:"participants"`
}

// SharedTransactionRepository stores tracker-scoped shared
// transactions, denormalized as one copy per participant plus one copy
// under the tracker.
type SharedTransactionRepository interface {
	// CreateSharedTransaction assigns a time-sortable id and writes all
	// participant copies plus the tracker copy.
	CreateSharedTransaction(ctx context.Context, txn domain.SharedTransaction) (*domain.SharedTransaction, error)
	// UpdateSharedTransaction overwrites every copy with the new body,
	// failing with ErrNotFound if the tracker-scoped copy is absent.
	UpdateSharedTransaction(ctx context.Context, txn domain.SharedTransaction) error
	// DeleteSharedTransaction removes the copies named by the given
	// tracker and participants list. The caller supplies the
	// authoritative participant set; the repository does not re-derive it.
	DeleteSharedTransaction(ctx context.Context, tracker, txnID string, participants []string) error
	// GetTransactionsByTracker lists a tracker's shared transactions,
	// most recent first.
	GetTransactionsByTracker(ctx context.Context, trackerID string) ([]domain.SharedTransaction, error)
	// GetTransactionsByTrackerBetweenDates lists a tracker's shared
	// transactions with from <= date <= to, most recent first.
	GetTransactionsByTrackerBetweenDates(ctx context.Context, trackerID string, from, to int64) ([]domain.SharedTransaction, error)
	// GetSharedTransactionsByUserBetweenDates lists one user's shared
	// transactions across all trackers with from <= date <= to.
	GetSharedTransactionsByUserBetweenDates(ctx context.Context, userID string, from, to int64) ([]domain.SharedTransaction, error)
	// GetUnsettledTransactionsByTracker lists the tracker's shared
	// transactions still carrying the unsettled marker.
	GetUnsettledTransactionsByTracker(ctx context.Context, trackerID string) ([]domain.SharedTransaction, error)
	// SettleTransactions clears the unsettled marker on every copy of
	// each named transaction. Each transaction settles independently;
	// re-running after a partial failure is safe.
	SettleTransactions(ctx context.Context, reqs []SettleRequest) error
}

// TrackerRepository stores expense-sharing groups, denormalized as one
// copy per member plus the canonical copy.
type TrackerRepository interface {
	// CreateTracker assigns a fresh id and writes the canonical copy
	// plus one copy per member. Callers enforce the two-member minimum.
	CreateTracker(ctx context.Context, name string, users []string) (*domain.Tracker, error)
	// GetTracker point-reads the canonical copy; missing yields (nil, nil).
	GetTracker(ctx context.Context, id string) (*domain.Tracker, error)
	// GetTrackersByUser lists the trackers a user belongs to.
	GetTrackersByUser(ctx context.Context, userID string) ([]domain.Tracker, error)
}

// Repository is the composite interface the API layer consumes.
type Repository interface {
	UserRepository
	TransactionRepository
	SharedTransactionRepository
	TrackerRepository
}
