// Package store defines the Store capability — durable intent state and
// the dead-letter queue — and a Postgres-backed implementation of it.
package store

import (
	"context"

	"github.com/speedrun-hq/settlement-worker/pkg/models"
)

// Store is the durable collaborator the producer polls and the processor
// writes terminal and intermediate outcomes to. Every method surfaces a
// *settlementerr.SettlementError of kind StoreError on failure.
type Store interface {
	// GetPending returns every PENDING intent, ordered by CreatedAt
	// ascending.
	GetPending(ctx context.Context) ([]models.Intent, error)
	// GetByStatus returns every intent in the given status.
	GetByStatus(ctx context.Context, status models.Status) ([]models.Intent, error)
	// Get returns a single intent by ID.
	Get(ctx context.Context, id string) (models.Intent, error)
	// GetByHash returns the intent that was settled with the given hash.
	GetByHash(ctx context.Context, hash string) (models.Intent, error)

	// SetStatus atomically updates an intent's status (and, when settling,
	// its hash in the same write) along with UpdatedAt.
	SetStatus(ctx context.Context, id string, status models.Status, hash string) error
	// IncrementRetry bumps retry_count by one.
	IncrementRetry(ctx context.Context, id string) error
	// RecordError stores the most recent failure's text for audit.
	RecordError(ctx context.Context, id string, text string) error
	// DLQ atomically inserts a dead-letter row and moves the intent to
	// FAILED.
	DLQ(ctx context.Context, intentID, reason, details string) error

	// ReconcilePendingFromProcessing moves every intent stuck in
	// PROCESSING back to PENDING. Run once at boot, before the producer
	// starts, to recover from a crash between the PROCESSING write and a
	// terminal write.
	ReconcilePendingFromProcessing(ctx context.Context) (int64, error)
}
