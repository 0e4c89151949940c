package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/speedrun-hq/settlement-worker/pkg/models"
	"github.com/speedrun-hq/settlement-worker/pkg/settlementerr"
)

// Schema is the DDL for the two tables this store depends on. Exposed so
// the bootstrap path or a migration tool can apply it; this package never
// runs DDL itself.
const Schema = `
CREATE TABLE IF NOT EXISTS intents (
    id           TEXT PRIMARY KEY,
    status       TEXT NOT NULL,
    hash         TEXT UNIQUE,
    to_address   TEXT NOT NULL,
    value        TEXT NOT NULL,
    calldata     TEXT NOT NULL,
    gas_limit    TEXT NOT NULL,
    retry_count  INTEGER NOT NULL DEFAULT 0,
    last_error   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_intents_status_updated ON intents (status, updated_at);
CREATE INDEX IF NOT EXISTS idx_intents_retry_count ON intents (retry_count);

CREATE TABLE IF NOT EXISTS dead_letters (
    id            TEXT PRIMARY KEY,
    intent_id     TEXT NOT NULL REFERENCES intents(id),
    reason        TEXT NOT NULL,
    error_details TEXT,
    enqueued_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// intentRow mirrors the intents table for sqlx scanning.
type intentRow struct {
	ID         string    `db:"id"`
	Status     string    `db:"status"`
	Hash       sql.NullString `db:"hash"`
	To         string    `db:"to_address"`
	Value      string    `db:"value"`
	Calldata   string    `db:"calldata"`
	GasLimit   string    `db:"gas_limit"`
	RetryCount int       `db:"retry_count"`
	LastError  sql.NullString `db:"last_error"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r intentRow) toModel() models.Intent {
	return models.Intent{
		ID:         r.ID,
		Status:     models.Status(r.Status),
		Hash:       r.Hash.String,
		To:         r.To,
		Value:      r.Value,
		Calldata:   r.Calldata,
		GasLimit:   r.GasLimit,
		RetryCount: r.RetryCount,
		LastError:  r.LastError.String,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Postgres is the production Store implementation.
type Postgres struct {
	db *sqlx.DB
}

var _ Store = (*Postgres)(nil)

// Open connects to databaseURL and verifies connectivity with a ping.
func Open(databaseURL string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func storeErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	return settlementerr.NewStoreError(operation, err)
}

func (p *Postgres) GetPending(ctx context.Context) ([]models.Intent, error) {
	return p.getByStatus(ctx, models.StatusPending, "getPending")
}

func (p *Postgres) GetByStatus(ctx context.Context, status models.Status) ([]models.Intent, error) {
	return p.getByStatus(ctx, status, "getByStatus")
}

func (p *Postgres) getByStatus(ctx context.Context, status models.Status, op string) ([]models.Intent, error) {
	const query = `
		SELECT id, status, hash, to_address, value, calldata, gas_limit, retry_count, last_error, created_at, updated_at
		FROM intents
		WHERE status = $1
		ORDER BY created_at ASC`

	var rows []intentRow
	if err := p.db.SelectContext(ctx, &rows, query, string(status)); err != nil {
		return nil, storeErr(op, err)
	}

	intents := make([]models.Intent, 0, len(rows))
	for _, r := range rows {
		intents = append(intents, r.toModel())
	}
	return intents, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (models.Intent, error) {
	const query = `
		SELECT id, status, hash, to_address, value, calldata, gas_limit, retry_count, last_error, created_at, updated_at
		FROM intents WHERE id = $1`

	var row intentRow
	if err := p.db.GetContext(ctx, &row, query, id); err != nil {
		return models.Intent{}, storeErr("get", err)
	}
	return row.toModel(), nil
}

func (p *Postgres) GetByHash(ctx context.Context, hash string) (models.Intent, error) {
	const query = `
		SELECT id, status, hash, to_address, value, calldata, gas_limit, retry_count, last_error, created_at, updated_at
		FROM intents WHERE hash = $1`

	var row intentRow
	if err := p.db.GetContext(ctx, &row, query, hash); err != nil {
		return models.Intent{}, storeErr("getByHash", err)
	}
	return row.toModel(), nil
}

// SetStatus writes status and, when hash is non-empty, the hash in the
// same UPDATE, preserving the invariant that hash is only ever written
// alongside SETTLED.
func (p *Postgres) SetStatus(ctx context.Context, id string, status models.Status, hash string) error {
	var err error
	if hash != "" {
		_, err = p.db.ExecContext(ctx,
			`UPDATE intents SET status = $1, hash = $2, updated_at = now() WHERE id = $3`,
			string(status), hash, id)
	} else {
		_, err = p.db.ExecContext(ctx,
			`UPDATE intents SET status = $1, updated_at = now() WHERE id = $2`,
			string(status), id)
	}
	return storeErr("setStatus", err)
}

func (p *Postgres) IncrementRetry(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE intents SET retry_count = retry_count + 1, updated_at = now() WHERE id = $1`, id)
	return storeErr("incrementRetry", err)
}

func (p *Postgres) RecordError(ctx context.Context, id string, text string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE intents SET last_error = $1, updated_at = now() WHERE id = $2`, text, id)
	return storeErr("recordError", err)
}

// DLQ inserts a dead-letter row and marks the intent FAILED inside one
// transaction, so a DLQ row existing and the intent being FAILED can never
// diverge (invariant 2 in the data model).
func (p *Postgres) DLQ(ctx context.Context, intentID, reason, details string) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("dlq", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dead_letters (id, intent_id, reason, error_details, enqueued_at) VALUES ($1, $2, $3, $4, now())`,
		uuid.New().String(), intentID, reason, details); err != nil {
		return storeErr("dlq", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE intents SET status = $1, updated_at = now() WHERE id = $2`,
		string(models.StatusFailed), intentID); err != nil {
		return storeErr("dlq", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("dlq", err)
	}
	return nil
}

func (p *Postgres) ReconcilePendingFromProcessing(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE intents SET status = $1, updated_at = now() WHERE status = $2`,
		string(models.StatusPending), string(models.StatusProcessing))
	if err != nil {
		return 0, storeErr("reconcilePendingFromProcessing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("reconcilePendingFromProcessing", err)
	}
	return n, nil
}
