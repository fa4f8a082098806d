package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/jupstaker/staker"
	"github.com/screwyprof/jupstaker/staker/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrInsertFailed = errors.New("insert operation failed")
	ErrQueryFailed  = errors.New("outcome query failed")
)

// Store implements staker.Journal interface using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveOutcome records one account's outcome. Saving the same account twice
// within a batch keeps the latest outcome.
func (s *Store) SaveOutcome(ctx context.Context, batchID uuid.UUID, outcome staker.Outcome) error {
	row, err := dbrow.FromOutcome(batchID, outcome)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO stake_outcomes (batch_id, idx, owner, amount, stage, failed_at, signature, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (batch_id, idx) DO UPDATE SET
			owner = EXCLUDED.owner,
			amount = EXCLUDED.amount,
			stage = EXCLUDED.stage,
			failed_at = EXCLUDED.failed_at,
			signature = EXCLUDED.signature,
			error = EXCLUDED.error
	`, row.BatchID, row.Index, row.Owner, row.Amount, row.Stage, row.FailedAt, row.Signature, row.Error)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return nil
}

// Outcomes returns the outcomes of a batch ordered by account index
func (s *Store) Outcomes(ctx context.Context, batchID uuid.UUID) ([]staker.Outcome, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT batch_id, idx, owner, amount, stage, failed_at, signature, error
		FROM stake_outcomes
		WHERE batch_id = $1
		ORDER BY idx
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Outcome])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	outcomes := make([]staker.Outcome, 0, len(records))
	for _, r := range records {
		outcome, err := r.ToOutcome()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
