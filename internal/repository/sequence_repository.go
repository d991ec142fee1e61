package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository hands out per-day certificate sequence values.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// NextValue atomically increments and returns the counter for the given
// issuance date. The upsert is a single statement so two concurrent
// issuances on the same day can never observe the same value; there is
// no read-then-write window.
func (r *SequenceRepository) NextValue(ctx context.Context, issuanceDate time.Time) (int, error) {
	const query = `INSERT INTO certificate_sequences (seq_date, value)
	VALUES ($1, 1)
	ON CONFLICT (seq_date) DO UPDATE SET value = certificate_sequences.value + 1
	RETURNING value`
	var value int
	day := issuanceDate.UTC().Format("2006-01-02")
	if err := r.db.GetContext(ctx, &value, query, day); err != nil {
		return 0, fmt.Errorf("next certificate sequence for %s: %w", day, err)
	}
	return value, nil
}
