package sqlite

import (
	"context"
	"fmt"

	"github.com/calliard/lendingdesk/internal/repository"
)

// sequenceRepository implements repository.SequenceRepository for SQLite.
type sequenceRepository struct {
	db *DB
}

// NewSequenceRepository creates a new SQLite sequence repository.
func NewSequenceRepository(db *DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next returns the current value of the named counter and advances it.
// Runs inside its own transaction unless the caller already opened one,
// so the read-and-advance is atomic either way.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO sequences (name, next) VALUES (?, 1)
			ON CONFLICT(name) DO UPDATE SET next = next + 1
		`, name)
		if err != nil {
			return fmt.Errorf("failed to advance sequence %s: %w", name, err)
		}

		err = r.db.QueryRowContext(ctx, `SELECT next - 1 FROM sequences WHERE name = ?`, name).Scan(&value)
		if err != nil {
			return fmt.Errorf("failed to read sequence %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}

// Ensure sequenceRepository implements repository.SequenceRepository.
var _ repository.SequenceRepository = (*sequenceRepository)(nil)
