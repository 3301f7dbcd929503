package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Slot = (*PgSlot)(nil)

// PgSlot stores values in the cart_snapshots table, one row per key.
type PgSlot struct {
	db *pgxpool.Pool
}

// NewPgSlot creates a PgSlot using a PostgreSQL connection pool.
func NewPgSlot(dbp *pgxpool.Pool) *PgSlot {
	return &PgSlot{db: dbp}
}

func (s *PgSlot) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM cart_snapshots WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return value, nil
}

func (s *PgSlot) Write(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO cart_snapshots (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	return err
}
