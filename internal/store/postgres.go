package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/model"
)

// PostgresStore implements RecordStore backed by PostgreSQL. Stakes are
// stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed record store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertRecord(ctx context.Context, rec *model.MatchRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO match_records (id, battle_id, winner, loser, stake, outcome, tx_hash, duration_ns, concluded_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7, $8, $9)`,
		rec.ID, rec.BattleID, rec.Winner, rec.Loser,
		rec.Stake.String(), rec.Outcome, rec.TxHash,
		rec.Duration.Nanoseconds(), rec.ConcludedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) RecentRecords(ctx context.Context, limit int) ([]model.MatchRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, battle_id, winner, loser, stake::TEXT, outcome, tx_hash, duration_ns, concluded_at
		 FROM match_records ORDER BY concluded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) RecordsByAccount(ctx context.Context, account string, limit int) ([]model.MatchRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, battle_id, winner, loser, stake::TEXT, outcome, tx_hash, duration_ns, concluded_at
		 FROM match_records
		 WHERE LOWER(winner) = LOWER($1) OR LOWER(loser) = LOWER($1)
		 ORDER BY concluded_at DESC LIMIT $2`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]model.MatchRecord, error) {
	var records []model.MatchRecord
	for rows.Next() {
		var rec model.MatchRecord
		var stake string
		var durationNS int64
		if err := rows.Scan(&rec.ID, &rec.BattleID, &rec.Winner, &rec.Loser,
			&stake, &rec.Outcome, &rec.TxHash, &durationNS, &rec.ConcludedAt); err != nil {
			return nil, err
		}
		rec.Stake, _ = decimal.NewFromString(stake)
		rec.Duration = time.Duration(durationNS)
		records = append(records, rec)
	}
	return records, rows.Err()
}
