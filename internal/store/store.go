// Package store archives concluded match records. PostgreSQL is the
// source of truth when configured, with an optional Redis read-through
// cache; the in-memory implementation serves tests and development.
//
// Only final results live here. Live battles are memory-only and owned
// by the arena; the archive is a downstream consumer of conclusions,
// never a participant in gameplay.
package store

import (
	"context"

	"github.com/trix/naval-engine/internal/model"
)

// RecordStore is the archive interface.
type RecordStore interface {
	// InsertRecord appends an immutable match record.
	InsertRecord(ctx context.Context, rec *model.MatchRecord) error

	// RecentRecords returns up to limit records, newest first.
	RecentRecords(ctx context.Context, limit int) ([]model.MatchRecord, error)

	// RecordsByAccount returns records where the account won or lost,
	// newest first.
	RecordsByAccount(ctx context.Context, account string, limit int) ([]model.MatchRecord, error)
}
