// Package matchmaking implements the stake-keyed waiting queue that
// pairs participants into battles.
//
// Matching is FIFO, not best-fit: the earliest queued entry with an
// equal stake and a different account wins. Two entries from the same
// account (compared case-insensitively) are never paired, so a wallet
// cannot battle itself from two tabs.
package matchmaking

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/model"
)

// Queue holds waiting entries. All mutations are serialized by a single
// mutex, so two concurrent enqueues can never both claim the same
// opponent.
type Queue struct {
	mu      sync.Mutex
	waiting []model.WaitingEntry
	now     func() time.Time
}

// NewQueue creates an empty matchmaking queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Result is the outcome of an Enqueue call: either the caller is now
// waiting, or an opponent was found and removed from the queue.
type Result struct {
	Paired   bool
	Opponent model.WaitingEntry
}

// Enqueue registers a matchmaking request. If a compatible entry is
// already waiting (equal stake, different account), the earliest such
// entry is removed and returned; otherwise the request is appended.
//
// An existing entry for the same connection is replaced rather than
// duplicated, preserving the one-entry-per-connection invariant.
func (q *Queue) Enqueue(connID, account string, stake decimal.Decimal) Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(connID)

	for i, entry := range q.waiting {
		if entry.Stake.Equal(stake) && !strings.EqualFold(entry.Account, account) {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return Result{Paired: true, Opponent: entry}
		}
	}

	q.waiting = append(q.waiting, model.WaitingEntry{
		ConnID:   connID,
		Account:  account,
		Stake:    stake,
		QueuedAt: q.now(),
	})
	return Result{}
}

// Cancel removes the connection's waiting entry if present. Idempotent.
func (q *Queue) Cancel(connID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(connID)
}

// RemoveIfWaiting removes the connection's entry during disconnect
// cleanup and reports whether anything was removed.
func (q *Queue) RemoveIfWaiting(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(connID)
}

// Depth returns the number of waiting entries.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Snapshot returns a copy of the waiting entries in enqueue order, for
// the diagnostics surface.
func (q *Queue) Snapshot() []model.WaitingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.WaitingEntry, len(q.waiting))
	copy(out, q.waiting)
	return out
}

func (q *Queue) removeLocked(connID string) bool {
	for i, entry := range q.waiting {
		if entry.ConnID == connID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}
