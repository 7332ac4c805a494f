package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is the terminal report of one settle attempt.
type Settlement struct {
	BattleID    string
	MatchIDHash string
	Winner      string
	TxHash      string
	Err         error
}

// Settler turns a concluded battle into exactly one outbound
// commitResult call. The caller guarantees single invocation per battle
// (the concluded transition is the commit point); the settler owns the
// asynchrony and the deadline so a hung ledger call never delays
// gameplay in other battles.
type Settler struct {
	client  Client
	timeout time.Duration
}

// NewSettler wraps a ledger client. timeout bounds each ledger call.
func NewSettler(client Client, timeout time.Duration) *Settler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Settler{client: client, timeout: timeout}
}

// Settle dispatches the commitResult call in its own goroutine and
// delivers the outcome on the returned channel. The channel always
// receives exactly one Settlement; a failed call carries Err and the
// match result stands regardless.
func (s *Settler) Settle(battleID, winner, loser string, stake decimal.Decimal) <-chan Settlement {
	done := make(chan Settlement, 1)
	hash := MatchIDHash(battleID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		tx, err := s.client.CommitResult(ctx, hash, winner)
		if err != nil {
			slog.Error("settlement failed",
				"battle", battleID,
				"winner", winner,
				"loser", loser,
				"stake", stake.String(),
				"err", err,
			)
		} else {
			slog.Info("settlement committed",
				"battle", battleID,
				"winner", winner,
				"loser", loser,
				"stake", stake.String(),
				"tx", tx,
			)
		}
		done <- Settlement{
			BattleID:    battleID,
			MatchIDHash: hash,
			Winner:      winner,
			TxHash:      tx,
			Err:         err,
		}
	}()
	return done
}

// Register issues the createMatch call for a freshly paired battle,
// also asynchronously. Failure is reported on the channel but never
// gates the battle itself.
func (s *Settler) Register(battleID, accountA, accountB string, stake decimal.Decimal) <-chan Settlement {
	done := make(chan Settlement, 1)
	hash := MatchIDHash(battleID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		tx, err := s.client.CreateMatch(ctx, hash, accountA, accountB, stake)
		if err != nil {
			slog.Error("ledger match registration failed", "battle", battleID, "err", err)
		} else {
			slog.Info("ledger match registered", "battle", battleID, "tx", tx)
		}
		done <- Settlement{
			BattleID:    battleID,
			MatchIDHash: hash,
			TxHash:      tx,
			Err:         err,
		}
	}()
	return done
}
