// Package model defines the core domain types shared across the naval engine.
// Stake amounts use shopspring/decimal, never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Board geometry and fleet composition. The board is 5×5; every cell is
// addressed by a flat index in [0, BoardCells).
const (
	BoardSize  = 5
	BoardCells = BoardSize * BoardSize
	FleetShips = 3
)

// Battle lifecycle statuses. Transitions are monotonic:
// placement → battle → concluded.
const (
	StatusPlacement = "placement"
	StatusBattle    = "battle"
	StatusConcluded = "concluded"
)

// SideLabel identifies one of the two fixed participants in a battle.
type SideLabel string

const (
	SideFirst  SideLabel = "player1"
	SideSecond SideLabel = "player2"
)

// Opponent returns the other side's label.
func (s SideLabel) Opponent() SideLabel {
	if s == SideFirst {
		return SideSecond
	}
	return SideFirst
}

// Attack outcomes recorded per cell on the attacker's grid.
const (
	OutcomeMiss = "miss"
	OutcomeHit  = "hit"
	OutcomeSunk = "sunk"
)

// Ship is one vessel in a side's fleet: a name, a fixed size, and the
// ordered board cells it occupies.
type Ship struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Cells []int  `json:"cells"`
}

// Side holds one participant's per-battle state. Fleet contents are
// hidden from the opponent; only attack results are ever broadcast.
type Side struct {
	ConnID     string             `json:"-"`
	Account    string             `json:"address"` // EIP-55 canonical casing
	Ships      []Ship             `json:"-"`
	Ready      bool               `json:"ready"`
	AttackGrid [BoardCells]string `json:"-"` // this side's shots at the opponent
	Hits       int                `json:"-"`
	Sunk       int                `json:"-"`
}

// WaitingEntry is a participant's pending matchmaking request.
type WaitingEntry struct {
	ConnID   string
	Account  string // canonical casing; compared case-insensitively
	Stake    decimal.Decimal
	QueuedAt time.Time
}

// MatchRecord is an immutable archive entry written once a battle
// concludes. Live battles are never persisted; records are.
type MatchRecord struct {
	ID          string          `json:"id" db:"id"`
	BattleID    string          `json:"battle_id" db:"battle_id"`
	Winner      string          `json:"winner" db:"winner"`
	Loser       string          `json:"loser" db:"loser"`
	Stake       decimal.Decimal `json:"stake" db:"stake"`
	Outcome     string          `json:"outcome" db:"outcome"` // "victory" or "abandoned"
	TxHash      string          `json:"tx_hash,omitempty" db:"tx_hash"`
	Duration    time.Duration   `json:"duration_ns" db:"duration_ns"`
	ConcludedAt time.Time       `json:"concluded_at" db:"concluded_at"`
}

// Match record outcomes.
const (
	RecordVictory   = "victory"
	RecordAbandoned = "abandoned"
)
