// Package arena owns the set of live battles and drives each battle's
// lifecycle: placement → battle → concluded.
//
// The Store is the sole owner of Battle objects; everything else works
// through battle-id lookups. Each Battle carries its own mutex, so
// mutations to one battle are totally ordered while distinct battles
// proceed independently.
package arena

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/fleet"
	"github.com/trix/naval-engine/internal/model"
)

var (
	// ErrNotFound is returned for unknown battle ids (stale client refs).
	ErrNotFound = errors.New("arena: battle not found")

	// ErrConcluded is returned for submissions or attacks against a
	// terminal battle.
	ErrConcluded = errors.New("arena: battle concluded")

	// ErrNotParticipant is returned when a connection is not bound to
	// either side of the battle.
	ErrNotParticipant = errors.New("arena: connection is not a participant")

	// ErrAlreadyPlaced is returned for a second fleet submission by the
	// same side.
	ErrAlreadyPlaced = errors.New("arena: fleet already placed")

	// ErrNotPlacement is returned for a fleet submission outside the
	// placement phase.
	ErrNotPlacement = errors.New("arena: not in placement phase")

	// ErrNotBattle is returned for an attack outside the battle phase.
	ErrNotBattle = errors.New("arena: not in battle phase")

	// ErrNotYourTurn is returned for an attack by the off-turn side.
	ErrNotYourTurn = errors.New("arena: not your turn")
)

// Battle is one paired, isolated game instance. All mutation goes
// through methods that hold b.mu; callers never touch fields directly.
type Battle struct {
	mu sync.Mutex

	ID        string
	Stake     decimal.Decimal
	CreatedAt time.Time

	status string
	turn   model.SideLabel
	sides  map[model.SideLabel]*model.Side
	winner model.SideLabel

	// matchIDHash is the keccak-derived ledger match id, set once the
	// createMatch call has been issued.
	matchIDHash string
}

func newBattle(id string, first, second model.Side, stake decimal.Decimal) *Battle {
	f, s := first, second
	return &Battle{
		ID:        id,
		Stake:     stake,
		CreatedAt: time.Now().UTC(),
		status:    model.StatusPlacement,
		turn:      model.SideFirst,
		sides: map[model.SideLabel]*model.Side{
			model.SideFirst:  &f,
			model.SideSecond: &s,
		},
	}
}

// Status returns the battle's lifecycle status.
func (b *Battle) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// SideOf resolves a connection id to its side label.
func (b *Battle) SideOf(connID string) (model.SideLabel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for label, side := range b.sides {
		if side.ConnID == connID {
			return label, nil
		}
	}
	return "", ErrNotParticipant
}

// Participants returns (connID, account) for both sides in fixed order.
func (b *Battle) Participants() (first, second model.Side) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return publicCopy(b.sides[model.SideFirst]), publicCopy(b.sides[model.SideSecond])
}

// publicCopy strips the hidden fleet from a side before it leaves the
// battle's lock. Fleets are never revealed to the opponent.
func publicCopy(s *model.Side) model.Side {
	return model.Side{ConnID: s.ConnID, Account: s.Account, Ready: s.Ready}
}

// SubmitFleet validates and confirms a side's fleet exactly once.
// It returns true when this submission completed placement and the
// battle transitioned to the battle phase.
func (b *Battle) SubmitFleet(side model.SideLabel, ships []model.Ship) (started bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case model.StatusConcluded:
		return false, ErrConcluded
	case model.StatusBattle:
		return false, ErrNotPlacement
	}

	s := b.sides[side]
	if s.Ready {
		return false, ErrAlreadyPlaced
	}
	if err := fleet.Validate(ships); err != nil {
		// Rejected wholesale; the side stays unconfirmed and prior
		// state is untouched.
		return false, err
	}

	s.Ships = append([]model.Ship(nil), ships...)
	s.Ready = true

	if b.sides[side.Opponent()].Ready {
		b.status = model.StatusBattle
		b.turn = model.SideFirst // deterministic first turn
		return true, nil
	}
	return false, nil
}

// AttackOutcome describes an accepted attack: the resolved cell, whose
// turn is next, and, on the concluding attack only, the conclusion.
type AttackOutcome struct {
	Cell     int
	Result   fleet.Result
	NextTurn model.SideLabel

	// Conclusion is non-nil exactly once per battle: on the attack that
	// sank the third ship. It is the single commit point for settlement.
	Conclusion *Conclusion
}

// Conclusion is the terminal result of a battle.
type Conclusion struct {
	Winner      model.Side
	Loser       model.Side
	Stake       decimal.Decimal
	Duration    time.Duration
	ConcludedAt time.Time
	Abandoned   bool
	PriorStatus string // status the battle left behind: placement or battle
}

// Attack resolves the attacking side's shot. Guards are explicit: wrong
// status, wrong turn, out-of-range cell, and repeated cells are all
// rejected without mutating state, regardless of event arrival order.
func (b *Battle) Attack(side model.SideLabel, cell int) (AttackOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case model.StatusConcluded:
		return AttackOutcome{}, ErrConcluded
	case model.StatusPlacement:
		return AttackOutcome{}, ErrNotBattle
	}
	if b.turn != side {
		return AttackOutcome{}, ErrNotYourTurn
	}

	attacker := b.sides[side]
	defender := b.sides[side.Opponent()]

	res, err := fleet.Resolve(defender.Ships, attacker.AttackGrid, attacker.Sunk, cell)
	if err != nil {
		return AttackOutcome{}, err
	}

	attacker.AttackGrid[cell] = res.Outcome
	switch res.Outcome {
	case model.OutcomeHit:
		attacker.Hits++
	case model.OutcomeSunk:
		attacker.Hits++
		attacker.Sunk++
	}

	out := AttackOutcome{Cell: cell, Result: res}

	if res.FleetDown {
		// Terminal transition happens on the very attack that produced
		// the third sunk ship, inside the same critical section.
		now := time.Now().UTC()
		b.status = model.StatusConcluded
		b.winner = side
		out.NextTurn = side
		out.Conclusion = &Conclusion{
			Winner:      publicCopy(attacker),
			Loser:       publicCopy(defender),
			Stake:       b.Stake,
			Duration:    now.Sub(b.CreatedAt),
			ConcludedAt: now,
			PriorStatus: model.StatusBattle,
		}
		return out, nil
	}

	b.turn = side.Opponent()
	out.NextTurn = b.turn
	return out, nil
}

// Abort forces the battle into the concluded state with no winner-by-
// play: used for disconnects and voluntary forfeits. The departing
// side's opponent is returned so the caller can notify it.
//
// If the battle already concluded (settlement possibly in flight),
// Abort reports that via ErrConcluded and changes nothing.
func (b *Battle) Abort(leaving model.SideLabel) (*Conclusion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == model.StatusConcluded {
		return nil, ErrConcluded
	}

	now := time.Now().UTC()
	prior := b.status
	b.status = model.StatusConcluded
	b.winner = leaving.Opponent()

	return &Conclusion{
		Winner:      publicCopy(b.sides[leaving.Opponent()]),
		Loser:       publicCopy(b.sides[leaving]),
		Stake:       b.Stake,
		Duration:    now.Sub(b.CreatedAt),
		ConcludedAt: now,
		Abandoned:   true,
		PriorStatus: prior,
	}, nil
}

// Turn returns the side whose move it is. Meaningful only in the battle
// phase.
func (b *Battle) Turn() model.SideLabel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.turn
}

// SetMatchIDHash records the ledger match id once createMatch has been
// issued for this battle.
func (b *Battle) SetMatchIDHash(h string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matchIDHash = h
}

// MatchRef returns the ledger match id, or empty if none was issued.
func (b *Battle) MatchRef() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchIDHash
}

// Summary is a redacted view of a battle for the diagnostics surface.
type Summary struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Players []string        `json:"players"` // truncated addresses
	Stake   string          `json:"stake"`
	Winner  model.SideLabel `json:"winner,omitempty"` // set once concluded
}

// Summarize returns the battle's diagnostic view.
func (b *Battle) Summarize() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Summary{
		ID:     b.ID,
		Status: b.status,
		Players: []string{
			truncate(b.sides[model.SideFirst].Account),
			truncate(b.sides[model.SideSecond].Account),
		},
		Stake:  b.Stake.String(),
		Winner: b.winner,
	}
}

func truncate(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return fmt.Sprintf("%s...", addr[:10])
}
