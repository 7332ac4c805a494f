// Package fleet implements pure fleet validation and attack resolution
// for the 5×5 naval battle board.
//
// The fleet composition is fixed: three ships of sizes 3, 2, 2. A
// confirmed fleet's ships must lie in bounds, occupy contiguous cells in
// a single row or column, and never overlap.
//
// Resolution is a pure function of (defender fleet, attacker's prior
// shots, new cell). It has no side effects; the caller records the
// outcome.
package fleet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/trix/naval-engine/internal/model"
)

var (
	// ErrInvalidFleet is returned when a submitted fleet violates the
	// composition, bounds, contiguity, or overlap invariants.
	ErrInvalidFleet = errors.New("fleet: invalid fleet")

	// ErrCellOutOfRange is returned for attack cells outside the board.
	ErrCellOutOfRange = errors.New("fleet: cell index out of range")

	// ErrCellAlreadyAttacked is returned when the attacker has already
	// fired at the cell.
	ErrCellAlreadyAttacked = errors.New("fleet: cell already attacked")
)

// requiredSizes is the exact multiset of ship sizes a fleet must carry.
var requiredSizes = []int{2, 2, 3}

// Validate checks a submitted fleet against the composition invariants.
// It returns an error wrapping ErrInvalidFleet describing the first
// violation found, or nil for a valid fleet.
func Validate(ships []model.Ship) error {
	if len(ships) != model.FleetShips {
		return fmt.Errorf("%w: expected %d ships, got %d", ErrInvalidFleet, model.FleetShips, len(ships))
	}

	sizes := make([]int, 0, len(ships))
	occupied := make(map[int]bool, model.BoardCells)

	for _, ship := range ships {
		if len(ship.Cells) != ship.Size {
			return fmt.Errorf("%w: ship %q declares size %d but occupies %d cells",
				ErrInvalidFleet, ship.Name, ship.Size, len(ship.Cells))
		}
		for _, cell := range ship.Cells {
			if cell < 0 || cell >= model.BoardCells {
				return fmt.Errorf("%w: ship %q cell %d out of bounds", ErrInvalidFleet, ship.Name, cell)
			}
			if occupied[cell] {
				return fmt.Errorf("%w: ship %q overlaps at cell %d", ErrInvalidFleet, ship.Name, cell)
			}
			occupied[cell] = true
		}
		if !contiguous(ship.Cells) {
			return fmt.Errorf("%w: ship %q cells are not a straight contiguous line", ErrInvalidFleet, ship.Name)
		}
		sizes = append(sizes, ship.Size)
	}

	sort.Ints(sizes)
	for i, want := range requiredSizes {
		if sizes[i] != want {
			return fmt.Errorf("%w: ship sizes must be {3,2,2}", ErrInvalidFleet)
		}
	}
	return nil
}

// contiguous reports whether cells form a straight horizontal or
// vertical run on the board.
func contiguous(cells []int) bool {
	if len(cells) == 0 {
		return false
	}
	sorted := make([]int, len(cells))
	copy(sorted, cells)
	sort.Ints(sorted)

	row := sorted[0] / model.BoardSize
	horizontal := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 || sorted[i]/model.BoardSize != row {
			horizontal = false
			break
		}
	}
	if horizontal {
		return true
	}

	col := sorted[0] % model.BoardSize
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+model.BoardSize || sorted[i]%model.BoardSize != col {
			return false
		}
	}
	return true
}

// Result is the resolution of a single attack.
type Result struct {
	Outcome   string // model.OutcomeMiss, OutcomeHit, or OutcomeSunk
	Ship      string // name of the ship hit or sunk, empty on miss
	FleetDown bool   // true when this attack sank the defender's last ship
}

// Resolve determines the outcome of firing at cell against the
// defender's ships, given the attacker's cumulative attack grid.
// sunkSoFar is the attacker's sunk-ship count before this attack.
//
// Deterministic and idempotent: the same inputs always yield the same
// Result, and nothing is mutated.
func Resolve(defender []model.Ship, attackGrid [model.BoardCells]string, sunkSoFar, cell int) (Result, error) {
	if cell < 0 || cell >= model.BoardCells {
		return Result{}, fmt.Errorf("%w: %d", ErrCellOutOfRange, cell)
	}
	if attackGrid[cell] != "" {
		return Result{}, fmt.Errorf("%w: %d", ErrCellAlreadyAttacked, cell)
	}

	for _, ship := range defender {
		if !occupies(ship, cell) {
			continue
		}
		// Hit. Sunk when every other cell of this ship is already marked.
		remaining := 0
		for _, c := range ship.Cells {
			if c != cell && attackGrid[c] == "" {
				remaining++
			}
		}
		if remaining > 0 {
			return Result{Outcome: model.OutcomeHit, Ship: ship.Name}, nil
		}
		return Result{
			Outcome:   model.OutcomeSunk,
			Ship:      ship.Name,
			FleetDown: sunkSoFar+1 >= model.FleetShips,
		}, nil
	}
	return Result{Outcome: model.OutcomeMiss}, nil
}

func occupies(ship model.Ship, cell int) bool {
	for _, c := range ship.Cells {
		if c == cell {
			return true
		}
	}
	return false
}
