package fleet

import (
	"errors"
	"testing"

	"github.com/trix/naval-engine/internal/model"
)

// validFleet lays the battleship across the top row and the two smaller
// ships vertically on the left columns of lower rows.
func validFleet() []model.Ship {
	return []model.Ship{
		{Name: "battleship", Size: 3, Cells: []int{0, 1, 2}},
		{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
		{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validFleet()); err != nil {
		t.Fatalf("expected valid fleet, got %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		ships []model.Ship
	}{
		{
			name:  "too few ships",
			ships: validFleet()[:2],
		},
		{
			name: "wrong sizes",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{0, 1, 2}},
				{Name: "destroyer", Size: 3, Cells: []int{10, 11, 12}},
				{Name: "cruiser", Size: 2, Cells: []int{20, 21}},
			},
		},
		{
			name: "size mismatch with cells",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{0, 1}},
				{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
				{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
			},
		},
		{
			name: "out of bounds",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{23, 24, 25}},
				{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
				{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
			},
		},
		{
			name: "negative cell",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{-1, 0, 1}},
				{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
				{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
			},
		},
		{
			name: "overlap",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{0, 1, 2}},
				{Name: "destroyer", Size: 2, Cells: []int{2, 7}},
				{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
			},
		},
		{
			name: "diagonal ship",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{0, 6, 12}},
				{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
				{Name: "cruiser", Size: 2, Cells: []int{13, 18}},
			},
		},
		{
			name: "row wrap",
			ships: []model.Ship{
				{Name: "battleship", Size: 3, Cells: []int{3, 4, 5}},
				{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
				{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.ships)
			if !errors.Is(err, ErrInvalidFleet) {
				t.Errorf("expected ErrInvalidFleet, got %v", err)
			}
		})
	}
}

func TestResolve_Miss(t *testing.T) {
	var grid [model.BoardCells]string
	res, err := Resolve(validFleet(), grid, 0, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != model.OutcomeMiss {
		t.Errorf("expected miss, got %s", res.Outcome)
	}
	if res.Ship != "" {
		t.Errorf("miss should not name a ship, got %q", res.Ship)
	}
}

func TestResolve_HitThenSunk(t *testing.T) {
	var grid [model.BoardCells]string

	// First cell of the destroyer: a hit, not sunk.
	res, err := Resolve(validFleet(), grid, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != model.OutcomeHit || res.Ship != "destroyer" {
		t.Fatalf("expected destroyer hit, got %+v", res)
	}

	// Record the hit; the second cell completes the ship.
	grid[10] = model.OutcomeHit
	res, err = Resolve(validFleet(), grid, 1, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != model.OutcomeSunk || res.Ship != "destroyer" {
		t.Fatalf("expected destroyer sunk, got %+v", res)
	}
	if res.FleetDown {
		t.Error("one sunk ship should not end the battle")
	}
}

func TestResolve_LastShipEndsFleet(t *testing.T) {
	var grid [model.BoardCells]string
	// Everything sunk except cell 17 of the cruiser.
	for _, c := range []int{0, 1, 2} {
		grid[c] = model.OutcomeHit
	}
	grid[2] = model.OutcomeSunk
	grid[10] = model.OutcomeHit
	grid[15] = model.OutcomeSunk
	grid[12] = model.OutcomeHit

	res, err := Resolve(validFleet(), grid, 2, 17)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != model.OutcomeSunk || res.Ship != "cruiser" {
		t.Fatalf("expected cruiser sunk, got %+v", res)
	}
	if !res.FleetDown {
		t.Error("third sunk ship should report FleetDown")
	}
}

func TestResolve_RejectsRepeatAndOutOfRange(t *testing.T) {
	var grid [model.BoardCells]string
	grid[5] = model.OutcomeMiss

	if _, err := Resolve(validFleet(), grid, 0, 5); !errors.Is(err, ErrCellAlreadyAttacked) {
		t.Errorf("expected ErrCellAlreadyAttacked, got %v", err)
	}
	if _, err := Resolve(validFleet(), grid, 0, 25); !errors.Is(err, ErrCellOutOfRange) {
		t.Errorf("expected ErrCellOutOfRange, got %v", err)
	}
	if _, err := Resolve(validFleet(), grid, 0, -1); !errors.Is(err, ErrCellOutOfRange) {
		t.Errorf("expected ErrCellOutOfRange, got %v", err)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	var grid [model.BoardCells]string
	grid[10] = model.OutcomeHit

	first, err := Resolve(validFleet(), grid, 0, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Resolve(validFleet(), grid, 0, 15)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("resolution not deterministic: %+v vs %+v", again, first)
		}
	}
	// The input grid must never be mutated.
	if grid[15] != "" {
		t.Error("Resolve mutated the attack grid")
	}
}
