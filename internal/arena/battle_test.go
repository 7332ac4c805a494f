package arena

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/fleet"
	"github.com/trix/naval-engine/internal/model"
)

func testSides() (model.Side, model.Side) {
	return model.Side{ConnID: "c1", Account: "0xA1b2C3d4E5f6A1b2C3d4E5f6A1b2C3d4E5f6A1b2"},
		model.Side{ConnID: "c2", Account: "0xB1b2C3d4E5f6A1b2C3d4E5f6A1b2C3d4E5f6A1b2"}
}

func testFleet() []model.Ship {
	return []model.Ship{
		{Name: "battleship", Size: 3, Cells: []int{0, 1, 2}},
		{Name: "destroyer", Size: 2, Cells: []int{10, 15}},
		{Name: "cruiser", Size: 2, Cells: []int{12, 17}},
	}
}

func newTestBattle(t *testing.T) (*Store, *Battle) {
	t.Helper()
	st := NewStore()
	first, second := testSides()
	b := st.Create(first, second, decimal.NewFromInt(10))
	return st, b
}

// placeBoth confirms the same layout for both sides and asserts the
// transition to the battle phase.
func placeBoth(t *testing.T, b *Battle) {
	t.Helper()
	started, err := b.SubmitFleet(model.SideFirst, testFleet())
	if err != nil {
		t.Fatalf("first fleet: %v", err)
	}
	if started {
		t.Fatal("battle must not start after one fleet")
	}
	started, err = b.SubmitFleet(model.SideSecond, testFleet())
	if err != nil {
		t.Fatalf("second fleet: %v", err)
	}
	if !started {
		t.Fatal("battle must start after both fleets")
	}
}

func TestSubmitFleet_Lifecycle(t *testing.T) {
	_, b := newTestBattle(t)

	if b.Status() != model.StatusPlacement {
		t.Fatalf("expected placement, got %s", b.Status())
	}
	placeBoth(t, b)
	if b.Status() != model.StatusBattle {
		t.Fatalf("expected battle, got %s", b.Status())
	}
	if b.Turn() != model.SideFirst {
		t.Errorf("first turn must be deterministic (player1), got %s", b.Turn())
	}
}

func TestSubmitFleet_RejectsInvalidWithoutCorruption(t *testing.T) {
	_, b := newTestBattle(t)

	bad := testFleet()
	bad[0].Cells = []int{0, 1} // size mismatch
	_, err := b.SubmitFleet(model.SideFirst, bad)
	if !errors.Is(err, fleet.ErrInvalidFleet) {
		t.Fatalf("expected ErrInvalidFleet, got %v", err)
	}

	// The side stays unconfirmed; a valid retry succeeds.
	if _, err := b.SubmitFleet(model.SideFirst, testFleet()); err != nil {
		t.Fatalf("valid retry after rejection: %v", err)
	}
}

func TestSubmitFleet_SecondSubmissionRejected(t *testing.T) {
	_, b := newTestBattle(t)

	if _, err := b.SubmitFleet(model.SideFirst, testFleet()); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if _, err := b.SubmitFleet(model.SideFirst, testFleet()); !errors.Is(err, ErrAlreadyPlaced) {
		t.Fatalf("expected ErrAlreadyPlaced, got %v", err)
	}
}

func TestAttack_Guards(t *testing.T) {
	_, b := newTestBattle(t)

	// Attacks during placement are rejected.
	if _, err := b.Attack(model.SideFirst, 0); !errors.Is(err, ErrNotBattle) {
		t.Fatalf("expected ErrNotBattle, got %v", err)
	}

	placeBoth(t, b)

	// Off-turn side cannot act.
	if _, err := b.Attack(model.SideSecond, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	// Out-of-range cells are rejected without flipping the turn.
	if _, err := b.Attack(model.SideFirst, 25); !errors.Is(err, fleet.ErrCellOutOfRange) {
		t.Fatalf("expected ErrCellOutOfRange, got %v", err)
	}
	if b.Turn() != model.SideFirst {
		t.Error("rejected attack must not flip the turn")
	}
}

func TestAttack_MissFlipsTurn(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)

	out, err := b.Attack(model.SideFirst, 24) // empty cell
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if out.Result.Outcome != model.OutcomeMiss {
		t.Errorf("expected miss, got %s", out.Result.Outcome)
	}
	if out.NextTurn != model.SideSecond {
		t.Errorf("expected turn to flip to player2, got %s", out.NextTurn)
	}
	if out.Conclusion != nil {
		t.Error("miss must not conclude the battle")
	}

	// Repeating the same cell is rejected even after the turn comes back.
	if _, err := b.Attack(model.SideSecond, 24); err != nil {
		t.Fatalf("player2 attack: %v", err)
	}
	if _, err := b.Attack(model.SideFirst, 24); !errors.Is(err, fleet.ErrCellAlreadyAttacked) {
		t.Fatalf("expected ErrCellAlreadyAttacked, got %v", err)
	}
}

// sinkAll fires player1 through every fleet cell, with player2 missing
// in between, and returns the outcome of the concluding attack.
func sinkAll(t *testing.T, b *Battle) AttackOutcome {
	t.Helper()
	targets := []int{0, 1, 2, 10, 15, 12, 17}
	misses := []int{20, 21, 22, 23, 24, 19, 18}

	var last AttackOutcome
	for i, cell := range targets {
		out, err := b.Attack(model.SideFirst, cell)
		if err != nil {
			t.Fatalf("player1 attack %d: %v", cell, err)
		}
		last = out
		if out.Conclusion != nil {
			return last
		}
		if _, err := b.Attack(model.SideSecond, misses[i]); err != nil {
			t.Fatalf("player2 attack %d: %v", misses[i], err)
		}
	}
	return last
}

func TestAttack_ConclusionOnThirdSunk(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)

	out := sinkAll(t, b)
	if out.Conclusion == nil {
		t.Fatal("expected conclusion on the attack sinking the third ship")
	}
	if out.Result.Outcome != model.OutcomeSunk {
		t.Errorf("concluding attack must be a sunk, got %s", out.Result.Outcome)
	}
	if b.Status() != model.StatusConcluded {
		t.Errorf("expected concluded, got %s", b.Status())
	}
	if out.Conclusion.Winner.ConnID != "c1" || out.Conclusion.Loser.ConnID != "c2" {
		t.Errorf("wrong winner/loser: %+v", out.Conclusion)
	}
	if out.Conclusion.Abandoned {
		t.Error("played-out battle must not be marked abandoned")
	}
	// Fleets stay hidden in the conclusion payload.
	if out.Conclusion.Winner.Ships != nil || out.Conclusion.Loser.Ships != nil {
		t.Error("conclusion must not leak fleets")
	}

	// Terminal state accepts nothing further.
	if _, err := b.Attack(model.SideSecond, 3); !errors.Is(err, ErrConcluded) {
		t.Errorf("expected ErrConcluded for attack, got %v", err)
	}
	if _, err := b.SubmitFleet(model.SideSecond, testFleet()); !errors.Is(err, ErrConcluded) {
		t.Errorf("expected ErrConcluded for fleet, got %v", err)
	}
}

func TestAbort_DuringBattle(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)

	conc, err := b.Abort(model.SideFirst)
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if !conc.Abandoned {
		t.Error("abort must mark the conclusion abandoned")
	}
	if conc.Winner.ConnID != "c2" {
		t.Errorf("opponent of the leaver wins by forfeit, got %+v", conc.Winner)
	}

	// A second abort (e.g. the opponent disconnecting during teardown)
	// must not produce a second conclusion.
	if _, err := b.Abort(model.SideSecond); !errors.Is(err, ErrConcluded) {
		t.Errorf("expected ErrConcluded on double abort, got %v", err)
	}
}

func TestAbort_AfterConclusionLeavesResultStanding(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)
	out := sinkAll(t, b)
	if out.Conclusion == nil {
		t.Fatal("expected conclusion")
	}

	// Disconnect strictly after conclusion: settlement already in
	// flight is unaffected, no second conclusion appears.
	if _, err := b.Abort(model.SideSecond); !errors.Is(err, ErrConcluded) {
		t.Fatalf("expected ErrConcluded, got %v", err)
	}
}

func TestStore_CreateGetDestroy(t *testing.T) {
	st := NewStore()
	first, second := testSides()

	b := st.Create(first, second, decimal.NewFromInt(5))
	if b.ID == "" {
		t.Fatal("expected generated battle id")
	}

	got, err := st.Get(b.ID)
	if err != nil || got != b {
		t.Fatalf("expected stored battle, got %v / %v", got, err)
	}

	other := st.Create(first, second, decimal.NewFromInt(5))
	if other.ID == b.ID {
		t.Fatal("battle ids must be unique")
	}
	if st.Count() != 2 {
		t.Errorf("expected 2 battles, got %d", st.Count())
	}

	st.Destroy(b.ID)
	st.Destroy(b.ID) // idempotent
	if _, err := st.Get(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after destroy, got %v", err)
	}
}

func TestStore_IndependentBattles(t *testing.T) {
	st := NewStore()
	first, second := testSides()
	a := st.Create(first, second, decimal.NewFromInt(5))
	c := st.Create(model.Side{ConnID: "c3", Account: "0xC"}, model.Side{ConnID: "c4", Account: "0xD"}, decimal.NewFromInt(5))

	// Mutations on distinct battles proceed concurrently without
	// interfering; the race detector enforces isolation.
	var wg sync.WaitGroup
	for _, b := range []*Battle{a, c} {
		wg.Add(1)
		go func(b *Battle) {
			defer wg.Done()
			if _, err := b.SubmitFleet(model.SideFirst, testFleet()); err != nil {
				t.Errorf("fleet: %v", err)
			}
		}(b)
	}
	wg.Wait()

	if a.Status() != model.StatusPlacement || c.Status() != model.StatusPlacement {
		t.Error("single fleet must leave battles in placement")
	}
}

func TestSideOf(t *testing.T) {
	_, b := newTestBattle(t)

	side, err := b.SideOf("c2")
	if err != nil || side != model.SideSecond {
		t.Fatalf("expected player2, got %v / %v", side, err)
	}
	if _, err := b.SideOf("stranger"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSummarize_ReportsWinnerOnceConcluded(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)

	if sum := b.Summarize(); sum.Winner != "" {
		t.Fatalf("live battle must have no winner, got %q", sum.Winner)
	}

	sinkAll(t, b)
	sum := b.Summarize()
	if sum.Status != model.StatusConcluded || sum.Winner != model.SideFirst {
		t.Fatalf("want concluded/%s, got %s/%s", model.SideFirst, sum.Status, sum.Winner)
	}
}

func TestSummarize_ReportsWinnerAfterAbort(t *testing.T) {
	_, b := newTestBattle(t)
	placeBoth(t, b)

	if _, err := b.Abort(model.SideFirst); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if sum := b.Summarize(); sum.Winner != model.SideSecond {
		t.Fatalf("remaining side should be the winner, got %q", sum.Winner)
	}
}
