package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/arena"
	"github.com/trix/naval-engine/internal/fleet"
	"github.com/trix/naval-engine/internal/ledger"
	"github.com/trix/naval-engine/internal/matchmaking"
	"github.com/trix/naval-engine/internal/metrics"
	"github.com/trix/naval-engine/internal/model"
	"github.com/trix/naval-engine/internal/store"
)

// Notifier delivers outbound events to a connection. The WebSocket hub
// implements it; tests substitute a recorder.
type Notifier interface {
	Send(connID string, ev Event)
}

// Service orchestrates the event surface: it owns no game state itself,
// routing every action through the registry, queue, arena, and ledger
// boundary.
type Service struct {
	registry *Registry
	queue    *matchmaking.Queue
	battles  *arena.Store
	settler  *ledger.Settler
	records  store.RecordStore
	notifier Notifier
	started  time.Time
}

// NewService wires the engine's components together.
func NewService(reg *Registry, q *matchmaking.Queue, battles *arena.Store, settler *ledger.Settler, records store.RecordStore, n Notifier) *Service {
	return &Service{
		registry: reg,
		queue:    q,
		battles:  battles,
		settler:  settler,
		records:  records,
		notifier: n,
		started:  time.Now(),
	}
}

// Connect registers a fresh connection.
func (s *Service) Connect(connID string) {
	s.registry.Register(connID, "")
	metrics.ConnectedPlayers.Set(float64(s.registry.Count()))
	slog.Info("player connected", "conn", connID)
}

// FindMatch enqueues the connection for matchmaking, pairing it
// immediately when a compatible entry is already waiting. Pairing and
// battle creation happen before any notification goes out, so no third
// enqueue can observe a half-paired opponent.
func (s *Service) FindMatch(connID, address string, stake decimal.Decimal) {
	account, err := ledger.NormalizeAddress(address)
	if err != nil {
		s.sendError(connID, ReasonInvalidAddress, "account is not a valid address")
		return
	}
	if !stake.IsPositive() {
		s.sendError(connID, ReasonInvalidStake, "stake must be positive")
		return
	}
	// A connection bound to a live battle cannot re-enter matchmaking;
	// a second binding would orphan the first battle on disconnect.
	if battleID, bound := s.registry.CurrentSession(connID); bound {
		metrics.RejectedActions.WithLabelValues(ReasonAlreadyInGame).Inc()
		slog.Warn("findMatch while in battle", "conn", connID, "battle", battleID)
		s.sendError(connID, ReasonAlreadyInGame, "already in a battle")
		return
	}

	s.registry.Register(connID, account)
	res := s.queue.Enqueue(connID, account, stake)
	metrics.QueueDepth.Set(float64(s.queue.Depth()))

	if !res.Paired {
		slog.Info("player waiting for opponent", "conn", connID, "account", account, "stake", stake.String())
		return
	}

	s.startBattle(connID, account, res.Opponent, stake)
}

// startBattle creates the session for a fresh pairing. The enqueuing
// side that completed the match is player1 and takes the first turn.
func (s *Service) startBattle(connID, account string, opponent model.WaitingEntry, stake decimal.Decimal) {
	first := model.Side{ConnID: connID, Account: account}
	second := model.Side{ConnID: opponent.ConnID, Account: opponent.Account}

	b := s.battles.Create(first, second, stake)
	b.SetMatchIDHash(ledger.MatchIDHash(b.ID))
	s.registry.Bind(connID, b.ID)
	s.registry.Bind(opponent.ConnID, b.ID)
	metrics.ActiveBattles.Set(float64(s.battles.Count()))
	metrics.QueueDepth.Set(float64(s.queue.Depth()))

	slog.Info("battle matched",
		"battle", b.ID,
		"player1", account,
		"player2", opponent.Account,
		"stake", stake.String(),
	)

	s.notifier.Send(connID, Event{Type: EvMatchFound, Data: MatchFoundPayload{
		BattleID: b.ID,
		Role:     model.SideFirst,
		Opponent: opponent.Account,
		Stake:    stake.String(),
	}})
	s.notifier.Send(opponent.ConnID, Event{Type: EvMatchFound, Data: MatchFoundPayload{
		BattleID: b.ID,
		Role:     model.SideSecond,
		Opponent: account,
		Stake:    stake.String(),
	}})

	// Register the match on chain; fire-and-report, never a gate.
	go func() {
		reg := <-s.settler.Register(b.ID, account, opponent.Account, stake)
		if reg.Err != nil {
			metrics.SettlementsTotal.WithLabelValues("create", "error").Inc()
			s.sendError(connID, ReasonLedgerCreate, "on-chain match registration failed")
			s.sendError(opponent.ConnID, ReasonLedgerCreate, "on-chain match registration failed")
			return
		}
		metrics.SettlementsTotal.WithLabelValues("create", "ok").Inc()
	}()
}

// CancelSearch removes the connection's waiting entry, if any.
func (s *Service) CancelSearch(connID string) {
	s.queue.Cancel(connID)
	metrics.QueueDepth.Set(float64(s.queue.Depth()))
	slog.Info("search cancelled", "conn", connID)
}

// PlaceFleet confirms the sender's fleet for the battle.
func (s *Service) PlaceFleet(connID, battleID string, ships []model.Ship) {
	b, side, ok := s.lookup(connID, battleID)
	if !ok {
		return
	}

	started, err := b.SubmitFleet(side, ships)
	if err != nil {
		s.rejectAction(connID, err)
		return
	}
	slog.Info("fleet placed", "battle", battleID, "side", side)

	if !started {
		return
	}

	first, second := b.Participants()
	payload := BattleStartPayload{
		BattleID:    b.ID,
		Player1:     PublicSide{Address: first.Account},
		Player2:     PublicSide{Address: second.Account},
		Stake:       b.Stake.String(),
		CurrentTurn: b.Turn(),
	}
	s.notifier.Send(first.ConnID, Event{Type: EvBattleStart, Data: payload})
	s.notifier.Send(second.ConnID, Event{Type: EvBattleStart, Data: payload})
	slog.Info("battle started", "battle", battleID, "firstTurn", payload.CurrentTurn)
}

// Attack resolves the sender's shot and broadcasts the result; the
// concluding attack also triggers settlement exactly once.
func (s *Service) Attack(connID, battleID string, cell int) {
	b, side, ok := s.lookup(connID, battleID)
	if !ok {
		return
	}

	out, err := b.Attack(side, cell)
	if err != nil {
		s.rejectAction(connID, err)
		return
	}
	metrics.AttacksTotal.WithLabelValues(out.Result.Outcome).Inc()
	slog.Info("attack resolved",
		"battle", battleID,
		"attacker", side,
		"cell", cell,
		"result", out.Result.Outcome,
	)

	if out.Conclusion != nil {
		s.conclude(b, out.Conclusion)
		return
	}

	first, second := b.Participants()
	payload := AttackResultPayload{
		BattleID:  b.ID,
		CellIndex: out.Cell,
		Result:    out.Result.Outcome,
		Ship:      out.Result.Ship,
		Attacker:  side,
		NextTurn:  out.NextTurn,
	}
	s.notifier.Send(first.ConnID, Event{Type: EvAttackResult, Data: payload})
	s.notifier.Send(second.ConnID, Event{Type: EvAttackResult, Data: payload})
}

// conclude runs once per battle, guarded by the arena's terminal
// transition: the Conclusion pointer exists only on the transition call.
func (s *Service) conclude(b *arena.Battle, conc *arena.Conclusion) {
	metrics.MatchesTotal.WithLabelValues(model.RecordVictory).Inc()
	slog.Info("battle concluded",
		"battle", b.ID,
		"winner", conc.Winner.Account,
		"loser", conc.Loser.Account,
		"stake", conc.Stake.String(),
	)

	over := GameOverPayload{
		BattleID:      b.ID,
		Winner:        conc.Winner.Account,
		Loser:         conc.Loser.Account,
		Stake:         conc.Stake.String(),
		SettlementRef: b.MatchRef(),
	}
	s.notifier.Send(conc.Winner.ConnID, Event{Type: EvGameOver, Data: over})
	s.notifier.Send(conc.Loser.ConnID, Event{Type: EvGameOver, Data: over})

	// Settle asynchronously; the battle retires once the ledger call
	// completes or fails, and the result stands either way.
	done := s.settler.Settle(b.ID, conc.Winner.Account, conc.Loser.Account, conc.Stake)
	go func() {
		res := <-done
		payload := SettlementPayload{BattleID: b.ID, TxHash: res.TxHash}
		evType := EvSettlementOK
		status := "ok"
		if res.Err != nil {
			payload.TxHash = ""
			payload.Reason = "ledger commit failed"
			evType = EvSettlementFailed
			status = "error"
		}
		metrics.SettlementsTotal.WithLabelValues("commit", status).Inc()
		s.notifier.Send(conc.Winner.ConnID, Event{Type: evType, Data: payload})
		s.notifier.Send(conc.Loser.ConnID, Event{Type: evType, Data: payload})

		s.archive(b.ID, conc, model.RecordVictory, res.TxHash)
		s.retire(b.ID, conc)
	}()
}

// LeaveGame is a voluntary forfeit: the opponent wins by default, the
// session terminates immediately, and no settlement is attempted.
func (s *Service) LeaveGame(connID, battleID string) {
	b, side, ok := s.lookup(connID, battleID)
	if !ok {
		return
	}
	s.abandon(b, side)
}

// Disconnect handles abrupt connection loss: the waiting entry is
// dropped, and a bound battle terminates immediately with opponent
// notification. A battle that already concluded is left alone;
// settlement in flight is unaffected.
func (s *Service) Disconnect(connID string) {
	s.queue.RemoveIfWaiting(connID)
	metrics.QueueDepth.Set(float64(s.queue.Depth()))

	battleID, bound := s.registry.Unregister(connID)
	metrics.ConnectedPlayers.Set(float64(s.registry.Count()))
	slog.Info("player disconnected", "conn", connID)

	if !bound {
		return
	}
	b, err := s.battles.Get(battleID)
	if err != nil {
		return
	}
	side, err := b.SideOf(connID)
	if err != nil {
		return
	}
	s.abandon(b, side)
}

// abandon terminates a live battle because one side left. Abandoned
// battles only reach the archive when real play was underway.
func (s *Service) abandon(b *arena.Battle, leaving model.SideLabel) {
	conc, err := b.Abort(leaving)
	if err != nil {
		// Already concluded; the played-out result stands.
		return
	}
	slog.Info("battle abandoned",
		"battle", b.ID,
		"leaver", conc.Loser.Account,
		"phase", conc.PriorStatus,
	)

	s.notifier.Send(conc.Winner.ConnID, Event{Type: EvOpponentLeft})

	if conc.PriorStatus == model.StatusBattle {
		metrics.MatchesTotal.WithLabelValues(model.RecordAbandoned).Inc()
		s.archive(b.ID, conc, model.RecordAbandoned, "")
	}
	s.retire(b.ID, conc)
}

// archive appends the immutable match record. Failures are logged, not
// surfaced: the archive trails gameplay, it never drives it.
func (s *Service) archive(battleID string, conc *arena.Conclusion, outcome, txHash string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &model.MatchRecord{
		ID:          uuid.New().String(),
		BattleID:    battleID,
		Winner:      conc.Winner.Account,
		Loser:       conc.Loser.Account,
		Stake:       conc.Stake,
		Outcome:     outcome,
		TxHash:      txHash,
		Duration:    conc.Duration,
		ConcludedAt: conc.ConcludedAt,
	}
	if err := s.records.InsertRecord(ctx, rec); err != nil {
		slog.Error("match record insert failed", "battle", battleID, "err", err)
	}
}

// retire clears both connection bindings and destroys the battle.
func (s *Service) retire(battleID string, conc *arena.Conclusion) {
	s.registry.Unbind(conc.Winner.ConnID)
	s.registry.Unbind(conc.Loser.ConnID)
	s.battles.Destroy(battleID)
	metrics.ActiveBattles.Set(float64(s.battles.Count()))
}

// lookup resolves a battle and the caller's side, reporting standard
// errors to the caller.
func (s *Service) lookup(connID, battleID string) (*arena.Battle, model.SideLabel, bool) {
	b, err := s.battles.Get(battleID)
	if err != nil {
		s.sendError(connID, ReasonNotFound, "unknown battle")
		return nil, "", false
	}
	side, err := b.SideOf(connID)
	if err != nil {
		s.sendError(connID, ReasonNotParticipant, "not a participant of this battle")
		return nil, "", false
	}
	return b, side, true
}

// rejectAction maps a state-machine rejection to a reason code. The
// engine state is untouched; reporting is advisory.
func (s *Service) rejectAction(connID string, err error) {
	var code string
	switch {
	case errors.Is(err, fleet.ErrInvalidFleet):
		code = ReasonInvalidFleet
	case errors.Is(err, arena.ErrAlreadyPlaced):
		code = ReasonAlreadyPlaced
	case errors.Is(err, arena.ErrNotYourTurn):
		code = ReasonNotYourTurn
	case errors.Is(err, fleet.ErrCellOutOfRange), errors.Is(err, fleet.ErrCellAlreadyAttacked):
		code = ReasonBadCell
	case errors.Is(err, arena.ErrConcluded):
		code = ReasonConcluded
	case errors.Is(err, arena.ErrNotPlacement), errors.Is(err, arena.ErrNotBattle):
		code = ReasonWrongPhase
	default:
		code = ReasonInvalidPayload
	}
	metrics.RejectedActions.WithLabelValues(code).Inc()
	slog.Warn("action rejected", "conn", connID, "code", code, "err", err)
	s.sendError(connID, code, err.Error())
}

func (s *Service) sendError(connID, code, message string) {
	s.notifier.Send(connID, Event{Type: EvError, Data: ErrorPayload{Code: code, Message: message}})
}

// Uptime reports how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
