// Package game wires the real-time event surface to the matchmaking
// queue, the arena, and the ledger boundary.
package game

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/model"
)

// Envelope is the wire framing for every WebSocket message, both
// directions: a type tag and a type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound event types.
const (
	EvFindMatch    = "findMatch"
	EvCancelSearch = "cancelSearch"
	EvShipsPlaced  = "shipsPlaced"
	EvAttack       = "attack"
	EvLeaveGame    = "leaveGame"
)

// Outbound event types.
const (
	EvMatchFound       = "matchFound"
	EvBattleStart      = "battleStart"
	EvAttackResult     = "attackResult"
	EvGameOver         = "gameOver"
	EvOpponentLeft     = "opponentLeft"
	EvSettlementOK     = "settlementConfirmed"
	EvSettlementFailed = "settlementFailed"
	EvError            = "error"
)

// Error reason codes carried by EvError payloads.
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonInvalidAddress = "invalid_address"
	ReasonInvalidStake   = "invalid_stake"
	ReasonInvalidFleet   = "invalid_fleet"
	ReasonAlreadyInGame  = "already_in_battle"
	ReasonAlreadyPlaced  = "already_placed"
	ReasonNotFound       = "battle_not_found"
	ReasonNotParticipant = "not_participant"
	ReasonNotYourTurn    = "not_your_turn"
	ReasonBadCell        = "invalid_cell"
	ReasonConcluded      = "battle_concluded"
	ReasonWrongPhase     = "wrong_phase"
	ReasonLedgerCreate   = "ledger_create_failed"
)

// Event is an outbound message before wire encoding.
type Event struct {
	Type string
	Data any
}

// FindMatchPayload enqueues the sender for matchmaking.
type FindMatchPayload struct {
	Address string          `json:"address"`
	Stake   decimal.Decimal `json:"stake"`
}

// ShipsPlacedPayload confirms the sender's fleet for a battle.
type ShipsPlacedPayload struct {
	BattleID string       `json:"battleId"`
	Ships    []model.Ship `json:"ships"`
}

// AttackPayload fires at one cell of the opponent's board.
type AttackPayload struct {
	BattleID  string `json:"battleId"`
	CellIndex int    `json:"cellIndex"`
}

// LeaveGamePayload is a voluntary forfeit.
type LeaveGamePayload struct {
	BattleID string `json:"battleId"`
}

// MatchFoundPayload announces a pairing to one side.
type MatchFoundPayload struct {
	BattleID string          `json:"battleId"`
	Role     model.SideLabel `json:"role"`
	Opponent string          `json:"opponent"`
	Stake    string          `json:"stake"`
}

// PublicSide is the opponent-visible view of a side: address only,
// never the fleet.
type PublicSide struct {
	Address string `json:"address"`
}

// BattleStartPayload announces that both fleets are confirmed.
type BattleStartPayload struct {
	BattleID    string          `json:"battleId"`
	Player1     PublicSide      `json:"player1"`
	Player2     PublicSide      `json:"player2"`
	Stake       string          `json:"stake"`
	CurrentTurn model.SideLabel `json:"currentTurn"`
}

// AttackResultPayload broadcasts one resolved attack to both sides.
type AttackResultPayload struct {
	BattleID  string          `json:"battleId"`
	CellIndex int             `json:"cellIndex"`
	Result    string          `json:"result"`
	Ship      string          `json:"ship,omitempty"` // set when result is "sunk"
	Attacker  model.SideLabel `json:"attacker"`
	NextTurn  model.SideLabel `json:"nextTurn"`
}

// GameOverPayload announces the conclusion. SettlementRef is the
// on-chain match id whose commit is in flight; the final transaction
// hash follows in a settlement event.
type GameOverPayload struct {
	BattleID      string `json:"battleId"`
	Winner        string `json:"winner"`
	Loser         string `json:"loser"`
	Stake         string `json:"stake"`
	SettlementRef string `json:"settlementRef,omitempty"`
}

// SettlementPayload reports the ledger outcome for a concluded battle.
type SettlementPayload struct {
	BattleID string `json:"battleId"`
	TxHash   string `json:"txHash,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ErrorPayload carries a rejected action's reason code.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
