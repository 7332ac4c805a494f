// Package ledger is the boundary to the on-chain match contract. The
// engine never talks to the chain directly: a relayer gateway exposes
// createMatch/commitResult over REST and handles keys, nonces, and
// transaction retries.
//
// Both calls are fire-and-report: the state machine never waits on them
// and a failure never reverts a finalized game outcome.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAddress is returned for malformed account identifiers.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrGateway is returned when the relayer gateway rejects a call or
	// cannot be reached.
	ErrGateway = errors.New("ledger: gateway call failed")
)

// Client is the ledger boundary consumed by the engine. Implementations
// must be safe for concurrent use.
type Client interface {
	// CreateMatch registers a pairing on chain, prior to or at battle
	// start. Returns the transaction hash.
	CreateMatch(ctx context.Context, matchIDHash, accountA, accountB string, stake decimal.Decimal) (string, error)

	// CommitResult records the winner for a previously created match.
	// Returns the transaction hash.
	CommitResult(ctx context.Context, matchIDHash, winner string) (string, error)
}

// NormalizeAddress validates an account identifier and returns its
// EIP-55 canonical casing for display. Comparison elsewhere uses
// strings.EqualFold / lowercase, so casing differences never split one
// wallet into two identities.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// MatchIDHash derives the bytes32 on-chain match id from a battle id,
// the keccak-256 of the UTF-8 string (same derivation as ethers.id).
func MatchIDHash(battleID string) string {
	return crypto.Keccak256Hash([]byte(battleID)).Hex()
}

// GatewayClient calls the relayer gateway over HTTP.
type GatewayClient struct {
	baseURL string
	hc      *http.Client
}

// NewGatewayClient creates a client for the relayer at baseURL. The
// caller controls per-call deadlines through contexts.
func NewGatewayClient(baseURL string, hc *http.Client) *GatewayClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &GatewayClient{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

type startRequest struct {
	MatchID string `json:"matchId"`
	P1      string `json:"p1"`
	P2      string `json:"p2"`
	Stake   string `json:"stake"`
}

type resultRequest struct {
	MatchID string `json:"matchId"`
	Winner  string `json:"winner"`
}

type txResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error"`
}

func (c *GatewayClient) CreateMatch(ctx context.Context, matchIDHash, accountA, accountB string, stake decimal.Decimal) (string, error) {
	return c.post(ctx, "/match/start", startRequest{
		MatchID: matchIDHash,
		P1:      accountA,
		P2:      accountB,
		Stake:   stake.String(),
	})
}

func (c *GatewayClient) CommitResult(ctx context.Context, matchIDHash, winner string) (string, error) {
	return c.post(ctx, "/match/result", resultRequest{
		MatchID: matchIDHash,
		Winner:  winner,
	})
}

func (c *GatewayClient) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", ErrGateway, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrGateway, path, err)
	}
	defer resp.Body.Close()

	var out txResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode %s response: %v", ErrGateway, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: %s: %s", ErrGateway, path, msg)
	}
	return out.TxHash, nil
}
