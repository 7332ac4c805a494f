package game

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// API serves the read-only diagnostics surface and the token-purchase
// passthrough. It never mutates game state.
type API struct {
	svc        *Service
	hub        *Hub
	gatewayURL string
	hc         *http.Client
}

// NewAPI creates the diagnostics API.
func NewAPI(svc *Service, hub *Hub, gatewayURL string) *API {
	return &API{
		svc:        svc,
		hub:        hub,
		gatewayURL: gatewayURL,
		hc:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Stats handles GET /api/stats.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"activeGames":      a.svc.battles.Count(),
		"waitingPlayers":   a.svc.queue.Depth(),
		"connectedPlayers": a.hub.ClientCount(),
		"uptimeSeconds":    int(a.svc.Uptime().Seconds()),
	})
}

// Games handles GET /api/games: redacted views of the queue and every
// live battle.
func (a *API) Games(w http.ResponseWriter, r *http.Request) {
	type waiter struct {
		Address string `json:"address"` // truncated
		Stake   string `json:"stake"`
		Waiting string `json:"waiting"`
	}

	entries := a.svc.queue.Snapshot()
	waiting := make([]waiter, 0, len(entries))
	for _, e := range entries {
		waiting = append(waiting, waiter{
			Address: truncateAddr(e.Account),
			Stake:   e.Stake.String(),
			Waiting: time.Since(e.QueuedAt).Truncate(time.Second).String(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"waitingPlayers": waiting,
		"activeGames":    a.svc.battles.Summaries(),
	})
}

// Matches handles GET /api/matches[?account=0x..&limit=n]: the archived
// results of concluded battles.
func (a *API) Matches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, "limit must be an integer in [1,500]", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ctx := r.Context()
	if account := r.URL.Query().Get("account"); account != "" {
		records, err := a.svc.records.RecordsByAccount(ctx, account, limit)
		if err != nil {
			writeError(w, "failed to load match records", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	records, err := a.svc.records.RecentRecords(ctx, limit)
	if err != nil {
		writeError(w, "failed to load match records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Purchase handles GET /purchase?amount= by forwarding to the relayer
// gateway, which wraps the TokenStore buy call. Pure passthrough.
func (a *API) Purchase(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		writeError(w, "amount is required", http.StatusBadRequest)
		return
	}

	u := a.gatewayURL + "/purchase?amount=" + url.QueryEscape(amount)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		writeError(w, "gateway request failed", http.StatusBadGateway)
		return
	}
	resp, err := a.hc.Do(req)
	if err != nil {
		writeError(w, "gateway unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// Routes mounts the diagnostics endpoints on a chi router.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/stats", a.Stats)
	r.Get("/api/games", a.Games)
	r.Get("/api/matches", a.Matches)
	r.Get("/purchase", a.Purchase)
}

func truncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:10] + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
