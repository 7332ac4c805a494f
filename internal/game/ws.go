package game

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// sendBuffer bounds the per-connection outbound queue. A client
	// that cannot drain it loses messages rather than blocking the
	// engine; gameplay correctness never depends on delivery.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// Hub owns the WebSocket connections and routes inbound envelopes to
// the Service. It implements Notifier for the outbound direction.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	svc     *Service
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewHub creates an empty hub. Attach attaches the service after both
// exist (the service needs the hub as its notifier).
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Attach binds the orchestrating service.
func (h *Hub) Attach(svc *Service) {
	h.svc = svc
}

// Send implements Notifier. Delivery is best-effort: a full or closed
// client buffer drops the message.
func (h *Hub) Send(connID string, ev Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		slog.Error("event encode failed", "type", ev.Type, "err", err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		// Drop if buffer full to avoid blocking gameplay.
	}
}

func encodeEvent(ev Event) ([]byte, error) {
	env := Envelope{Type: ev.Type}
	if ev.Data != nil {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// HandleWS upgrades the request and runs the connection's pumps.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.svc.Connect(c.id)

	go h.writePump(c)
	go h.readPump(c)
}

// readPump decodes inbound envelopes until the connection dies, then
// triggers disconnect cleanup exactly once.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(c.id, data)
	}
}

// writePump drains the send queue and keeps the connection alive
// through proxies with periodic pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

// drop removes the client and runs service-side disconnect cleanup.
// Guarded so a write failure and the read pump exiting cannot clean up
// twice.
func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()

		close(c.done)
		c.conn.Close()
		h.svc.Disconnect(c.id)
	})
}

// dispatch routes one inbound envelope to the service.
func (h *Hub) dispatch(connID string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.svc.sendError(connID, ReasonInvalidPayload, "malformed message")
		return
	}

	switch env.Type {
	case EvFindMatch:
		var p FindMatchPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.svc.sendError(connID, ReasonInvalidPayload, "malformed findMatch payload")
			return
		}
		h.svc.FindMatch(connID, p.Address, p.Stake)

	case EvCancelSearch:
		h.svc.CancelSearch(connID)

	case EvShipsPlaced:
		var p ShipsPlacedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.svc.sendError(connID, ReasonInvalidPayload, "malformed shipsPlaced payload")
			return
		}
		h.svc.PlaceFleet(connID, p.BattleID, p.Ships)

	case EvAttack:
		var p AttackPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.svc.sendError(connID, ReasonInvalidPayload, "malformed attack payload")
			return
		}
		h.svc.Attack(connID, p.BattleID, p.CellIndex)

	case EvLeaveGame:
		var p LeaveGamePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.svc.sendError(connID, ReasonInvalidPayload, "malformed leaveGame payload")
			return
		}
		h.svc.LeaveGame(connID, p.BattleID)

	default:
		h.svc.sendError(connID, ReasonInvalidPayload, "unknown event type: "+env.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
