package game

import "sync"

// Registry tracks live connections and their current battle binding, if
// any. It is pure bookkeeping: it never initiates gameplay logic, and on
// unregister it reports the previously bound battle so the caller can
// run cleanup.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*binding
}

type binding struct {
	account  string
	battleID string
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*binding)}
}

// Register records a live connection. Re-registering an existing
// connection updates its account and preserves any battle binding.
func (r *Registry) Register(connID, account string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.conns[connID]; ok {
		if account != "" {
			b.account = account
		}
		return
	}
	r.conns[connID] = &binding{account: account}
}

// Unregister removes the connection and returns the battle it was bound
// to, if any, so the caller can trigger session cleanup.
func (r *Registry) Unregister(connID string) (battleID string, bound bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	return b.battleID, b.battleID != ""
}

// CurrentSession returns the battle the connection is bound to.
func (r *Registry) CurrentSession(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok || b.battleID == "" {
		return "", false
	}
	return b.battleID, true
}

// Bind attaches the connection to a battle.
func (r *Registry) Bind(connID, battleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.conns[connID]; ok {
		b.battleID = battleID
	}
}

// Unbind clears the connection's battle binding, keeping the connection
// registered.
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.conns[connID]; ok {
		b.battleID = ""
	}
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
