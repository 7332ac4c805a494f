package game

import "testing"

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	r.Register("c1", "")
	r.Register("c2", addrB)
	if r.Count() != 2 {
		t.Fatalf("want 2 connections, got %d", r.Count())
	}

	// Re-register with an account fills it in without losing the entry.
	r.Register("c1", addrA)
	if r.Count() != 2 {
		t.Fatalf("re-register must not duplicate, got %d", r.Count())
	}

	if _, ok := r.CurrentSession("c1"); ok {
		t.Fatalf("unbound connection must have no session")
	}

	r.Bind("c1", "battle-1")
	id, ok := r.CurrentSession("c1")
	if !ok || id != "battle-1" {
		t.Fatalf("want battle-1 binding, got %q %v", id, ok)
	}

	// Re-register keeps the binding intact.
	r.Register("c1", addrA)
	if id, ok := r.CurrentSession("c1"); !ok || id != "battle-1" {
		t.Fatalf("binding lost on re-register: %q %v", id, ok)
	}

	r.Unbind("c1")
	if _, ok := r.CurrentSession("c1"); ok {
		t.Fatalf("unbind must clear the session")
	}
	if r.Count() != 2 {
		t.Fatalf("unbind must keep the connection registered")
	}
}

func TestRegistryUnregisterReportsBinding(t *testing.T) {
	r := NewRegistry()

	if _, bound := r.Unregister("ghost"); bound {
		t.Fatalf("unknown connection cannot be bound")
	}

	r.Register("c1", addrA)
	if _, bound := r.Unregister("c1"); bound {
		t.Fatalf("unbound connection must report no battle")
	}

	r.Register("c1", addrA)
	r.Bind("c1", "battle-7")
	id, bound := r.Unregister("c1")
	if !bound || id != "battle-7" {
		t.Fatalf("want battle-7 on unregister, got %q %v", id, bound)
	}
	if r.Count() != 0 {
		t.Fatalf("unregister must remove the connection")
	}

	// Binding a departed connection is a no-op.
	r.Bind("c1", "battle-8")
	if _, ok := r.CurrentSession("c1"); ok {
		t.Fatalf("departed connection cannot be bound")
	}
}
