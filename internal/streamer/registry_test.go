package streamer

import "testing"

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	r := NewConnectionRegistry()

	c1 := r.Register(1)
	c2 := r.Register(1)

	if c1.ID == "" || c2.ID == "" {
		t.Fatal("expected non-empty connection ids")
	}
	if c1.ID == c2.ID {
		t.Fatalf("duplicate connection id %q", c1.ID)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistryBindUser(t *testing.T) {
	r := NewConnectionRegistry()
	conn := r.Register(1)

	r.BindUser(conn.ID, "u1")

	got, ok := r.Get(conn.ID)
	if !ok {
		t.Fatal("connection missing")
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "u1")
	}
}

func TestRegistryBindUserUnknownConnection(t *testing.T) {
	r := NewConnectionRegistry()
	// Binding after disconnect must be a silent no-op.
	r.BindUser("ghost", "u1")

	if _, ok := r.Get("ghost"); ok {
		t.Error("no entry should be created by BindUser")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewConnectionRegistry()
	conn := r.Register(1)

	r.Remove(conn.ID)
	if _, ok := r.Get(conn.ID); ok {
		t.Error("connection should be gone")
	}

	r.Remove(conn.ID) // second remove is harmless
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
