package chat

import (
	"errors"
	"sync"
	"testing"
)

// fakeTransport records writes; optionally fails every write to simulate a
// dead socket.
type fakeTransport struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
	closed bool
}

func (f *fakeTransport) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeTransport) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return nil
	}
	return f.writes[len(f.writes)-1]
}

func TestAdmitDistinctConnIDs(t *testing.T) {
	reg := NewRegistry()
	c1 := reg.Admit("u1", &fakeTransport{})
	c2 := reg.Admit("u1", &fakeTransport{})

	if c1.ConnID == c2.ConnID {
		t.Fatalf("expected distinct conn ids, both %q", c1.ConnID)
	}
	if n := reg.ConnectionCount("u1"); n != 2 {
		t.Fatalf("ConnectionCount = %d, want 2", n)
	}
	if !reg.IsOnline("u1") {
		t.Fatal("u1 should be online")
	}
}

func TestRetirePartialKeepsOnline(t *testing.T) {
	reg := NewRegistry()
	c1 := reg.Admit("u1", &fakeTransport{})
	reg.Admit("u1", &fakeTransport{})
	reg.JoinConversation("u1", "c1")

	vacated, retired := reg.Retire("u1", c1.ConnID)
	if retired {
		t.Fatal("retiring one of two connections must not fully retire")
	}
	if vacated != nil {
		t.Fatalf("partial retire vacated %v, want none", vacated)
	}
	if !reg.IsOnline("u1") || reg.ConnectionCount("u1") != 1 {
		t.Fatalf("u1 should remain online with 1 connection, got online=%v count=%d",
			reg.IsOnline("u1"), reg.ConnectionCount("u1"))
	}
	if got := reg.MembersOf("c1"); len(got) != 1 || got[0] != "u1" {
		t.Fatalf("membership changed on partial retire: %v", got)
	}
}

func TestRetireLastCascades(t *testing.T) {
	reg := NewRegistry()
	c := reg.Admit("u1", &fakeTransport{})
	reg.Admit("u2", &fakeTransport{})
	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u1", "c2")
	reg.JoinConversation("u2", "c1")

	vacated, retired := reg.Retire("u1", c.ConnID)
	if !retired {
		t.Fatal("last connection must fully retire")
	}
	if len(vacated) != 2 {
		t.Fatalf("vacated = %v, want c1 and c2", vacated)
	}

	if reg.IsOnline("u1") {
		t.Fatal("u1 should be offline")
	}
	for _, u := range reg.MembersOf("c1") {
		if u == "u1" {
			t.Fatal("u1 still member of c1 after full retirement")
		}
	}
	if got := reg.MembersOf("c2"); got != nil {
		t.Fatalf("c2 should have no members left, got %v", got)
	}
}

func TestRetireIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := reg.Admit("u1", &fakeTransport{})

	if _, retired := reg.Retire("u1", c.ConnID); !retired {
		t.Fatal("first retire should report retirement")
	}
	if vacated, retired := reg.Retire("u1", c.ConnID); retired || vacated != nil {
		t.Fatal("second retire must be a no-op")
	}
	if _, retired := reg.Retire("nobody", "missing"); retired {
		t.Fatal("retiring an unknown identity must be a no-op")
	}
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.Admit("u1", &fakeTransport{})

	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u1", "c1") // idempotent
	if got := reg.MembersOf("c1"); len(got) != 1 {
		t.Fatalf("MembersOf after double join = %v, want [u1]", got)
	}

	reg.LeaveConversation("u1", "c1")
	if got := reg.MembersOf("c1"); got != nil {
		t.Fatalf("MembersOf after leave = %v, want none", got)
	}
	reg.LeaveConversation("u1", "c1") // no-op
}

func TestRegistryCloseClosesTransports(t *testing.T) {
	reg := NewRegistry()
	ft := &fakeTransport{}
	reg.Admit("u1", ft)
	reg.JoinConversation("u1", "c1")

	reg.Close()

	if !ft.closed {
		t.Fatal("transport not closed")
	}
	if reg.IsOnline("u1") || reg.MembersOf("c1") != nil {
		t.Fatal("indexes not emptied")
	}
}
