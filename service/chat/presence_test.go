package chat

import "testing"

func TestOnlineMatchesConnectionCount(t *testing.T) {
	reg := NewRegistry()
	p := NewPresence(reg)

	ids := []UserID{"u1", "u2", "ghost"}
	c := reg.Admit("u1", &fakeTransport{})
	reg.Admit("u2", &fakeTransport{})
	reg.Admit("u2", &fakeTransport{})

	for _, u := range ids {
		if p.IsOnline(u) != (p.ConnectionCount(u) > 0) {
			t.Fatalf("IsOnline(%s) disagrees with ConnectionCount", u)
		}
	}

	reg.Retire("u1", c.ConnID)
	if p.IsOnline("u1") || p.ConnectionCount("u1") != 0 {
		t.Fatal("u1 should be offline with zero connections")
	}
}

func TestOnlineMembersOf(t *testing.T) {
	reg := NewRegistry()
	p := NewPresence(reg)

	reg.Admit("u1", &fakeTransport{})
	reg.Admit("u2", &fakeTransport{})
	reg.JoinConversation("u1", "c1")
	reg.JoinConversation("u2", "c1")

	got := p.OnlineMembersOf("c1")
	if len(got) != 2 {
		t.Fatalf("OnlineMembersOf = %v, want u1 and u2", got)
	}
	if got := p.OnlineMembersOf("empty"); len(got) != 0 {
		t.Fatalf("unknown conversation reported members: %v", got)
	}
}

func TestStatsEmptyRegistry(t *testing.T) {
	p := NewPresence(NewRegistry())
	s := p.Stats()
	if s.TotalOnlineIdentities != 0 || s.TotalConnections != 0 ||
		s.TotalTrackedConversations != 0 || s.AverageConnectionsPerIdentity != 0 {
		t.Fatalf("empty registry stats not all zero: %+v", s)
	}
}

func TestStatsCounts(t *testing.T) {
	reg := NewRegistry()
	p := NewPresence(reg)

	reg.Admit("u1", &fakeTransport{})
	reg.Admit("u1", &fakeTransport{})
	reg.Admit("u2", &fakeTransport{})
	reg.JoinConversation("u1", "c1")

	s := p.Stats()
	if s.TotalOnlineIdentities != 2 || s.TotalConnections != 3 || s.TotalTrackedConversations != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if s.AverageConnectionsPerIdentity != 1.5 {
		t.Fatalf("average = %v, want 1.5", s.AverageConnectionsPerIdentity)
	}
}
