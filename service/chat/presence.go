package chat

// Presence answers online-status questions from the registry. All reads are
// point-in-time snapshots; the answer is stale the moment it is returned.
type Presence struct {
	reg *Registry
}

func NewPresence(reg *Registry) *Presence {
	return &Presence{reg: reg}
}

// IsOnline reports whether the user has at least one live connection.
func (p *Presence) IsOnline(user UserID) bool {
	return p.reg.IsOnline(user)
}

// ConnectionCount returns the number of live connections for the user.
// IsOnline(u) is equivalent to ConnectionCount(u) > 0.
func (p *Presence) ConnectionCount(user UserID) int {
	return p.reg.ConnectionCount(user)
}

// OnlineMembersOf returns the subset of the conversation's live members that
// are currently online. Live membership already implies at least one
// connection, but the two indexes are filtered together anyway so a snapshot
// taken mid-retirement never reports an offline user.
func (p *Presence) OnlineMembersOf(conv ConversationID) []UserID {
	members := p.reg.MembersOf(conv)
	out := make([]UserID, 0, len(members))
	for _, u := range members {
		if p.reg.IsOnline(u) {
			out = append(out, u)
		}
	}
	return out
}

// Stats is a coarse gauge of gateway load.
type Stats struct {
	TotalOnlineIdentities         int     `json:"total_online_identities"`
	TotalConnections              int     `json:"total_connections"`
	TotalTrackedConversations     int     `json:"total_tracked_conversations"`
	AverageConnectionsPerIdentity float64 `json:"average_connections_per_identity"`
}

// Stats returns aggregate counts in one consistent snapshot. The average is 0
// when nobody is online.
func (p *Presence) Stats() Stats {
	users, conns, convs := p.reg.counts()
	s := Stats{
		TotalOnlineIdentities:     users,
		TotalConnections:          conns,
		TotalTrackedConversations: convs,
	}
	if users > 0 {
		s.AverageConnectionsPerIdentity = float64(conns) / float64(users)
	}
	return s
}
