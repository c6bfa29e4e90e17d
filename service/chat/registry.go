package chat

import (
	"sync"
	"time"

	"PulseChat/tools/ids"
)

// Registry is the single shared mutable resource of the live-connection core.
// Three indexes are kept mutually consistent under one mutex:
//
//	byUser:        user -> conn_id -> client
//	convsByUser:   user -> set of conversations the user is live-member of
//	membersByConv: conversation -> set of users
//
// A user is online iff byUser holds a non-empty set for it. Membership in
// convsByUser and membersByConv is always bidirectional.
type Registry struct {
	mu            sync.RWMutex
	byUser        map[UserID]map[string]*Client
	convsByUser   map[UserID]map[ConversationID]struct{}
	membersByConv map[ConversationID]map[UserID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:        make(map[UserID]map[string]*Client),
		convsByUser:   make(map[UserID]map[ConversationID]struct{}),
		membersByConv: make(map[ConversationID]map[UserID]struct{}),
	}
}

// Admit stores a new connection for user and returns its handle. Never fails:
// the connection id is generated here and is unique across the process.
func (r *Registry) Admit(user UserID, t Transport) *Client {
	c := &Client{
		ConnID:    ids.GenerateString(),
		UserID:    user,
		Transport: t,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.byUser[user]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[user] = m
	}
	m[c.ConnID] = c
	return c
}

// Retire removes one connection. Removing the user's last connection cascades:
// the user leaves every conversation it was a live-member of, and both
// membership indexes are cleaned in the same critical section. Idempotent.
//
// vacated lists the conversations the user was removed from (non-nil only on
// full retirement); retired reports whether the user went fully offline.
func (r *Registry) Retire(user UserID, connID string) (vacated []ConversationID, retired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retireLocked(user, connID)
}

func (r *Registry) retireLocked(user UserID, connID string) (vacated []ConversationID, retired bool) {
	m := r.byUser[user]
	if m == nil {
		return nil, false
	}
	if _, ok := m[connID]; !ok {
		return nil, false
	}
	delete(m, connID)
	if len(m) > 0 {
		return nil, false
	}
	delete(r.byUser, user)

	for conv := range r.convsByUser[user] {
		vacated = append(vacated, conv)
		if members := r.membersByConv[conv]; members != nil {
			delete(members, user)
			if len(members) == 0 {
				delete(r.membersByConv, conv)
			}
		}
	}
	delete(r.convsByUser, user)
	return vacated, true
}

// JoinConversation adds user to both membership indexes. Idempotent.
func (r *Registry) JoinConversation(user UserID, conv ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs := r.convsByUser[user]
	if cs == nil {
		cs = make(map[ConversationID]struct{})
		r.convsByUser[user] = cs
	}
	cs[conv] = struct{}{}

	ms := r.membersByConv[conv]
	if ms == nil {
		ms = make(map[UserID]struct{})
		r.membersByConv[conv] = ms
	}
	ms[user] = struct{}{}
}

// LeaveConversation removes user from both membership indexes. Idempotent;
// no-op if not a member.
func (r *Registry) LeaveConversation(user UserID, conv ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs := r.convsByUser[user]; cs != nil {
		delete(cs, conv)
		if len(cs) == 0 {
			delete(r.convsByUser, user)
		}
	}
	if ms := r.membersByConv[conv]; ms != nil {
		delete(ms, user)
		if len(ms) == 0 {
			delete(r.membersByConv, conv)
		}
	}
}

// MembersOf returns a point-in-time snapshot of a conversation's members.
func (r *Registry) MembersOf(conv ConversationID) []UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms := r.membersByConv[conv]
	if len(ms) == 0 {
		return nil
	}
	out := make([]UserID, 0, len(ms))
	for u := range ms {
		out = append(out, u)
	}
	return out
}

// ConnectionsOf returns a snapshot of a user's live connections.
func (r *Registry) ConnectionsOf(user UserID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[user]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// IsOnline reports whether user has at least one live connection.
func (r *Registry) IsOnline(user UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user]) > 0
}

// ConnectionCount returns the number of live connections for user.
func (r *Registry) ConnectionCount(user UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user])
}

// counts reports (online users, total connections, tracked conversations)
// in one consistent snapshot; used by the presence tracker.
func (r *Registry) counts() (users, conns, convs int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byUser {
		if len(m) > 0 {
			users++
			conns += len(m)
		}
	}
	return users, conns, len(r.membersByConv)
}

// Close tears down every live connection and empties all indexes. Used by the
// server's shutdown sequence.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.byUser))
	for _, m := range r.byUser {
		for _, c := range m {
			clients = append(clients, c)
		}
	}
	r.byUser = make(map[UserID]map[string]*Client)
	r.convsByUser = make(map[UserID]map[ConversationID]struct{})
	r.membersByConv = make(map[ConversationID]map[UserID]struct{})
	r.mu.Unlock()

	// close sockets outside the lock
	for _, c := range clients {
		_ = c.Transport.Close()
	}
}
