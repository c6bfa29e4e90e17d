package chat

import "context"

// UserID is an authenticated identity. Distinct type so it cannot be mixed up
// with conversation ids in call sites.
type UserID string

// ConversationID names a chat room for fanout purposes.
type ConversationID string

// Transport is one live send-capable connection. The websocket adapter lives
// in client.go; tests inject fakes.
type Transport interface {
	WriteMessage(data []byte) error
	Close() error
}

// TokenVerifier turns a bearer token into an identity or fails.
type TokenVerifier func(token string) (UserID, error)

// MessageSink persists inbound chat messages. Optional; delivery never waits
// on it and a sink error never aborts a broadcast.
type MessageSink interface {
	Append(ctx context.Context, conv ConversationID, sender UserID, content, msgType, replyTo string) error
}

// MembershipChecker answers whether an identity may join a conversation's
// live fanout. Optional; when absent the client's assertion is trusted.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, conv ConversationID, user UserID) (bool, error)
}

// PresenceMirror pushes online/offline transitions to an external store
// (Redis). Optional and best effort; the registry stays the source of truth.
type PresenceMirror interface {
	Online(ctx context.Context, user string) error
	Offline(ctx context.Context, user string) error
	Lookup(ctx context.Context, user string) (nodeID string, online bool, err error)
}

// Handler processes one inbound event type.
type Handler interface {
	EventType() string
	Handle(sess *Session, env *Envelope) error
}

// Session is the per-connection context handed to handlers.
type Session struct {
	Server *Server
	UserID UserID
	Client *Client
}
