package handlers

import (
	"PulseChat/service/chat"
	"PulseChat/tools/decode"
)

// TypingHandler relays typing indicators to the other live members. Frames
// without a conversation_id are dropped silently; an indicator is not worth
// an error round trip.
type TypingHandler struct {
	start bool
}

func NewTypingStart() TypingHandler { return TypingHandler{start: true} }
func NewTypingStop() TypingHandler  { return TypingHandler{start: false} }

func (h TypingHandler) EventType() string {
	if h.start {
		return chat.EventTypingStart
	}
	return chat.EventTypingStop
}

func (h TypingHandler) Handle(sess *chat.Session, env *chat.Envelope) error {
	p, err := decode.DecodeMap[chat.ConversationPayload](env.Data)
	if err != nil || p.ConversationID == "" {
		return nil
	}
	conv := chat.ConversationID(p.ConversationID)
	sess.Server.Bcast().BroadcastToConversation(conv, chat.NewTypingEnvelope(h.start, conv, sess.UserID), sess.UserID)
	return nil
}
