package handlers

import (
	"context"
	"strings"
	"time"

	"PulseChat/logger"
	"PulseChat/service/chat"
	"PulseChat/tools/decode"
	"PulseChat/tools/errs"
)

// MessageSendHandler fans a chat message out to the other live members of its
// conversation and, when a sink is wired, persists it. Persistence failures
// are logged and never block delivery.
type MessageSendHandler struct{}

func (MessageSendHandler) EventType() string { return chat.EventMessageSend }

func (MessageSendHandler) Handle(sess *chat.Session, env *chat.Envelope) error {
	p, err := decode.DecodeMap[chat.MessageSendPayload](env.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg("bad message_send payload")
	}
	if p.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("conversation_id is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return errs.ErrArgs.WrapMsg("content must not be empty")
	}
	conv := chat.ConversationID(p.ConversationID)

	srv := sess.Server
	if m := srv.Membership(); m != nil {
		ok, err := m.IsParticipant(context.Background(), conv, sess.UserID)
		if err != nil {
			logger.Warnf("membership check conv=%s user=%s: %v", conv, sess.UserID, err)
		} else if !ok {
			return errs.ErrForbidden.WrapMsg("not a participant of this conversation")
		}
	}

	now := time.Now()
	if sink := srv.Sink(); sink != nil {
		if err := sink.Append(context.Background(), conv, sess.UserID, p.Content, p.MessageType, p.ReplyToMessageID); err != nil {
			logger.Errorf("persist message conv=%s user=%s: %v", conv, sess.UserID, err)
		}
	}

	srv.Bcast().BroadcastToConversation(conv, chat.NewMessageReceived(conv, sess.UserID, p, now), sess.UserID)
	return nil
}
