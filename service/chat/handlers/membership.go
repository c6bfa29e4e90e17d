package handlers

import (
	"context"

	"PulseChat/logger"
	"PulseChat/service/chat"
	"PulseChat/tools/decode"
	"PulseChat/tools/errs"
)

// JoinHandler subscribes the connection's user to a conversation's live
// fanout and announces the arrival to the members already there.
type JoinHandler struct{}

func (JoinHandler) EventType() string { return chat.EventJoinConversation }

func (JoinHandler) Handle(sess *chat.Session, env *chat.Envelope) error {
	p, err := decode.DecodeMap[chat.ConversationPayload](env.Data)
	if err != nil || p.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("conversation_id is required")
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

	srv.Reg().JoinConversation(sess.UserID, conv)
	srv.Bcast().BroadcastToConversation(conv, chat.NewMembershipEnvelope(chat.EventUserJoined, conv, sess.UserID), sess.UserID)
	return nil
}

// LeaveHandler unsubscribes the user from a conversation's live fanout. The
// departure is announced before the indexes change so the leaver's own frame
// ordering stays consistent with what the remaining members see.
type LeaveHandler struct{}

func (LeaveHandler) EventType() string { return chat.EventLeaveConversation }

func (LeaveHandler) Handle(sess *chat.Session, env *chat.Envelope) error {
	p, err := decode.DecodeMap[chat.ConversationPayload](env.Data)
	if err != nil || p.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("conversation_id is required")
	}
	conv := chat.ConversationID(p.ConversationID)

	srv := sess.Server
	srv.Bcast().BroadcastToConversation(conv, chat.NewMembershipEnvelope(chat.EventUserLeft, conv, sess.UserID), sess.UserID)
	srv.Reg().LeaveConversation(sess.UserID, conv)
	return nil
}

// RegisterAll binds every inbound event handler to the server's dispatcher.
func RegisterAll(srv *chat.Server) {
	srv.Disp().Register(MessageSendHandler{})
	srv.Disp().Register(NewTypingStart())
	srv.Disp().Register(NewTypingStop())
	srv.Disp().Register(JoinHandler{})
	srv.Disp().Register(LeaveHandler{})
}
