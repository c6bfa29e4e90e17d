package service

import (
	"context"
	"strings"
	"time"

	"PulseChat/logger"
	chatmodel "PulseChat/module/chat/model"
	"PulseChat/service/chat"
	"PulseChat/tools/errs"

	"github.com/google/uuid"
)

// MessageService owns message persistence and history. It doubles as the
// websocket gateway's MessageSink.
type MessageService struct {
	msgs  *chatmodel.MessageStore
	convs *chatmodel.ConversationStore
}

func NewMessageService(msgs *chatmodel.MessageStore, convs *chatmodel.ConversationStore) *MessageService {
	return &MessageService{msgs: msgs, convs: convs}
}

type SendMessageParams struct {
	ConversationID   string `json:"conversation_id"`
	Content          string `json:"content"`
	MessageType      string `json:"message_type"`
	ReplyToMessageID string `json:"reply_to_message_id"`
}

// Send persists a message from a current participant and bumps the
// conversation's last_message_at.
func (s *MessageService) Send(ctx context.Context, senderID string, in SendMessageParams) (*chatmodel.Message, error) {
	if in.ConversationID == "" {
		return nil, errs.ErrArgs.WrapMsg("conversation_id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errs.ErrArgs.WrapMsg("content must not be empty")
	}
	msgType := in.MessageType
	if msgType == "" {
		msgType = chatmodel.MsgText
	}
	if !chatmodel.ValidMessageType(msgType) {
		return nil, errs.ErrArgs.WrapMsg("unknown message_type", "type", msgType)
	}

	ok, err := s.convs.IsParticipant(ctx, in.ConversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrForbidden.WrapMsg("not a participant of this conversation")
	}

	now := time.Now()
	m := &chatmodel.Message{
		ID:               uuid.NewString(),
		ConversationID:   in.ConversationID,
		SenderID:         senderID,
		Content:          in.Content,
		MessageType:      msgType,
		ReplyToMessageID: in.ReplyToMessageID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.msgs.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := s.convs.BumpLastMessage(ctx, in.ConversationID, now); err != nil {
		logger.Warnf("bump last_message_at conv=%s: %v", in.ConversationID, err)
	}
	return m, nil
}

// Append implements the websocket gateway's MessageSink.
func (s *MessageService) Append(ctx context.Context, conv chat.ConversationID, sender chat.UserID, content, msgType, replyTo string) error {
	_, err := s.Send(ctx, string(sender), SendMessageParams{
		ConversationID:   string(conv),
		Content:          content,
		MessageType:      msgType,
		ReplyToMessageID: replyTo,
	})
	return err
}

// History pages a conversation's messages for a current participant.
func (s *MessageService) History(ctx context.Context, convID, userID string, skip, limit int) ([]*chatmodel.Message, error) {
	ok, err := s.convs.IsParticipant(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrForbidden.WrapMsg("not a participant of this conversation")
	}
	return s.msgs.ListByConversation(ctx, convID, skip, limit)
}

// Edit rewrites a message's content; sender only.
func (s *MessageService) Edit(ctx context.Context, msgID, userID, content string) (*chatmodel.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrArgs.WrapMsg("content must not be empty")
	}
	m, err := s.msgs.Get(ctx, msgID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID {
		return nil, errs.ErrForbidden.WrapMsg("only the sender may edit a message")
	}
	if err := s.msgs.UpdateContent(ctx, msgID, content); err != nil {
		return nil, err
	}
	return s.msgs.Get(ctx, msgID)
}

// Delete soft-deletes; sender only.
func (s *MessageService) Delete(ctx context.Context, msgID, userID string) error {
	m, err := s.msgs.Get(ctx, msgID)
	if err != nil {
		return err
	}
	if m.SenderID != userID {
		return errs.ErrForbidden.WrapMsg("only the sender may delete a message")
	}
	return s.msgs.SoftDelete(ctx, msgID)
}

// MarkRead moves the user's read cursor in the conversation.
func (s *MessageService) MarkRead(ctx context.Context, convID, userID, msgID string) error {
	m, err := s.msgs.Get(ctx, msgID)
	if err != nil {
		return err
	}
	if m.ConversationID != convID {
		return errs.ErrArgs.WrapMsg("message does not belong to this conversation")
	}
	return s.convs.SetReadCursor(ctx, convID, userID, msgID)
}

// React upserts the user's single reaction on a message.
func (s *MessageService) React(ctx context.Context, msgID, userID, emoji string) (*chatmodel.MessageReaction, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, errs.ErrArgs.WrapMsg("emoji is required")
	}
	m, err := s.msgs.Get(ctx, msgID)
	if err != nil {
		return nil, err
	}
	ok, err := s.convs.IsParticipant(ctx, m.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrForbidden.WrapMsg("not a participant of this conversation")
	}

	r := &chatmodel.MessageReaction{
		ID:        uuid.NewString(),
		MessageID: msgID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if err := s.msgs.UpsertReaction(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *MessageService) Unreact(ctx context.Context, msgID, userID string) error {
	return s.msgs.DeleteReaction(ctx, msgID, userID)
}

type AttachmentParams struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Attach records attachment metadata on the sender's own message. Blob
// transfer happens elsewhere; only the descriptor is stored.
func (s *MessageService) Attach(ctx context.Context, msgID, userID string, in AttachmentParams) (*chatmodel.FileAttachment, error) {
	if in.FileName == "" || in.FileURL == "" {
		return nil, errs.ErrArgs.WrapMsg("file_name and file_url are required")
	}
	m, err := s.msgs.Get(ctx, msgID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID {
		return nil, errs.ErrForbidden.WrapMsg("only the sender may attach files")
	}

	a := &chatmodel.FileAttachment{
		ID:           uuid.NewString(),
		MessageID:    msgID,
		FileName:     in.FileName,
		FileURL:      in.FileURL,
		FileType:     in.FileType,
		FileSize:     in.FileSize,
		UploadStatus: chatmodel.UploadCompleted,
		CreatedAt:    time.Now(),
	}
	if err := s.msgs.CreateAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *MessageService) Reactions(ctx context.Context, msgID string) ([]*chatmodel.MessageReaction, error) {
	return s.msgs.Reactions(ctx, msgID)
}

func (s *MessageService) Attachments(ctx context.Context, msgID string) ([]*chatmodel.FileAttachment, error) {
	return s.msgs.Attachments(ctx, msgID)
}
