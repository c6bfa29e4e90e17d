package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound event types.
const (
	EventMessageSend       = "message_send"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
)

// Outbound event types.
const (
	EventMessageReceived = "message_received"
	EventUserJoined      = "user_joined_conversation"
	EventUserLeft        = "user_left_conversation"
	EventError           = "error"
)

// Envelope is the wire unit exchanged over a live connection, both directions.
type Envelope struct {
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// ParseEnvelope decodes an inbound frame. A frame without event_type is
// rejected here so handlers never see an unroutable envelope.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope failed: %w", err)
	}
	if env.EventType == "" {
		return nil, fmt.Errorf("missing event_type")
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return &env, nil
}

func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func NewEnvelope(eventType string, data map[string]any) *Envelope {
	return &Envelope{
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ---- inbound payloads ----

type MessageSendPayload struct {
	ConversationID   string `json:"conversation_id"`
	Content          string `json:"content"`
	MessageType      string `json:"message_type"`
	ReplyToMessageID string `json:"reply_to_message_id"`
}

type ConversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

// ---- outbound builders ----

func NewErrorEnvelope(msg string) *Envelope {
	return NewEnvelope(EventError, map[string]any{"message": msg})
}

func NewMessageReceived(conv ConversationID, sender UserID, p *MessageSendPayload, createdAt time.Time) *Envelope {
	msgType := p.MessageType
	if msgType == "" {
		msgType = "text"
	}
	data := map[string]any{
		"conversation_id": string(conv),
		"sender_id":       string(sender),
		"content":         p.Content,
		"message_type":    msgType,
		"created_at":      createdAt.UTC().Format(time.RFC3339Nano),
	}
	if p.ReplyToMessageID != "" {
		data["reply_to_message_id"] = p.ReplyToMessageID
	}
	return NewEnvelope(EventMessageReceived, data)
}

func NewTypingEnvelope(start bool, conv ConversationID, user UserID) *Envelope {
	event := EventTypingStop
	if start {
		event = EventTypingStart
	}
	return NewEnvelope(event, map[string]any{
		"conversation_id": string(conv),
		"user_id":         string(user),
	})
}

func NewMembershipEnvelope(eventType string, conv ConversationID, user UserID) *Envelope {
	return NewEnvelope(eventType, map[string]any{
		"conversation_id": string(conv),
		"user_id":         string(user),
	})
}
