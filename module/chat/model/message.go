package model

import "time"

// Message types.
const (
	MsgText    = "text"
	MsgImage   = "image"
	MsgFile    = "file"
	MsgSystem  = "system"
	MsgDeleted = "deleted"
)

// Attachment upload states.
const (
	UploadInProgress = "uploading"
	UploadCompleted  = "completed"
	UploadFailed     = "failed"
)

// DeletedPlaceholder replaces the content of soft-deleted messages.
const DeletedPlaceholder = "[Message deleted]"

type Message struct {
	ID               string     `json:"id"`
	ConversationID   string     `json:"conversation_id"`
	SenderID         string     `json:"sender_id"`
	Content          string     `json:"content"`
	MessageType      string     `json:"message_type"`
	ReplyToMessageID string     `json:"reply_to_message_id,omitempty"`
	IsDeleted        bool       `json:"is_deleted"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
}

type MessageReaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

type FileAttachment struct {
	ID           string    `json:"id"`
	MessageID    string    `json:"message_id"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	FileType     string    `json:"file_type,omitempty"`
	FileSize     int64     `json:"file_size"`
	UploadStatus string    `json:"upload_status"`
	CreatedAt    time.Time `json:"created_at"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MsgText, MsgImage, MsgFile, MsgSystem:
		return true
	}
	return false
}
