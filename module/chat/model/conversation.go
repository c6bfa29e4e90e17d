package model

import "time"

// Conversation types.
const (
	ConvDirect  = "direct_message"
	ConvGroup   = "group_chat"
	ConvChannel = "channel"
)

// Participant roles.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
	RoleOwner     = "owner"
)

type Conversation struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Description      string     `json:"description,omitempty"`
	ConversationType string     `json:"conversation_type"`
	CreatedBy        string     `json:"created_by"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
}

type Participant struct {
	ID                string     `json:"id"`
	ConversationID    string     `json:"conversation_id"`
	UserID            string     `json:"user_id"`
	Role              string     `json:"role"`
	IsMuted           bool       `json:"is_muted"`
	JoinedAt          time.Time  `json:"joined_at"`
	LeftAt            *time.Time `json:"left_at,omitempty"`
	LastReadMessageID string     `json:"last_read_message_id,omitempty"`
}

func ValidConversationType(t string) bool {
	switch t {
	case ConvDirect, ConvGroup, ConvChannel:
		return true
	}
	return false
}
