package service

import (
	"context"
	"strings"
	"time"

	chatmodel "PulseChat/module/chat/model"
	"PulseChat/service/chat"
	"PulseChat/tools/errs"

	"github.com/google/uuid"
)

// ConversationService owns conversation and participant lifecycle. It also
// backs the websocket gateway's membership checks.
type ConversationService struct {
	store *chatmodel.ConversationStore
}

func NewConversationService(store *chatmodel.ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

type CreateConversationParams struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ConversationType string `json:"conversation_type"`
}

// Create makes the caller the conversation's owner participant.
func (s *ConversationService) Create(ctx context.Context, creatorID string, in CreateConversationParams) (*chatmodel.Conversation, error) {
	t := in.ConversationType
	if t == "" {
		t = chatmodel.ConvDirect
	}
	if !chatmodel.ValidConversationType(t) {
		return nil, errs.ErrArgs.WrapMsg("unknown conversation_type", "type", t)
	}
	if t != chatmodel.ConvDirect && strings.TrimSpace(in.Name) == "" {
		return nil, errs.ErrArgs.WrapMsg("name is required for group chats and channels")
	}

	now := time.Now()
	cv := &chatmodel.Conversation{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		ConversationType: t,
		CreatedBy:        creatorID,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, cv, uuid.NewString()); err != nil {
		return nil, err
	}
	return cv, nil
}

func (s *ConversationService) ListMine(ctx context.Context, userID string) ([]*chatmodel.Conversation, error) {
	return s.store.ListForUser(ctx, userID)
}

// Get returns the conversation to current participants only.
func (s *ConversationService) Get(ctx context.Context, convID, userID string) (*chatmodel.Conversation, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, convID)
}

func (s *ConversationService) Participants(ctx context.Context, convID, userID string) ([]*chatmodel.Participant, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.store.Participants(ctx, convID)
}

// AddParticipant lets any current participant invite another user.
func (s *ConversationService) AddParticipant(ctx context.Context, convID, actorID, userID string) error {
	if err := s.requireParticipant(ctx, convID, actorID); err != nil {
		return err
	}
	return s.store.AddParticipant(ctx, &chatmodel.Participant{
		ID:             uuid.NewString(),
		ConversationID: convID,
		UserID:         userID,
		Role:           chatmodel.RoleMember,
		JoinedAt:       time.Now(),
	})
}

// RemoveParticipant allows self-removal; removing someone else needs an
// owner/admin role.
func (s *ConversationService) RemoveParticipant(ctx context.Context, convID, actorID, userID string) error {
	if actorID != userID {
		if err := s.requireRole(ctx, convID, actorID, chatmodel.RoleOwner, chatmodel.RoleAdmin); err != nil {
			return err
		}
	}
	return s.store.RemoveParticipant(ctx, convID, userID)
}

// Delete soft-deletes; owner only.
func (s *ConversationService) Delete(ctx context.Context, convID, actorID string) error {
	if err := s.requireRole(ctx, convID, actorID, chatmodel.RoleOwner); err != nil {
		return err
	}
	return s.store.Deactivate(ctx, convID)
}

// IsParticipant implements the websocket gateway's MembershipChecker.
func (s *ConversationService) IsParticipant(ctx context.Context, conv chat.ConversationID, user chat.UserID) (bool, error) {
	return s.store.IsParticipant(ctx, string(conv), string(user))
}

func (s *ConversationService) requireParticipant(ctx context.Context, convID, userID string) error {
	ok, err := s.store.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrForbidden.WrapMsg("not a participant of this conversation")
	}
	return nil
}

func (s *ConversationService) requireRole(ctx context.Context, convID, userID string, roles ...string) error {
	parts, err := s.store.Participants(ctx, convID)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if p.UserID != userID {
			continue
		}
		for _, r := range roles {
			if p.Role == r {
				return nil
			}
		}
	}
	return errs.ErrForbidden.WrapMsg("insufficient role")
}
