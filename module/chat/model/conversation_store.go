package model

import (
	"context"
	"time"

	"PulseChat/data/pg"
	"PulseChat/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ConversationStore is the pgx-backed conversation/participant repository.
type ConversationStore struct{}

func NewConversationStore() *ConversationStore { return &ConversationStore{} }

const convCols = `id, coalesce(name, ''), coalesce(description, ''),
	conversation_type, created_by, is_active, created_at, updated_at, last_message_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var cv Conversation
	err := row.Scan(&cv.ID, &cv.Name, &cv.Description, &cv.ConversationType,
		&cv.CreatedBy, &cv.IsActive, &cv.CreatedAt, &cv.UpdatedAt, &cv.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordMissing.Wrap()
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &cv, nil
}

// Create inserts the conversation and its creator as owner participant in one
// transaction.
func (s *ConversationStore) Create(ctx context.Context, cv *Conversation, ownerParticipantID string) error {
	tx, err := pg.Get().Begin(ctx)
	if err != nil {
		return errs.Wrap(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		insert into conversations (id, name, description, conversation_type, created_by,
			is_active, created_at, updated_at)
		values ($1, nullif($2, ''), nullif($3, ''), $4, $5, $6, $7, $8)`,
		cv.ID, cv.Name, cv.Description, cv.ConversationType, cv.CreatedBy,
		cv.IsActive, cv.CreatedAt, cv.UpdatedAt)
	if err != nil {
		return errs.Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		insert into participants (id, conversation_id, user_id, role, joined_at)
		values ($1, $2, $3, $4, $5)`,
		ownerParticipantID, cv.ID, cv.CreatedBy, RoleOwner, cv.CreatedAt)
	if err != nil {
		return errs.Wrap(err)
	}
	return errs.Wrap(tx.Commit(ctx))
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*Conversation, error) {
	return scanConversation(pg.Get().QueryRow(ctx,
		`select `+convCols+` from conversations where id = $1 and is_active`, id))
}

// ListForUser returns the active conversations the user currently belongs to,
// most recently active first.
func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := pg.Get().Query(ctx, `
		select `+convCols+` from conversations c
		join participants p on p.conversation_id = c.id
		where p.user_id = $1 and p.left_at is null and c.is_active
		order by coalesce(c.last_message_at, c.created_at) desc`, userID)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		cv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, errs.Wrap(rows.Err())
}

// IsParticipant reports current (not departed) membership.
func (s *ConversationStore) IsParticipant(ctx context.Context, convID, userID string) (bool, error) {
	var n int
	err := pg.Get().QueryRow(ctx, `
		select count(1) from participants
		where conversation_id = $1 and user_id = $2 and left_at is null`,
		convID, userID).Scan(&n)
	if err != nil {
		return false, errs.Wrap(err)
	}
	return n > 0, nil
}

func (s *ConversationStore) Participants(ctx context.Context, convID string) ([]*Participant, error) {
	rows, err := pg.Get().Query(ctx, `
		select id, conversation_id, user_id, role, is_muted, joined_at, left_at,
			coalesce(last_read_message_id::text, '')
		from participants
		where conversation_id = $1 and left_at is null
		order by joined_at`, convID)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsMuted,
			&p.JoinedAt, &p.LeftAt, &p.LastReadMessageID); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &p)
	}
	return out, errs.Wrap(rows.Err())
}

// AddParticipant inserts or re-activates membership. A returning member keeps
// the same row with left_at cleared.
func (s *ConversationStore) AddParticipant(ctx context.Context, p *Participant) error {
	tag, err := pg.Get().Exec(ctx, `
		update participants set left_at = null, role = $3, joined_at = $4
		where conversation_id = $1 and user_id = $2 and left_at is not null`,
		p.ConversationID, p.UserID, p.Role, p.JoinedAt)
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	_, err = pg.Get().Exec(ctx, `
		insert into participants (id, conversation_id, user_id, role, joined_at)
		values ($1, $2, $3, $4, $5)
		on conflict (conversation_id, user_id) do nothing`,
		p.ID, p.ConversationID, p.UserID, p.Role, p.JoinedAt)
	return errs.Wrap(err)
}

// RemoveParticipant stamps left_at; history stays.
func (s *ConversationStore) RemoveParticipant(ctx context.Context, convID, userID string) error {
	tag, err := pg.Get().Exec(ctx, `
		update participants set left_at = $3
		where conversation_id = $1 and user_id = $2 and left_at is null`,
		convID, userID, time.Now())
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// Deactivate soft-deletes the conversation.
func (s *ConversationStore) Deactivate(ctx context.Context, id string) error {
	tag, err := pg.Get().Exec(ctx,
		`update conversations set is_active = false, updated_at = $2 where id = $1 and is_active`,
		id, time.Now())
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// BumpLastMessage moves the conversation to the top of everyone's list.
func (s *ConversationStore) BumpLastMessage(ctx context.Context, id string, at time.Time) error {
	_, err := pg.Get().Exec(ctx,
		`update conversations set last_message_at = $2, updated_at = $2 where id = $1`, id, at)
	return errs.Wrap(err)
}

// SetReadCursor records the latest message the user has read.
func (s *ConversationStore) SetReadCursor(ctx context.Context, convID, userID, messageID string) error {
	tag, err := pg.Get().Exec(ctx, `
		update participants set last_read_message_id = $3
		where conversation_id = $1 and user_id = $2 and left_at is null`,
		convID, userID, messageID)
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}
