package model

import (
	"context"
	"time"

	"PulseChat/data/pg"
	"PulseChat/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// MessageStore is the pgx-backed message/reaction/attachment repository.
type MessageStore struct{}

func NewMessageStore() *MessageStore { return &MessageStore{} }

const msgCols = `id, conversation_id, sender_id, content, message_type,
	coalesce(reply_to_message_id::text, ''), is_deleted, created_at, updated_at, edited_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.MessageType,
		&m.ReplyToMessageID, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt, &m.EditedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordMissing.Wrap()
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &m, nil
}

func (s *MessageStore) Create(ctx context.Context, m *Message) error {
	_, err := pg.Get().Exec(ctx, `
		insert into messages (id, conversation_id, sender_id, content, message_type,
			reply_to_message_id, is_deleted, created_at, updated_at)
		values ($1, $2, $3, $4, $5, nullif($6, ''), $7, $8, $9)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.MessageType,
		m.ReplyToMessageID, m.IsDeleted, m.CreatedAt, m.UpdatedAt)
	return errs.Wrap(err)
}

func (s *MessageStore) Get(ctx context.Context, id string) (*Message, error) {
	return scanMessage(pg.Get().QueryRow(ctx,
		`select `+msgCols+` from messages where id = $1`, id))
}

// ListByConversation pages newest-first; soft-deleted messages are excluded.
func (s *MessageStore) ListByConversation(ctx context.Context, convID string, skip, limit int) ([]*Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	rows, err := pg.Get().Query(ctx, `
		select `+msgCols+` from messages
		where conversation_id = $1 and not is_deleted
		order by created_at desc offset $2 limit $3`,
		convID, skip, limit)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, errs.Wrap(rows.Err())
}

// UpdateContent rewrites the text and stamps edited_at.
func (s *MessageStore) UpdateContent(ctx context.Context, id, content string) error {
	now := time.Now()
	tag, err := pg.Get().Exec(ctx, `
		update messages set content = $2, updated_at = $3, edited_at = $3
		where id = $1 and not is_deleted`,
		id, content, now)
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// SoftDelete keeps the row but blanks the content with a placeholder.
func (s *MessageStore) SoftDelete(ctx context.Context, id string) error {
	tag, err := pg.Get().Exec(ctx, `
		update messages set is_deleted = true, content = $2, message_type = $3, updated_at = $4
		where id = $1 and not is_deleted`,
		id, DeletedPlaceholder, MsgDeleted, time.Now())
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// UpsertReaction enforces one reaction per user per message; reacting again
// replaces the emoji.
func (s *MessageStore) UpsertReaction(ctx context.Context, r *MessageReaction) error {
	_, err := pg.Get().Exec(ctx, `
		insert into message_reactions (id, message_id, user_id, emoji, created_at)
		values ($1, $2, $3, $4, $5)
		on conflict (message_id, user_id)
		do update set emoji = excluded.emoji, created_at = excluded.created_at`,
		r.ID, r.MessageID, r.UserID, r.Emoji, r.CreatedAt)
	return errs.Wrap(err)
}

func (s *MessageStore) DeleteReaction(ctx context.Context, messageID, userID string) error {
	tag, err := pg.Get().Exec(ctx,
		`delete from message_reactions where message_id = $1 and user_id = $2`,
		messageID, userID)
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

func (s *MessageStore) Reactions(ctx context.Context, messageID string) ([]*MessageReaction, error) {
	rows, err := pg.Get().Query(ctx, `
		select id, message_id, user_id, emoji, created_at
		from message_reactions where message_id = $1 order by created_at`, messageID)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*MessageReaction
	for rows.Next() {
		var r MessageReaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &r)
	}
	return out, errs.Wrap(rows.Err())
}

func (s *MessageStore) CreateAttachment(ctx context.Context, a *FileAttachment) error {
	_, err := pg.Get().Exec(ctx, `
		insert into file_attachments (id, message_id, file_name, file_url, file_type,
			file_size, upload_status, created_at)
		values ($1, $2, $3, $4, nullif($5, ''), $6, $7, $8)`,
		a.ID, a.MessageID, a.FileName, a.FileURL, a.FileType,
		a.FileSize, a.UploadStatus, a.CreatedAt)
	return errs.Wrap(err)
}

func (s *MessageStore) Attachments(ctx context.Context, messageID string) ([]*FileAttachment, error) {
	rows, err := pg.Get().Query(ctx, `
		select id, message_id, file_name, file_url, coalesce(file_type, ''),
			file_size, upload_status, created_at
		from file_attachments where message_id = $1 order by created_at`, messageID)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*FileAttachment
	for rows.Next() {
		var a FileAttachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.FileName, &a.FileURL, &a.FileType,
			&a.FileSize, &a.UploadStatus, &a.CreatedAt); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &a)
	}
	return out, errs.Wrap(rows.Err())
}
