package model

import (
	"context"
	"strings"
	"time"

	"PulseChat/data/pg"
	"PulseChat/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Store is the pgx-backed user repository.
type Store struct{}

func NewStore() *Store { return &Store{} }

const userCols = `id, username, email, hashed_password,
	coalesce(display_name, ''), coalesce(avatar_url, ''),
	is_active, is_verified, created_at, updated_at, last_seen`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword,
		&u.DisplayName, &u.AvatarURL,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordMissing.Wrap()
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &u, nil
}

// Create inserts the user. Username and email are unique; a conflict surfaces
// as ErrRecordExists.
func (s *Store) Create(ctx context.Context, u *User) error {
	_, err := pg.Get().Exec(ctx, `
		insert into users (id, username, email, hashed_password, display_name, avatar_url,
			is_active, is_verified, created_at, updated_at)
		values ($1, $2, $3, $4, nullif($5, ''), nullif($6, ''), $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.HashedPassword, u.DisplayName, u.AvatarURL,
		u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errs.ErrRecordExists.WrapMsg("username or email taken")
		}
		return errs.Wrap(err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(pg.Get().QueryRow(ctx,
		`select `+userCols+` from users where id = $1 and is_active`, id))
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(pg.Get().QueryRow(ctx,
		`select `+userCols+` from users where username = $1 and is_active`, username))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(pg.Get().QueryRow(ctx,
		`select `+userCols+` from users where email = $1 and is_active`, email))
}

// GetForLogin looks up by username or email, active or not; the service layer
// decides how to report a deactivated account.
func (s *Store) GetForLogin(ctx context.Context, usernameOrEmail string) (*User, error) {
	return scanUser(pg.Get().QueryRow(ctx,
		`select `+userCols+` from users where username = $1 or email = $1`, usernameOrEmail))
}

// Search matches username or display name, case-insensitive, active users only.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := pg.Get().Query(ctx, `
		select `+userCols+` from users
		where is_active and (username ilike $1 or display_name ilike $1)
		order by username limit $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, errs.Wrap(rows.Err())
}

// Update rewrites the mutable profile fields.
func (s *Store) Update(ctx context.Context, u *User) error {
	tag, err := pg.Get().Exec(ctx, `
		update users set display_name = nullif($2, ''), avatar_url = nullif($3, ''),
			updated_at = $4
		where id = $1 and is_active`,
		u.ID, u.DisplayName, u.AvatarURL, time.Now())
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// Deactivate soft-deletes the account.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := pg.Get().Exec(ctx,
		`update users set is_active = false, updated_at = $2 where id = $1 and is_active`,
		id, time.Now())
	if err != nil {
		return errs.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordMissing.Wrap()
	}
	return nil
}

// TouchLastSeen records activity; failures are the caller's to ignore.
func (s *Store) TouchLastSeen(ctx context.Context, id string) error {
	_, err := pg.Get().Exec(ctx,
		`update users set last_seen = $2 where id = $1`, id, time.Now())
	return errs.Wrap(err)
}
