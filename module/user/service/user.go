package service

import (
	"context"
	"strings"
	"time"

	"PulseChat/logger"
	usermodel "PulseChat/module/user/model"
	"PulseChat/tools/errs"
	sec "PulseChat/tools/security"

	"github.com/google/uuid"
)

// UserService owns account lifecycle and token issuing.
type UserService struct {
	store *usermodel.Store
	jwt   sec.Options
}

func NewUserService(store *usermodel.Store, jwt sec.Options) *UserService {
	return &UserService{store: store, jwt: jwt}
}

type RegisterParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register creates an account. Username and email are normalized to lower
// case before the uniqueness check so "Bob" and "bob" collide.
func (s *UserService) Register(ctx context.Context, in RegisterParams) (*usermodel.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" {
		return nil, errs.ErrArgs.WrapMsg("username and email are required")
	}
	if len(in.Password) < 8 {
		return nil, errs.ErrArgs.WrapMsg("password must be at least 8 characters")
	}

	hash, err := sec.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	now := time.Now()
	u := &usermodel.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates by username or email and returns a token pair.
// Deactivated accounts fail the same way as a wrong password.
func (s *UserService) Login(ctx context.Context, usernameOrEmail, password string) (*usermodel.User, *TokenPair, error) {
	u, err := s.store.GetForLogin(ctx, strings.ToLower(strings.TrimSpace(usernameOrEmail)))
	if err != nil {
		return nil, nil, errs.ErrUnauthorized.WrapMsg("bad credentials")
	}
	if !u.IsActive || !sec.CheckPassword(u.HashedPassword, password) {
		return nil, nil, errs.ErrUnauthorized.WrapMsg("bad credentials")
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.TouchLastSeen(ctx, u.ID); err != nil {
		logger.Warnf("touch last_seen user=%s: %v", u.ID, err)
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := sec.Verify(s.jwt, refreshToken, sec.TokenRefresh)
	if err != nil {
		return nil, errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	if _, err := s.store.GetByID(ctx, claims.UserID()); err != nil {
		return nil, errs.ErrUnauthorized.WrapMsg("account unavailable")
	}
	return s.issuePair(claims.UserID())
}

func (s *UserService) issuePair(userID string) (*TokenPair, error) {
	access, refresh, err := sec.GeneratePair(s.jwt, userID)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// VerifyAccess backs the websocket entrypoint's TokenVerifier.
func (s *UserService) VerifyAccess(token string) (string, error) {
	claims, err := sec.Verify(s.jwt, token, sec.TokenAccess)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

func (s *UserService) Get(ctx context.Context, id string) (*usermodel.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, name string) (*usermodel.User, error) {
	return s.store.GetByUsername(ctx, name)
}

func (s *UserService) Search(ctx context.Context, query string, limit int) ([]*usermodel.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.ErrArgs.WrapMsg("query is required")
	}
	return s.store.Search(ctx, query, limit)
}

type UpdateParams struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateParams) (*usermodel.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.DisplayName = strings.TrimSpace(in.DisplayName)
	u.AvatarURL = strings.TrimSpace(in.AvatarURL)
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *UserService) Deactivate(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}
