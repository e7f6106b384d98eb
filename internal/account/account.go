// Package account registers and signs in meeting owners.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"grab-a-time/internal/auth"
	"grab-a-time/internal/model"
	"grab-a-time/internal/store"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrBadCredentials = errors.New("invalid credentials")
)

const minPasswordLen = 8

type Repository interface {
	CreateOwner(ctx context.Context, o *model.Owner) error
	OwnerByEmail(ctx context.Context, email string) (*model.Owner, error)
	OwnerByID(ctx context.Context, id string) (*model.Owner, error)
	CreateRefreshToken(ctx context.Context, id, ownerID, tokenHash string, expiresAt time.Time) error
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, ownerID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, ownerID string) error
}

// Session is what a successful sign-in hands back.
type Session struct {
	Owner        *model.Owner
	AccessToken  string
	RefreshToken string
	RefreshUntil time.Time
}

type Service struct {
	repo     Repository
	secret   string
	log      *zap.Logger
	validate *validator.Validate
}

func New(repo Repository, secret string, log *zap.Logger) *Service {
	return &Service{repo: repo, secret: secret, log: log, validate: validator.New()}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: email, password and name required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	o := &model.Owner{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
	}
	if err := s.repo.CreateOwner(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("owner registered", zap.String("owner", o.ID))
	return s.session(ctx, o)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	o, err := s.repo.OwnerByEmail(ctx, email)
	if errors.Is(err, store.ErrOwnerNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(o.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return s.session(ctx, o)
}

// Refresh trades a refresh token for a new session. Presenting a token that
// was already rotated revokes every token of its owner.
func (s *Service) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrBadCredentials
	}
	rt, err := s.repo.RefreshTokenByHash(ctx, auth.HashRefreshToken(raw))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if rt.Revoked {
		s.log.Warn("refresh token reuse, revoking all", zap.String("owner", rt.OwnerID))
		if err := s.repo.RevokeAllRefreshTokens(ctx, rt.OwnerID); err != nil {
			return nil, err
		}
		return nil, ErrBadCredentials
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, ErrBadCredentials
	}

	o, err := s.repo.OwnerByID(ctx, rt.OwnerID)
	if err != nil {
		return nil, err
	}
	newRaw, newHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().Add(auth.RefreshTTL)
	if err := s.repo.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), o.ID, newHash, expiry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// lost a race with another rotation of the same token
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	access, err := auth.MakeToken(o.ID, s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Owner: o, AccessToken: access, RefreshToken: newRaw, RefreshUntil: expiry}, nil
}

func (s *Service) Logout(ctx context.Context, ownerID string) error {
	return s.repo.RevokeAllRefreshTokens(ctx, ownerID)
}

func (s *Service) session(ctx context.Context, o *model.Owner) (*Session, error) {
	access, err := auth.MakeToken(o.ID, s.secret)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().Add(auth.RefreshTTL)
	if err := s.repo.CreateRefreshToken(ctx, uuid.New().String(), o.ID, hash, expiry); err != nil {
		return nil, err
	}
	return &Session{Owner: o, AccessToken: access, RefreshToken: raw, RefreshUntil: expiry}, nil
}
