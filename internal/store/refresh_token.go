package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type RefreshToken struct {
	ID         string
	OwnerID    string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

func (s *Store) CreateRefreshToken(ctx context.Context, id, ownerID, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, owner_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
		id, ownerID, tokenHash, expiresAt,
	)
	return err
}

func (s *Store) RefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	rt := &RefreshToken{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, token_hash, expires_at, revoked, replaced_by, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&rt.ID, &rt.OwnerID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedBy, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// RotateRefreshToken revokes oldID and stores its replacement in one tx.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, ownerID, newHash string, newExpiry time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// only an unrevoked token can be rotated; a concurrent rotation loses
	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true, replaced_by = $1 WHERE id = $2 AND revoked = false`,
		newID, oldID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, owner_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
		newID, ownerID, newHash, newExpiry,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RevokeAllRefreshTokens is used on logout and on refresh token reuse.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, ownerID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE owner_id = $1 AND revoked = false`,
		ownerID,
	)
	return err
}
