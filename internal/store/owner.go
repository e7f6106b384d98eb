package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"grab-a-time/internal/model"
)

func (s *Store) CreateOwner(ctx context.Context, o *model.Owner) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO owners (id, email, password_hash, name) VALUES ($1,$2,$3,$4)`,
		o.ID, o.Email, o.PasswordHash, o.Name,
	)
	if isUniqueViolation(err, "owners_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) OwnerByEmail(ctx context.Context, email string) (*model.Owner, error) {
	return s.owner(ctx, `SELECT id, email, password_hash, name, created_at, updated_at
		 FROM owners WHERE email = $1`, email)
}

func (s *Store) OwnerByID(ctx context.Context, id string) (*model.Owner, error) {
	return s.owner(ctx, `SELECT id, email, password_hash, name, created_at, updated_at
		 FROM owners WHERE id = $1`, id)
}

func (s *Store) owner(ctx context.Context, q string, arg string) (*model.Owner, error) {
	o := &model.Owner{}
	err := s.pool.QueryRow(ctx, q, arg).
		Scan(&o.ID, &o.Email, &o.PasswordHash, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
