package db

import (
	"context"

	"github.com/google/uuid"

	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
)

const userColumns = `id::text, username, password_hash, created_at`

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	id := uuid.NewString()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		id, u.Username, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	u.ID = id
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*user.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *Store) scanUser(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := checkID(id); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
