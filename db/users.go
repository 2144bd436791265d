package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"diabetesrisk/auth"
	"github.com/mattn/go-sqlite3"
)

const usersSchema = `
    CREATE TABLE IF NOT EXISTS users (
        email TEXT PRIMARY KEY,
        username TEXT NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

// UserStore is a durable auth.UserStore backed by the users table.
type UserStore struct {
	db *sql.DB
}

// Users creates the users table if absent and returns a store over it.
func (s *Store) Users(ctx context.Context) (*UserStore, error) {
	if _, err := s.db.ExecContext(ctx, usersSchema); err != nil {
		return nil, fmt.Errorf("init users schema: %w", err)
	}
	return &UserStore{db: s.db}, nil
}

func (u *UserStore) Get(ctx context.Context, email string) (auth.User, error) {
	var user auth.User
	err := u.db.QueryRowContext(ctx, `
        SELECT email, username, password_hash, created_at
        FROM users
        WHERE email = ?`, auth.NormalizeEmail(email)).
		Scan(&user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (u *UserStore) Create(ctx context.Context, user auth.User) error {
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (email, username, password_hash, created_at)
        VALUES (?, ?, ?, ?)`,
		auth.NormalizeEmail(user.Email), user.Username, user.PasswordHash, user.CreatedAt.UTC())
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return auth.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
