package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tallpine/shopcore"
)

// User is an account row. Password hashing and verification are external
// collaborators; the store only moves the hash around.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Admin        bool
}

// ErrUserNotFound marks a lookup for an absent account.
var ErrUserNotFound = fmt.Errorf("%w: user not found", shopcore.ErrNotFound)

// FindUserByUsername loads one account by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver,
		`SELECT id, username, password_hash, is_admin FROM users WHERE username = ?`), username)
	return scanUser(row)
}

// FindUserByID loads one account by id.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver,
		`SELECT id, username, password_hash, is_admin FROM users WHERE id = ?`), id)
	return scanUser(row)
}

// CreateUser inserts an account with an explicit id.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, rebind(s.driver,
		`INSERT INTO users (id, username, password_hash, is_admin) VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.PasswordHash, u.Admin)
	if err != nil {
		return fmt.Errorf("%w: create user: %v", shopcore.ErrInternal, err)
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", shopcore.ErrInternal, err)
	}
	return &u, nil
}
