package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/unclebandit/newsletter-backend/internal/model"
)

// UserRepository backs the users table. Only the seeder writes to it.
type UserRepository struct {
	DB DBTX
}

// EnsureUser creates username with a bcrypt-hashed password unless the
// username already exists. It reports whether a row was inserted.
func (r *UserRepository) EnsureUser(ctx context.Context, u *model.User, plainPassword string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	u.Password = string(hash)

	query := `
		INSERT INTO users (username, password, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query, u.Username, u.Password, u.Role).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
