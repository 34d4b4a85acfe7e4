package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paperapi/internal/apperr"
	"paperapi/internal/model"
	"paperapi/internal/repository"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, created_at, updated_at`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                     model.User
		first, last, imageURL sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &first, &last, &imageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FirstName = fromNull(first)
	u.LastName = fromNull(last)
	u.ProfileImageURL = fromNull(imageURL)
	return &u, nil
}

// Upsert inserts u, or refreshes the profile of the existing row with the same email.
// The stored ID is kept on conflict.
func (r *UserPostgres) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Email == "" {
		return nil, apperr.Required("email")
	}
	const q = `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name = COALESCE(EXCLUDED.last_name, users.last_name),
			profile_image_url = COALESCE(EXCLUDED.profile_image_url, users.profile_image_url),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Email,
		toNull(u.FirstName),
		toNull(u.LastName),
		toNull(u.ProfileImageURL),
		u.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return out, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
