package repository

import (
	"context"

	"paperapi/internal/model"
)

// UserRepository persists the actors that may upload papers.
type UserRepository interface {
	// Upsert inserts the user or refreshes the profile of the row with the same email.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id string) (*model.User, error)
}
