package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hostelreview/hostelreview/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// UpsertUserByProviderUID returns the user with user.ProviderUID, creating it
// from user when absent. Profile fields are refreshed on every sign-in.
func (r *Repository) UpsertUserByProviderUID(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (id, provider_uid, name, email, profile_picture, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_uid) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    profile_picture = EXCLUDED.profile_picture
		RETURNING id, provider_uid, name, email, profile_picture, created_at
	`

	var u model.User
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.ProviderUID,
		user.Name,
		user.Email,
		user.ProfilePicture,
		user.CreatedAt,
	).Scan(&u.ID, &u.ProviderUID, &u.Name, &u.Email, &u.ProfilePicture, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &u, nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, provider_uid, name, email, profile_picture, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.ProviderUID,
		&user.Name,
		&user.Email,
		&user.ProfilePicture,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}
