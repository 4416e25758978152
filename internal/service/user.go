package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/repository"
)

// ErrUserNotFound is returned when a session refers to a missing user.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the persistence used for users.
type UserStore interface {
	UpsertUserByProviderUID(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error)
}

// Profile is the identity returned by the OAuth provider.
type Profile struct {
	ProviderUID string
	Name        string
	Email       string
	Picture     string
}

// UserService manages signed-in users.
type UserService struct {
	store UserStore
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// SignIn returns the user for profile, creating it on first sign-in.
func (s *UserService) SignIn(ctx context.Context, profile Profile) (*model.User, error) {
	if profile.ProviderUID == "" {
		return nil, errors.New("profile has no provider uid")
	}

	user, err := s.store.UpsertUserByProviderUID(ctx, &model.User{
		ID:             ulid.Make().String(),
		ProviderUID:    profile.ProviderUID,
		Name:           profile.Name,
		Email:          profile.Email,
		ProfilePicture: profile.Picture,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListReviews returns the reviews a user submitted.
func (s *UserService) ListReviews(ctx context.Context, userID string) ([]*model.Review, error) {
	reviews, err := s.store.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	return reviews, nil
}
