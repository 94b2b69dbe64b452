package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jaekwang-park/task-sync/internal/model"
	"github.com/jaekwang-park/task-sync/internal/repository"
)

// ProfileService reads and writes the per-user profile side record.
// Write-then-read only; profiles have no live subscription.
type ProfileService struct {
	users repository.UserRepository
}

func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

type SaveProfileInput struct {
	Name string
	Age  *int
}

func (s *ProfileService) Save(ctx context.Context, userID string, input SaveProfileInput) (model.User, error) {
	if userID == "" {
		return model.User{}, fmt.Errorf("%w: sign in to edit your profile", ErrNotAuthenticated)
	}
	if strings.TrimSpace(input.Name) == "" {
		return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Age != nil && (*input.Age < 0 || *input.Age > 150) {
		return model.User{}, fmt.Errorf("%w: age out of range", ErrInvalidInput)
	}

	saved, err := s.users.SaveProfile(ctx, model.User{
		ID:   userID,
		Name: input.Name,
		Age:  input.Age,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The user row is created at sign-in; its absence means the
			// session is no longer valid.
			return model.User{}, fmt.Errorf("%w: unknown user %s", ErrNotAuthenticated, userID)
		}
		return model.User{}, fmt.Errorf("failed to save profile: %w", err)
	}
	return saved, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, fmt.Errorf("%w: sign in to view your profile", ErrNotAuthenticated)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}
