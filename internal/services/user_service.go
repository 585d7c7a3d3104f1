package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tourbook/tourbook/internal/models"
)

// UserService handles profile self-service and admin user management.
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userModelToResponse(user), nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userModelToResponse(user))
	}
	return responses, nil
}

// UpdateProfile changes the caller's own name/email. Empty fields keep
// their current values; password changes go through UpdatePassword.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, email string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name == "" {
		name = user.Name
	}
	if email = normalizeEmail(email); email == "" {
		email = user.Email
	}

	updated, err := s.repo.UpdateProfile(ctx, id, name, email, user.Photo)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrEmailTaken
		}
		s.logger.Error("failed to update profile",
			slog.String("user_id", id),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(updated), nil
}

// Deactivate soft-deletes the caller's account.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deactivated", slog.String("user_id", id))
	return nil
}

// UpdateRole is admin-only; the role must come from the closed set.
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (*UserResponse, error) {
	valid := false
	for _, r := range models.ValidRoles {
		if role == r {
			valid = true
			break
		}
	}
	if !valid {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role updated",
		slog.String("user_id", id),
		slog.String("role", role))
	return userModelToResponse(user), nil
}

// Delete removes a user row outright. Admin escape hatch; self-service
// removal is Deactivate.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("user_id", id))
	return nil
}
