package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// IdentityService is the boundary for authentication, role resolution and
// location membership. Nothing below this boundary re-derives roles.
type IdentityService struct {
	users *repository.UserRepository
}

func NewIdentityService(users *repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Authenticate resolves a bearer token to its user.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// ResolveRole returns the single role name for a user.
func (s *IdentityService) ResolveRole(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return user.Role, nil
}

// CanAccessList reports whether the user may mutate tasks on the list:
// superadmins always, users whose role matches the list's role binding, and
// members of the list's location.
func (s *IdentityService) CanAccessList(ctx context.Context, user *model.User, list *model.TaskList) (bool, error) {
	if user.IsSuperadmin() {
		return true, nil
	}
	if list.Role != "" && user.Role == list.Role {
		return true, nil
	}
	return s.users.MemberOf(ctx, user.ID, list.LocationID)
}

// IssueToken creates a session for the user and returns its bearer token.
func (s *IdentityService) IssueToken(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	if err := s.users.CreateSession(ctx, &model.Session{Token: token, UserID: userID}); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// User loads a user by id, mapping a missing row to ErrNotFound.
func (s *IdentityService) User(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
