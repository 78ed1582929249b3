package services

import (
	"context"

	"github.com/inkwell-app/apiserver/types"
)

// AdminService covers moderation use-cases. Route-level middleware
// restricts callers to admins, so methods here do not re-check the actor.
type AdminService struct {
	users UserRepository
}

func NewAdminService(users UserRepository) *AdminService {
	return &AdminService{users: users}
}

// RegisterAdmin inserts a new account with the admin role.
func (s *AdminService) RegisterAdmin(ctx context.Context, user types.User) (types.User, error) {
	user.Role = types.RoleAdmin
	return s.users.Create(ctx, user)
}

// ListUsers returns every registered account.
func (s *AdminService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.users.List(ctx)
}

// GetUser returns a single account.
func (s *AdminService) GetUser(ctx context.Context, id int) (types.User, error) {
	return s.users.GetByID(ctx, id)
}

// ModifyRole changes an account's role.
func (s *AdminService) ModifyRole(ctx context.Context, userID int, role string) (types.User, error) {
	if role != types.RoleUser && role != types.RoleAdmin {
		return types.User{}, ErrInvalidProperty
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	user.Role = role
	return s.users.Update(ctx, user)
}

// DeleteUser removes an account and, via cascade, its content.
func (s *AdminService) DeleteUser(ctx context.Context, userID int) (types.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return types.User{}, err
	}
	return user, nil
}
