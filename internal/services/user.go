package services

import (
	"context"

	"github.com/inkwell-app/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates account use-cases. Password hashing and token
// issuance live at the transport layer; the service works with hashes.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register inserts a new account. A duplicate email surfaces as a
// conflict.
func (s *UserService) Register(ctx context.Context, user types.User) (types.User, error) {
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	return s.repo.Create(ctx, user)
}

// GetByID returns a single account.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the account registered under the given email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// UpdateUsername changes the account's display name. Self or admin.
func (s *UserService) UpdateUsername(ctx context.Context, actor types.User, userID int, username string) (types.User, error) {
	return s.patch(ctx, actor, userID, func(u *types.User) {
		u.Username = username
	})
}

// UpdateEmail changes the account's email. Self or admin; a duplicate
// email surfaces as a conflict.
func (s *UserService) UpdateEmail(ctx context.Context, actor types.User, userID int, email string) (types.User, error) {
	return s.patch(ctx, actor, userID, func(u *types.User) {
		u.Email = email
	})
}

// UpdatePassword replaces the stored password hash. Self or admin.
func (s *UserService) UpdatePassword(ctx context.Context, actor types.User, userID int, passwordHash string) (types.User, error) {
	return s.patch(ctx, actor, userID, func(u *types.User) {
		u.PasswordHash = passwordHash
	})
}

// Archive soft-disables the account without touching its content.
func (s *UserService) Archive(ctx context.Context, actor types.User, userID int) (types.User, error) {
	return s.patch(ctx, actor, userID, func(u *types.User) {
		u.Archived = true
	})
}

// Delete removes the account. Owned content is removed by cascade.
func (s *UserService) Delete(ctx context.Context, actor types.User, userID int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	if !CanDelete(actor, userID) {
		return types.User{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) patch(ctx context.Context, actor types.User, userID int, apply func(*types.User)) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return types.User{}, ErrForbidden
	}
	apply(&user)
	return s.repo.Update(ctx, user)
}
