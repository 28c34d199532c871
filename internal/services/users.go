package services

import (
	"context"
	"errors"

	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/db/repos"
)

// User service errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserCreateFailed = errors.New("failed to create user")
)

// Users provides business logic for user operations
type Users struct {
	repo *repos.UserRepository
}

// NewUsersService creates a new user service instance
func NewUsersService(repo *repos.UserRepository) *Users {
	return &Users{repo: repo}
}

// CreateUser creates a new user
func (s *Users) CreateUser(ctx context.Context, user *models.User) (uint, error) {
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return 0, errors.Join(ErrUserCreateFailed, err)
	}
	return user.ID, nil
}

// GetUserByUsername retrieves a user by username
func (s *Users) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.Join(ErrUserNotFound, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id
func (s *Users) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrUserNotFound, err)
	}
	return user, nil
}

// GetAllUsers retrieves all users
func (s *Users) GetAllUsers(ctx context.Context, opts *models.ListOptions) ([]models.User, error) {
	return s.repo.GetUsers(ctx, opts)
}

// DeleteUser deletes a user
func (s *Users) DeleteUser(ctx context.Context, userID uint) error {
	return s.repo.DeleteUser(ctx, userID)
}
