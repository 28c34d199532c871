package types

import (
	"fmt"
	"net/mail"

	"github.com/climateview/mapgen/internal/db/models"
)

// CreateUserParams is the payload for creating a user.
type CreateUserParams struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Validate checks the user creation parameters.
func (p *CreateUserParams) Validate() error {
	if p == nil || p.Username == "" {
		return fmt.Errorf("username is required")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("invalid email format")
		}
	}
	if p.Role != "" {
		if _, err := models.ParseUserRole(p.Role); err != nil {
			return err
		}
	}
	return nil
}

// CreateUserResponse is returned after creating a user.
type CreateUserResponse struct {
	UserID uint `json:"user_id"`
}

// UserListResponse is returned when listing users.
type UserListResponse struct {
	Users      []models.User       `json:"users"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}
