package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/types"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	*APIHandler
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(api *APIHandler) *UserHandler {
	return &UserHandler{APIHandler: api}
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var params types.CreateUserParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgInvalidReqBody,
		})
	}

	if err := params.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	role := models.UserRoleUser
	if params.Role != "" {
		// Validate already checked the role string.
		role, _ = models.ParseUserRole(params.Role)
	}

	user := &models.User{
		Username: params.Username,
		Email:    params.Email,
		Role:     role,
	}

	id, err := h.users.CreateUser(c.Context(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgCreateUserFailed,
		})
	}

	return c.JSON(types.CreateUserResponse{UserID: id})
}

// GetUserByID retrieves a user by their ID
func (h *UserHandler) GetUserByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgInvalidUserID,
		})
	}

	user, err := h.users.GetUserByID(c.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrMsgUserNotFound,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgGetUserFailed,
		})
	}

	return c.JSON(user)
}

// GetUsers retrieves all users or a single user by username
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	if username := c.Query("username"); username != "" {
		user, err := h.users.GetUserByUsername(c.Context(), username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrMsgUserNotFound,
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": ErrMsgGetUserFailed,
			})
		}
		return c.JSON(types.UserListResponse{Users: []models.User{*user}})
	}

	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultLimit),
		Offset: c.QueryInt("offset", 0),
	}

	users, err := h.users.GetAllUsers(c.Context(), opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgGetUsersFailed,
		})
	}

	return c.JSON(types.UserListResponse{
		Users: users,
		Pagination: &types.PaginationResponse{
			Total:  len(users),
			Offset: opts.Offset,
		},
	})
}

// DeleteUser deletes a user by their ID
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgInvalidUserID,
		})
	}

	if err := h.users.DeleteUser(c.Context(), uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgDeleteUserFailed,
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
