// Package handlers provides HTTP request handling
package handlers

import (
	"github.com/climateview/mapgen/internal/progress"
	"github.com/climateview/mapgen/internal/services"
	"github.com/climateview/mapgen/internal/storage"
)

// APIHandler bundles the services the HTTP layer depends on.
type APIHandler struct {
	requests *services.Requests
	users    *services.Users
	store    storage.Gateway
	progress *progress.Registry
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(requests *services.Requests, users *services.Users, store storage.Gateway, registry *progress.Registry) *APIHandler {
	return &APIHandler{
		requests: requests,
		users:    users,
		store:    store,
		progress: registry,
	}
}

// Common error messages
const (
	ErrMsgInvalidReqBody = "Invalid request body"
	ErrMsgInvalidParams  = "Invalid parameters"
)

// Request error messages
const (
	ErrMsgRequestNotFound     = "Request not found"
	ErrMsgRequestSubmitFailed = "Failed to submit request"
	ErrMsgRequestListFailed   = "Failed to list requests"
	ErrMsgRequestGetFailed    = "Failed to get request"
)

// File error messages
const (
	ErrMsgFileNotFound   = "File not found"
	ErrMsgFileListFailed = "Failed to list files"
	ErrMsgFileGetFailed  = "Failed to get file"
)

// User error messages
const (
	ErrMsgInvalidUserID    = "Invalid user id"
	ErrMsgUserNotFound     = "User not found"
	ErrMsgGetUsersFailed   = "Failed to get users"
	ErrMsgGetUserFailed    = "Failed to get user"
	ErrMsgCreateUserFailed = "Failed to create user"
	ErrMsgDeleteUserFailed = "Failed to delete user"
)
