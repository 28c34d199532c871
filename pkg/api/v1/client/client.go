// Package client provides a typed HTTP client for the mapgen API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/types"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to the mapgen HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// SubmitRequest submits a map generation request.
func (c *Client) SubmitRequest(ctx context.Context, params types.MapRequestParams) (*types.SubmitResponse, error) {
	var resp types.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/requests", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRequest fetches a request by fingerprint.
func (c *Client) GetRequest(ctx context.Context, fingerprint string) (*models.MapRequest, error) {
	var req models.MapRequest
	if err := c.do(ctx, http.MethodGet, "/api/v1/requests/"+url.PathEscape(fingerprint), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequests lists requests, optionally filtered by status.
func (c *Client) ListRequests(ctx context.Context, status string) ([]models.MapRequest, error) {
	path := "/api/v1/requests"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp struct {
		Requests []models.MapRequest `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// ListFiles lists the artifacts generated for a fingerprint.
func (c *Client) ListFiles(ctx context.Context, fingerprint string) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/files/"+url.PathEscape(fingerprint), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, params types.CreateUserParams) (*types.CreateUserResponse, error) {
	var resp types.CreateUserResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/users", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUsers lists users.
func (c *Client) GetUsers(ctx context.Context) (*types.UserListResponse, error) {
	var resp types.UserListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
