package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/services"
	"github.com/climateview/mapgen/internal/types"
)

// RequestHandler handles HTTP requests for map generation requests
type RequestHandler struct {
	*APIHandler
}

// NewRequestHandler creates a new RequestHandler instance
func NewRequestHandler(api *APIHandler) *RequestHandler {
	return &RequestHandler{APIHandler: api}
}

// SubmitRequest accepts a map generation request. A cache hit answers
// immediately with the stored artifact listing; otherwise the request is
// accepted for asynchronous processing and only the fingerprint is returned.
func (h *RequestHandler) SubmitRequest(c *fiber.Ctx) error {
	var params types.MapRequestParams
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

	var ownerID *uint
	if raw := c.Query("owner_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ErrMsgInvalidUserID,
			})
		}
		uid := uint(id)
		ownerID = &uid
	}

	outcome, err := h.requests.Submit(c.Context(), params, ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgRequestSubmitFailed,
		})
	}

	if outcome.CacheHit {
		return c.JSON(types.SubmitResponse{
			Fingerprint: outcome.Request.Fingerprint,
			Status:      outcome.Request.Status.String(),
			Message:     "result served from cache",
			CacheHit:    true,
			Files:       outcome.Files,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(types.SubmitResponse{
		Fingerprint: outcome.Request.Fingerprint,
		Status:      outcome.Request.Status.String(),
		Message:     "accepted for processing",
	})
}

// GetRequest returns a request by its fingerprint
func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	fingerprint := c.Params("fingerprint")

	request, err := h.requests.GetByFingerprint(c.Context(), fingerprint)
	if errors.Is(err, services.ErrRequestNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrMsgRequestNotFound,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgRequestGetFailed,
		})
	}

	return c.JSON(request)
}

// ListRequests returns a page of requests, optionally filtered by status
func (h *RequestHandler) ListRequests(c *fiber.Ctx) error {
	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultLimit),
		Offset: c.QueryInt("offset", 0),
	}

	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseRequestStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		status = &parsed
	}

	requests, err := h.requests.List(c.Context(), status, opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgRequestListFailed,
		})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}
