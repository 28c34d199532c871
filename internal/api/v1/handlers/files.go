package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/climateview/mapgen/internal/storage"
)

// FileHandler handles HTTP requests for generated artifacts
type FileHandler struct {
	*APIHandler
}

// NewFileHandler creates a new FileHandler instance
func NewFileHandler(api *APIHandler) *FileHandler {
	return &FileHandler{APIHandler: api}
}

// ListFiles returns the artifact listing for a fingerprint
func (h *FileHandler) ListFiles(c *fiber.Ctx) error {
	fingerprint := c.Params("fingerprint")

	files, err := h.store.ListFiles(c.Context(), fingerprint)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgFileListFailed,
		})
	}

	return c.JSON(fiber.Map{
		"fingerprint": fingerprint,
		"files":       files,
	})
}

// ProxyFile streams a single artifact to the client. Clients never see a
// direct object store URL; every download goes through this endpoint.
func (h *FileHandler) ProxyFile(c *fiber.Ctx) error {
	fingerprint := c.Params("fingerprint")
	filename := c.Params("filename")

	reader, meta, err := h.store.GetFile(c.Context(), fingerprint, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrMsgFileNotFound,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgFileGetFailed,
		})
	}

	if meta.ContentType != "" {
		c.Set(fiber.HeaderContentType, meta.ContentType)
	}
	return c.SendStream(reader, int(meta.Size))
}
