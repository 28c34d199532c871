package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// ProgressHandler streams progress updates to clients over Server-Sent
// Events.
type ProgressHandler struct {
	*APIHandler
}

// NewProgressHandler creates a new ProgressHandler instance
func NewProgressHandler(api *APIHandler) *ProgressHandler {
	return &ProgressHandler{APIHandler: api}
}

// StreamProgress subscribes the client to the progress stream for the given
// fingerprint (or the shared default stream when none is given) and pushes
// one SSE event per broadcast. There is no replay: a late subscriber only
// sees updates from the moment it connected.
func (h *ProgressHandler) StreamProgress(c *fiber.Ctx) error {
	tracker := h.progress.Get(c.Params("fingerprint"))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		id, updates := tracker.Subscribe()
		defer tracker.Unsubscribe(id)

		for update := range updates {
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			// Flush failure means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}
