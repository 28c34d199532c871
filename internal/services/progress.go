package services

import (
	"context"
	"encoding/json"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/logger"
	"github.com/climateview/mapgen/internal/progress"
)

// progressContent is the content of a progress event. The fingerprint is
// optional on the wire; events without one land on the shared default stream.
type progressContent struct {
	RequestHash string `json:"requestHash,omitempty"`
	Increment   int    `json:"increment"`
	Message     string `json:"message"`
}

// Progress consumes incremental progress events from the broker and feeds
// them into the per-stream trackers.
type Progress struct {
	registry *progress.Registry
}

// NewProgressService creates a new progress consumer service.
func NewProgressService(registry *progress.Registry) *Progress {
	return &Progress{registry: registry}
}

// HandleProgress applies one progress event. Malformed or out-of-range
// events are dropped; the tracker logs the rejection.
func (s *Progress) HandleProgress(_ context.Context, env broker.Envelope) error {
	var content progressContent
	if len(env.Content) == 0 || json.Unmarshal(env.Content, &content) != nil {
		logger.Warn("Dropping structurally invalid progress event")
		return nil
	}

	s.registry.Get(content.RequestHash).Apply(content.Increment, content.Message)
	return nil
}
