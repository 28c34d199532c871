package models

import (
	"time"

	"gorm.io/gorm"
)

// ArtifactTTL is the sliding expiry window for a generated file set. The
// expiry is refreshed on every completion and every cache hit. Expiry is
// advisory: nothing in this service deletes expired sets.
const ArtifactTTL = 7 * 24 * time.Hour

// GeneratedFileSet represents the set of artifacts produced for a single
// fingerprint. The file list preserves object store listing order.
type GeneratedFileSet struct {
	gorm.Model
	Fingerprint string        `json:"fingerprint" gorm:"not null;uniqueIndex"`
	Files       []string      `json:"files" gorm:"type:jsonb;serializer:json"`
	Status      RequestStatus `json:"status" gorm:"index"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// Touch refreshes the expiry window from now.
func (g *GeneratedFileSet) Touch(now time.Time) {
	g.ExpiresAt = now.Add(ArtifactTTL)
}
