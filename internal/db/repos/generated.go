package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/climateview/mapgen/internal/db/models"
)

// GeneratedRepository provides access to generated file set database operations
type GeneratedRepository struct {
	db *gorm.DB
}

// NewGeneratedRepository creates a new generated file set repository instance
func NewGeneratedRepository(db *gorm.DB) *GeneratedRepository {
	return &GeneratedRepository{db: db}
}

// Create creates a new generated file set in the database
func (r *GeneratedRepository) Create(ctx context.Context, set *models.GeneratedFileSet) error {
	return r.db.WithContext(ctx).Create(set).Error
}

// Update persists changes to an existing generated file set
func (r *GeneratedRepository) Update(ctx context.Context, set *models.GeneratedFileSet) error {
	return r.db.WithContext(ctx).Save(set).Error
}

// GetByFingerprint retrieves a generated file set by its owning fingerprint.
// Returns nil without an error when no record matches.
func (r *GeneratedRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.GeneratedFileSet, error) {
	var set models.GeneratedFileSet
	err := r.db.WithContext(ctx).
		Where(&models.GeneratedFileSet{Fingerprint: fingerprint}).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated file set: %w", err)
	}
	return &set, nil
}
