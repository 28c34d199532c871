// Package repos provides database access for the service models.
package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/climateview/mapgen/internal/db/models"
)

// RequestRepository provides access to map request database operations
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new request repository instance
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create creates a new map request in the database
func (r *RequestRepository) Create(ctx context.Context, req *models.MapRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// Update persists changes to an existing map request
func (r *RequestRepository) Update(ctx context.Context, req *models.MapRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// UpdateStatus updates only the status of a map request
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	return r.db.WithContext(ctx).Model(&models.MapRequest{}).
		Where(&models.MapRequest{Model: gorm.Model{ID: id}}).
		Update("status", status).Error
}

// GetByFingerprint retrieves a request by its fingerprint. Returns nil without
// an error when no record matches, because callers routinely probe for
// duplicates before creating a record.
func (r *RequestRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.MapRequest, error) {
	var req models.MapRequest
	err := r.db.WithContext(ctx).
		Preload("Generated").
		Where(&models.MapRequest{Fingerprint: fingerprint}).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request by fingerprint: %w", err)
	}
	return &req, nil
}

// GetByID retrieves a request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id uint) (*models.MapRequest, error) {
	var req models.MapRequest
	err := r.db.WithContext(ctx).Preload("Generated").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("request not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

// List returns a page of requests, newest first. A status filter is applied
// unless status is nil.
func (r *RequestRepository) List(ctx context.Context, status *models.RequestStatus, opts *models.ListOptions) ([]models.MapRequest, error) {
	opts.Normalize()

	var requests []models.MapRequest
	db := r.db.WithContext(ctx).Model(&models.MapRequest{})
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	if !opts.IncludeDeleted {
		db = db.Unscoped().Where("deleted_at IS NULL")
	}

	err := db.Preload("Generated").
		Limit(opts.Limit).Offset(opts.Offset).
		Order(models.RequestCreatedAtField + " DESC").
		Find(&requests).Error
	return requests, err
}

// Count returns the number of requests, optionally filtered by status
func (r *RequestRepository) Count(ctx context.Context, status *models.RequestStatus) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.MapRequest{})
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	err := db.Count(&count).Error
	return count, err
}
