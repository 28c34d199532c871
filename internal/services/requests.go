// Package services implements the business logic of the map generation
// pipeline: request orchestration, result correlation and user management.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/db/repos"
	"github.com/climateview/mapgen/internal/hash"
	"github.com/climateview/mapgen/internal/logger"
	"github.com/climateview/mapgen/internal/types"
)

// Publisher is the slice of the broker the orchestrator needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, env broker.Envelope) error
}

// Request service errors
var (
	ErrRequestNotFound = errors.New("request not found")
)

// Requests orchestrates map generation requests: fingerprinting,
// deduplication, persistence and dispatch to the worker fleet.
type Requests struct {
	requests  *repos.RequestRepository
	generated *repos.GeneratedRepository
	publisher Publisher
	now       func() time.Time
}

// NewRequestsService creates a new request orchestration service.
func NewRequestsService(requests *repos.RequestRepository, generated *repos.GeneratedRepository, publisher Publisher) *Requests {
	return &Requests{
		requests:  requests,
		generated: generated,
		publisher: publisher,
		now:       time.Now,
	}
}

// SubmitOutcome describes the result of a submission: either an immediate
// cache hit carrying the artifact listing, or an accepted-for-processing
// acknowledgment carrying only the fingerprint.
type SubmitOutcome struct {
	Request  *models.MapRequest
	CacheHit bool
	Files    []string
}

// createContent is the content carried by a create event: the normalized
// parameters plus the fingerprint the worker must publish results under.
type createContent struct {
	types.MapRequestParams
	Fingerprint string `json:"fingerprint"`
}

// Submit runs the request state machine. Identical parameters hash to the
// same fingerprint; a fingerprint already in CACHED state is answered from
// the store without dispatching any work.
func (s *Requests) Submit(ctx context.Context, params types.MapRequestParams, ownerID *uint) (*SubmitOutcome, error) {
	normalized := params.Normalized()

	fingerprint, err := hash.Fingerprint(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint request: %w", err)
	}

	existing, err := s.requests.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}

	if existing != nil && existing.Status == models.RequestStatusCached {
		return s.touchCached(ctx, existing)
	}

	request := existing
	if request == nil {
		request = &models.MapRequest{
			Fingerprint:    fingerprint,
			Status:         models.RequestStatusGenerating,
			VariableName:   normalized.VariableName,
			Years:          normalized.Years,
			Months:         normalized.Months,
			Days:           normalized.Days,
			Hours:          normalized.Hours,
			AreaCovered:    normalized.AreaCovered,
			MapTypes:       normalized.MapTypes,
			MapLevels:      normalized.MapLevels,
			FileFormat:     normalized.FileFormat,
			HighResolution: normalized.HighResolution,
			RepeatCount:    1,
			OwnerID:        ownerID,
		}
		if err := s.requests.Create(ctx, request); err != nil {
			return nil, fmt.Errorf("failed to persist request: %w", err)
		}
	} else {
		// A non-cached record already exists for this fingerprint. The
		// request is re-dispatched below so a lost or failed run can be
		// retried by resubmission.
		request.Status = models.RequestStatusGenerating
		request.RepeatCount++
		if err := s.requests.Update(ctx, request); err != nil {
			return nil, fmt.Errorf("failed to update request: %w", err)
		}
	}

	s.publishCreate(ctx, normalized, fingerprint)

	return &SubmitOutcome{Request: request}, nil
}

// touchCached handles an immediate cache hit: bump the repeat count, slide
// the artifact set expiry and answer from the stored listing. No publish
// happens on this path.
func (s *Requests) touchCached(ctx context.Context, request *models.MapRequest) (*SubmitOutcome, error) {
	request.RepeatCount++
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	var files []string
	set := request.Generated
	if set == nil {
		stored, err := s.generated.GetByFingerprint(ctx, request.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to load generated file set: %w", err)
		}
		set = stored
	}
	if set != nil {
		set.Touch(s.now())
		if err := s.generated.Update(ctx, set); err != nil {
			return nil, fmt.Errorf("failed to refresh file set expiry: %w", err)
		}
		files = set.Files
	}

	logger.InfoWithFields("Cache hit", map[string]interface{}{
		"fingerprint": request.Fingerprint,
		"repeats":     request.RepeatCount,
	})

	return &SubmitOutcome{
		Request:  request,
		CacheHit: true,
		Files:    files,
	}, nil
}

// publishCreate dispatches the create event. A publish failure is logged but
// does not roll back the persisted GENERATING record; the client can retry
// by resubmitting the same parameters.
func (s *Requests) publishCreate(ctx context.Context, params types.MapRequestParams, fingerprint string) {
	payload, err := json.Marshal(createContent{
		MapRequestParams: params,
		Fingerprint:      fingerprint,
	})
	if err != nil {
		logger.Errorf("Failed to serialize create event for %s: %v", fingerprint, err)
		return
	}

	// The worker contract carries the parameters as a JSON string inside the
	// envelope content.
	content, err := json.Marshal(string(payload))
	if err != nil {
		logger.Errorf("Failed to encode create event for %s: %v", fingerprint, err)
		return
	}

	env := broker.Envelope{
		Status:  "OK",
		Message: "create map request",
		Content: content,
	}
	if err := s.publisher.Publish(ctx, broker.RequestsExchange, broker.CreateKey, env); err != nil {
		logger.ErrorWithFields("Failed to publish create event", map[string]interface{}{
			"fingerprint": fingerprint,
			"error":       err.Error(),
		})
	}
}

// GetByFingerprint returns the request for a fingerprint.
func (s *Requests) GetByFingerprint(ctx context.Context, fingerprint string) (*models.MapRequest, error) {
	request, err := s.requests.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// List returns a page of requests.
func (s *Requests) List(ctx context.Context, status *models.RequestStatus, opts *models.ListOptions) ([]models.MapRequest, error) {
	return s.requests.List(ctx, status, opts)
}
