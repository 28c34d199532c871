package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/db/repos"
	"github.com/climateview/mapgen/internal/logger"
	"github.com/climateview/mapgen/internal/progress"
	"github.com/climateview/mapgen/internal/storage"
)

// doneStatusOK is the status marker a worker sets on a successful done event.
const doneStatusOK = "OK"

// doneContent is the content of a done event.
type doneContent struct {
	RequestHash string          `json:"requestHash"`
	Content     json.RawMessage `json:"content"`
}

// Results correlates asynchronous done events back to their originating
// request: it re-resolves the request by fingerprint, inspects the object
// store and moves the request to a terminal state.
type Results struct {
	requests  *repos.RequestRepository
	generated *repos.GeneratedRepository
	store     storage.Gateway
	progress  *progress.Registry
	now       func() time.Time
}

// NewResultsService creates a new result correlation service.
func NewResultsService(requests *repos.RequestRepository, generated *repos.GeneratedRepository, store storage.Gateway, registry *progress.Registry) *Results {
	return &Results{
		requests:  requests,
		generated: generated,
		store:     store,
		progress:  registry,
		now:       time.Now,
	}
}

// HandleDone processes one done event. Every failure is terminal but
// recorded: the request ends in EMPTY rather than hanging in GENERATING, and
// nothing is retried automatically. A client retry is a plain resubmission.
//
// Returning nil in the drop cases is deliberate: there is no one to answer
// and redelivery would not change the outcome.
func (s *Results) HandleDone(ctx context.Context, env broker.Envelope) error {
	var content doneContent
	if len(env.Content) == 0 || json.Unmarshal(env.Content, &content) != nil || content.RequestHash == "" {
		logger.Warn("Dropping structurally invalid done event")
		return nil
	}

	if env.Status != doneStatusOK {
		logger.WarnWithFields("Dropping non-success done event", map[string]interface{}{
			"fingerprint": content.RequestHash,
			"status":      env.Status,
		})
		return nil
	}

	request, err := s.requests.GetByFingerprint(ctx, content.RequestHash)
	if err != nil {
		logger.Errorf("Failed to resolve request for done event: %v", err)
		return nil
	}
	if request == nil {
		logger.Warnf("Done event for unknown fingerprint %s, dropping", content.RequestHash)
		return nil
	}

	s.finalize(ctx, request)

	// Belt and suspenders: whatever increments made it through, the stream
	// must end at 100.
	s.progress.Get(request.Fingerprint).Complete("done")
	return nil
}

// finalize inspects the object store and moves the request to CACHED or
// EMPTY. Storage-layer errors degrade to EMPTY instead of leaving the
// request GENERATING forever.
func (s *Results) finalize(ctx context.Context, request *models.MapRequest) {
	if !s.store.FolderExists(ctx, request.Fingerprint) {
		logger.Warnf("No artifact folder for %s, marking request empty", request.Fingerprint)
		s.markEmpty(ctx, request)
		return
	}

	files, err := s.store.ListFiles(ctx, request.Fingerprint)
	if err != nil {
		logger.Errorf("Failed to list artifacts for %s: %v", request.Fingerprint, err)
		s.markEmpty(ctx, request)
		return
	}
	if len(files) == 0 {
		logger.Warnf("Empty artifact folder for %s, marking request empty", request.Fingerprint)
		s.markEmpty(ctx, request)
		return
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, f.ProxyURL)
	}

	if err := s.attachFileSet(ctx, request, urls); err != nil {
		logger.Errorf("Failed to record artifacts for %s: %v", request.Fingerprint, err)
		s.markEmpty(ctx, request)
		return
	}

	logger.InfoWithFields("Request completed", map[string]interface{}{
		"fingerprint": request.Fingerprint,
		"artifacts":   len(urls),
	})
}

// attachFileSet upserts the generated file set with a fresh expiry, links it
// to the request and marks the request cached.
func (s *Results) attachFileSet(ctx context.Context, request *models.MapRequest, urls []string) error {
	set, err := s.generated.GetByFingerprint(ctx, request.Fingerprint)
	if err != nil {
		return err
	}

	if set == nil {
		set = &models.GeneratedFileSet{
			Fingerprint: request.Fingerprint,
			Files:       urls,
			Status:      models.RequestStatusCached,
		}
		set.Touch(s.now())
		if err := s.generated.Create(ctx, set); err != nil {
			return err
		}
	} else {
		set.Files = urls
		set.Status = models.RequestStatusCached
		set.Touch(s.now())
		if err := s.generated.Update(ctx, set); err != nil {
			return err
		}
	}

	request.GeneratedID = &set.ID
	request.Generated = set
	request.Status = models.RequestStatusCached
	return s.requests.Update(ctx, request)
}

func (s *Results) markEmpty(ctx context.Context, request *models.MapRequest) {
	request.Status = models.RequestStatusEmpty
	if err := s.requests.Update(ctx, request); err != nil {
		logger.Errorf("Failed to mark request %s empty: %v", request.Fingerprint, err)
	}
}
