package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/storage"
)

func doneEnvelope(t *testing.T, fingerprint string) broker.Envelope {
	t.Helper()

	content, err := json.Marshal(map[string]interface{}{
		"requestHash": fingerprint,
		"content":     "done",
	})
	require.NoError(t, err)

	return broker.Envelope{
		Status:  "OK",
		Message: "map generated",
		Content: content,
	}
}

func TestHandleDone_CompletesRequest(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)
	fingerprint := outcome.Request.Fingerprint

	proxyURL := storage.ProxyURL("http://localhost:8080", fingerprint, "plot.png")
	env.Store.exists = true
	env.Store.files = []storage.ArtifactInfo{
		{Name: "plot.png", ProxyURL: proxyURL, Kind: storage.FileKindImage},
	}

	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, fingerprint)))

	stored, err := env.ReqRepo.GetByFingerprint(env.ctx, fingerprint)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.RequestStatusCached, stored.Status)
	require.NotNil(t, stored.Generated)
	assert.Equal(t, []string{proxyURL}, stored.Generated.Files)
	assert.WithinDuration(t, env.Now.Add(models.ArtifactTTL), stored.Generated.ExpiresAt, time.Second)

	// The progress stream is forced to completion.
	assert.Equal(t, 100, env.Registry.Get(fingerprint).Total())
}

func TestHandleDone_ThenResubmitIsCacheHit(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)
	fingerprint := outcome.Request.Fingerprint

	proxyURL := storage.ProxyURL("http://localhost:8080", fingerprint, "plot.png")
	env.Store.exists = true
	env.Store.files = []storage.ArtifactInfo{{Name: "plot.png", ProxyURL: proxyURL}}

	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, fingerprint)))

	hit, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)
	assert.True(t, hit.CacheHit)
	assert.Equal(t, []string{proxyURL}, hit.Files)
	assert.Len(t, env.Publisher.events, 1, "a cache hit must not re-dispatch")
}

func TestHandleDone_UnknownFingerprintDropped(t *testing.T) {
	env := newTestEnv(t)
	env.Store.exists = true

	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, "never-submitted")))

	set, err := env.GenRepo.GetByFingerprint(env.ctx, "never-submitted")
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestHandleDone_NonSuccessStatusDropped(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)

	env.Store.exists = true
	envlp := doneEnvelope(t, outcome.Request.Fingerprint)
	envlp.Status = "ERROR"
	require.NoError(t, env.Results.HandleDone(env.ctx, envlp))

	stored, err := env.ReqRepo.GetByFingerprint(env.ctx, outcome.Request.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusGenerating, stored.Status)
}

func TestHandleDone_MalformedContentDropped(t *testing.T) {
	env := newTestEnv(t)

	for _, content := range [][]byte{nil, []byte("not json"), []byte(`{"content":"done"}`)} {
		err := env.Results.HandleDone(env.ctx, broker.Envelope{Status: "OK", Content: content})
		assert.NoError(t, err)
	}
}

func TestHandleDone_MissingFolderMarksEmpty(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)

	env.Store.exists = false
	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, outcome.Request.Fingerprint)))

	stored, err := env.ReqRepo.GetByFingerprint(env.ctx, outcome.Request.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusEmpty, stored.Status)
}

func TestHandleDone_EmptyListingMarksEmpty(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)

	env.Store.exists = true
	env.Store.files = nil
	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, outcome.Request.Fingerprint)))

	stored, err := env.ReqRepo.GetByFingerprint(env.ctx, outcome.Request.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusEmpty, stored.Status)
}

func TestHandleDone_StorageErrorMarksEmpty(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.Requests.Submit(env.ctx, testParams(), nil)
	require.NoError(t, err)

	env.Store.exists = true
	env.Store.listErr = assert.AnError
	require.NoError(t, env.Results.HandleDone(env.ctx, doneEnvelope(t, outcome.Request.Fingerprint)))

	stored, err := env.ReqRepo.GetByFingerprint(env.ctx, outcome.Request.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusEmpty, stored.Status)
}

func TestHandleProgress_RoutesByFingerprint(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProgressService(env.Registry)

	content, err := json.Marshal(map[string]interface{}{
		"requestHash": "abc", "increment": 40, "message": "rendering",
	})
	require.NoError(t, err)
	require.NoError(t, svc.HandleProgress(env.ctx, broker.Envelope{Status: "OK", Content: content}))
	assert.Equal(t, 40, env.Registry.Get("abc").Total())

	// Events without a fingerprint land on the shared default stream.
	content, err = json.Marshal(map[string]interface{}{"increment": 25, "message": "warming up"})
	require.NoError(t, err)
	require.NoError(t, svc.HandleProgress(env.ctx, broker.Envelope{Status: "OK", Content: content}))
	assert.Equal(t, 25, env.Registry.Get("").Total())
	assert.Equal(t, 40, env.Registry.Get("abc").Total(), "fingerprint stream must be untouched")

	// Malformed events are dropped without touching any tracker.
	require.NoError(t, svc.HandleProgress(env.ctx, broker.Envelope{Status: "OK", Content: []byte("garbage")}))
	assert.Equal(t, 25, env.Registry.Get("").Total())
}
