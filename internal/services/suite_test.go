package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/db"
	"github.com/climateview/mapgen/internal/db/repos"
	"github.com/climateview/mapgen/internal/progress"
	"github.com/climateview/mapgen/internal/storage"
	"github.com/climateview/mapgen/internal/types"
)

// publishedEvent records a single broker publish.
type publishedEvent struct {
	Exchange   string
	RoutingKey string
	Envelope   broker.Envelope
}

// fakePublisher records publishes, optionally failing every call.
type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, exchange, routingKey string, env broker.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{exchange, routingKey, env})
	return nil
}

// fakeStore is a configurable in-memory artifact gateway.
type fakeStore struct {
	exists  bool
	files   []storage.ArtifactInfo
	listErr error
}

func (s *fakeStore) FolderExists(context.Context, string) bool { return s.exists }

func (s *fakeStore) ListFiles(context.Context, string) ([]storage.ArtifactInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.files, nil
}

func (s *fakeStore) GetFile(context.Context, string, string) (io.ReadCloser, storage.ObjectMeta, error) {
	return io.NopCloser(strings.NewReader("")), storage.ObjectMeta{}, nil
}

// testEnv wires the services against an in-memory database and fakes.
type testEnv struct {
	ctx context.Context

	Requests  *Requests
	Results   *Results
	Publisher *fakePublisher
	Store     *fakeStore
	Registry  *progress.Registry
	ReqRepo   *repos.RequestRepository
	GenRepo   *repos.GeneratedRepository
	Now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// One shared in-memory database per test, named after the test so
	// parallel packages do not collide.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")
	require.NoError(t, db.Migrate(gdb), "Failed to migrate schema")

	env := &testEnv{
		ctx:       context.Background(),
		Publisher: &fakePublisher{},
		Store:     &fakeStore{},
		Registry:  progress.NewRegistry(),
		ReqRepo:   repos.NewRequestRepository(gdb),
		GenRepo:   repos.NewGeneratedRepository(gdb),
		Now:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	env.Requests = NewRequestsService(env.ReqRepo, env.GenRepo, env.Publisher)
	env.Requests.now = func() time.Time { return env.Now }

	env.Results = NewResultsService(env.ReqRepo, env.GenRepo, env.Store, env.Registry)
	env.Results.now = func() time.Time { return env.Now }

	return env
}

func testParams() types.MapRequestParams {
	return types.MapRequestParams{
		VariableName: "temperature",
		Years:        []string{"2020"},
		Months:       []string{"01"},
		Days:         []string{"01"},
		Hours:        []string{"00"},
		AreaCovered:  []string{"Global"},
		MapTypes:     []string{"cont"},
	}
}
