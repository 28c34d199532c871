package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/db"
	"github.com/climateview/mapgen/internal/db/models"
	"github.com/climateview/mapgen/internal/db/repos"
	"github.com/climateview/mapgen/internal/progress"
	"github.com/climateview/mapgen/internal/services"
	"github.com/climateview/mapgen/internal/storage"
	"github.com/climateview/mapgen/internal/types"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, broker.Envelope) error { return nil }

type stubStore struct {
	files []storage.ArtifactInfo
}

func (s *stubStore) FolderExists(context.Context, string) bool { return len(s.files) > 0 }

func (s *stubStore) ListFiles(context.Context, string) ([]storage.ArtifactInfo, error) {
	return s.files, nil
}

func (s *stubStore) GetFile(context.Context, string, string) (io.ReadCloser, storage.ObjectMeta, error) {
	return io.NopCloser(strings.NewReader("")), storage.ObjectMeta{}, storage.ErrNotFound
}

type RequestHandlerTestSuite struct {
	suite.Suite
	DB      *gorm.DB
	App     *fiber.App
	Store   *stubStore
	ReqRepo *repos.RequestRepository
}

func (s *RequestHandlerTestSuite) SetupTest() {
	// A uniquely named shared-cache database keeps each test isolated while
	// surviving connection pool churn.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(s.T().Name())
	var err error
	s.DB, err = gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		s.T().Fatal("failed to connect database")
	}
	if err := db.Migrate(s.DB); err != nil {
		s.T().Fatal("failed to migrate database schema")
	}

	s.ReqRepo = repos.NewRequestRepository(s.DB)
	genRepo := repos.NewGeneratedRepository(s.DB)
	userRepo := repos.NewUserRepository(s.DB)
	s.Store = &stubStore{}

	registry := progress.NewRegistry()
	requestsSvc := services.NewRequestsService(s.ReqRepo, genRepo, nopPublisher{})
	usersSvc := services.NewUsersService(userRepo)

	api := NewAPIHandler(requestsSvc, usersSvc, s.Store, registry)
	handler := NewRequestHandler(api)

	s.App = fiber.New()
	s.App.Post("/requests", handler.SubmitRequest)
	s.App.Get("/requests", handler.ListRequests)
	s.App.Get("/requests/:fingerprint", handler.GetRequest)
}

func TestRequestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerTestSuite))
}

func (s *RequestHandlerTestSuite) submitBody() []byte {
	body, err := json.Marshal(types.MapRequestParams{
		VariableName: "temperature",
		Years:        []string{"2020"},
		Months:       []string{"01"},
		Days:         []string{"01"},
		Hours:        []string{"00"},
		AreaCovered:  []string{"Global"},
		MapTypes:     []string{"cont"},
	})
	s.NoError(err)
	return body
}

func (s *RequestHandlerTestSuite) TestSubmitRequest_Accepted() {
	req := httptest.NewRequest("POST", "/requests", bytes.NewReader(s.submitBody()))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusAccepted, resp.StatusCode)

	var result types.SubmitResponse
	s.NoError(json.NewDecoder(resp.Body).Decode(&result))
	s.Len(result.Fingerprint, 64)
	s.Equal("GENERATING", result.Status)
	s.False(result.CacheHit)
}

func (s *RequestHandlerTestSuite) TestSubmitRequest_InvalidBody() {
	req := httptest.NewRequest("POST", "/requests", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RequestHandlerTestSuite) TestSubmitRequest_MissingFields() {
	req := httptest.NewRequest("POST", "/requests", strings.NewReader(`{"variableName":"temperature"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RequestHandlerTestSuite) TestGetRequest_NotFound() {
	req := httptest.NewRequest("GET", "/requests/deadbeef", nil)

	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RequestHandlerTestSuite) TestGetRequest_RoundTrip() {
	submit := httptest.NewRequest("POST", "/requests", bytes.NewReader(s.submitBody()))
	submit.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(submit, -1)
	s.NoError(err)

	var submitted types.SubmitResponse
	s.NoError(json.NewDecoder(resp.Body).Decode(&submitted))

	req := httptest.NewRequest("GET", "/requests/"+submitted.Fingerprint, nil)
	resp, err = s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var request models.MapRequest
	s.NoError(json.NewDecoder(resp.Body).Decode(&request))
	s.Equal(submitted.Fingerprint, request.Fingerprint)
	s.Equal("temperature", request.VariableName)
}

func (s *RequestHandlerTestSuite) TestListRequests_StatusFilter() {
	submit := httptest.NewRequest("POST", "/requests", bytes.NewReader(s.submitBody()))
	submit.Header.Set("Content-Type", "application/json")
	_, err := s.App.Test(submit, -1)
	s.NoError(err)

	req := httptest.NewRequest("GET", "/requests?status=GENERATING", nil)
	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result struct {
		Requests []models.MapRequest `json:"requests"`
		Count    int                 `json:"count"`
	}
	s.NoError(json.NewDecoder(resp.Body).Decode(&result))
	s.Equal(1, result.Count)

	req = httptest.NewRequest("GET", "/requests?status=CACHED", nil)
	resp, err = s.App.Test(req, -1)
	s.NoError(err)
	s.NoError(json.NewDecoder(resp.Body).Decode(&result))
	s.Equal(0, result.Count)

	req = httptest.NewRequest("GET", "/requests?status=bogus", nil)
	resp, err = s.App.Test(req, -1)
	s.NoError(err)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}
