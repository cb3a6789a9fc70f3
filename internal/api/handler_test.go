package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendient/ai-detector-sub000/internal/assess"
	"github.com/Sendient/ai-detector-sub000/internal/assign"
	"github.com/Sendient/ai-detector-sub000/internal/auth"
	"github.com/Sendient/ai-detector-sub000/internal/bulk"
	"github.com/Sendient/ai-detector-sub000/internal/client"
	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/internal/poller"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	"github.com/Sendient/ai-detector-sub000/internal/resolver"
)

// fakeBackend is a minimal stateful detection pipeline for end-to-end
// handler tests.
type fakeBackend struct {
	mu     sync.Mutex
	docs   map[string]*model.Document
	scores map[string]float64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:   make(map[string]*model.Document),
		scores: make(map[string]float64),
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.AuthTokenResponse{Token: "backend-token", ExpiresIn: 3600})
	})

	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]model.Document, 0, len(b.docs))
		for _, d := range b.docs {
			out = append(out, *d)
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/documents/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		id, action := parts[0], parts[1]

		b.mu.Lock()
		defer b.mu.Unlock()

		doc, ok := b.docs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "document not found"}`))
			return
		}

		switch action {
		case "assess":
			doc.Status = model.StatusCompleted
			score := b.scores[id]
			json.NewEncoder(w).Encode(model.AssessResponse{ID: id, Status: "completed", Score: &score})
		case "cancel-assessment":
			w.Write([]byte(`{}`))
		case "reprocess":
			doc.Status = model.StatusQueued
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/results/document/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/results/document/")

		b.mu.Lock()
		defer b.mu.Unlock()

		doc, ok := b.docs[id]
		if !ok || doc.Status != model.StatusCompleted {
			json.NewEncoder(w).Encode(model.ResultDetail{Status: model.StatusError})
			return
		}
		score := b.scores[id]
		json.NewEncoder(w).Encode(model.ResultDetail{Status: model.StatusCompleted, Score: &score})
	})

	mux.HandleFunc("/students/bulk-upload", func(w http.ResponseWriter, r *http.Request) {
		var req model.BulkUploadRequest
		json.NewDecoder(r.Body).Decode(&req)

		results := make([]model.RowOutcome, len(req.Students))
		for i, s := range req.Students {
			results[i] = model.RowOutcome{
				RowNumber:   i + 1,
				StudentName: s.FirstName + " " + s.LastName,
				Status:      model.RowCreated,
			}
		}
		json.NewEncoder(w).Encode(model.BulkUploadResponse{
			Results: results,
			Summary: model.BatchSummary{TotalProcessed: len(results), TotalSucceeded: len(results)},
		})
	})

	return mux
}

func newTestStack(t *testing.T, backend *fakeBackend) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		App: config.AppConfig{Name: "sync-engine-test", Version: "test"},
		Backend: config.BackendConfig{
			BaseURL:      server.URL,
			AuthEndpoint: "/auth/token",
			Username:     "engine",
			Password:     "secret",
			Timeout:      5 * time.Second,
			AuthTimeout:  2 * time.Second,
		},
		// Long interval: these tests drive refreshes explicitly, and a
		// background tick firing mid-assertion would race the optimistic
		// patches under test.
		Poller: config.PollerConfig{Interval: time.Hour},
		Assess: config.AssessConfig{ErrorDisplayWindow: 50 * time.Millisecond},
	}

	reg := registry.New(registry.NewMemoryStore())
	tokens := auth.NewManager(cfg)
	backendClient := client.New(cfg, tokens)
	results := resolver.New(backendClient, reg)
	statusPoller := poller.New(cfg, backendClient, reg, results)
	t.Cleanup(statusPoller.Stop)
	controller := assess.NewController(cfg, backendClient, reg, statusPoller)
	statusPoller.SetOperationSweeper(controller)
	assigner := assign.NewResolver(backendClient, reg, statusPoller)
	importer := bulk.NewProcessor(backendClient)

	handler := NewHandler(cfg, reg, statusPoller, controller, assigner, importer, backendClient)

	router := gin.New()
	router.Use(RecoveryMiddleware())
	SetupRoutes(router, handler)
	return router, reg
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

func perform(router *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestStack(t, newFakeBackend())

	w := perform(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRefreshPopulatesRegistry(t *testing.T) {
	backend := newFakeBackend()
	backend.docs["doc-1"] = &model.Document{ID: "doc-1", Status: model.StatusUploaded}

	router, reg := newTestStack(t, backend)

	w := perform(router, http.MethodPost, "/api/v1/documents/refresh", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	docs, err := reg.GetAll(testContext(t))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestAssessFlowResolvesScore(t *testing.T) {
	backend := newFakeBackend()
	backend.docs["doc-1"] = &model.Document{ID: "doc-1", Status: model.StatusUploaded}
	backend.scores["doc-1"] = 0.42

	router, reg := newTestStack(t, backend)

	require.Equal(t, http.StatusOK,
		perform(router, http.MethodPost, "/api/v1/documents/refresh", "", "").Code)

	w := perform(router, http.MethodPost, "/api/v1/documents/doc-1/assess", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc, err := reg.Get(testContext(t), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, doc.Status)
	require.NotNil(t, doc.Score)
	assert.InDelta(t, 0.42, *doc.Score, 1e-9)
}

func TestSettledOperationDestroyedByConfirmingPoll(t *testing.T) {
	backend := newFakeBackend()
	backend.docs["doc-1"] = &model.Document{ID: "doc-1", Status: model.StatusUploaded}
	backend.scores["doc-1"] = 0.42

	router, _ := newTestStack(t, backend)

	require.Equal(t, http.StatusOK,
		perform(router, http.MethodPost, "/api/v1/documents/refresh", "", "").Code)
	require.Equal(t, http.StatusOK,
		perform(router, http.MethodPost, "/api/v1/documents/doc-1/assess", "", "").Code)

	// The post-assess refresh confirmed server state, so the settled
	// operation must not linger for later reads.
	w := perform(router, http.MethodGet, "/api/v1/documents/doc-1/operation", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var op model.Operation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &op))
	assert.Equal(t, model.OpIdle, op.State)
}

func TestCancelIsOptimistic(t *testing.T) {
	backend := newFakeBackend()
	// The backend keeps reporting PROCESSING; the local view flips to
	// ERROR anyway.
	backend.docs["doc-1"] = &model.Document{ID: "doc-1", Status: model.StatusProcessing}

	router, reg := newTestStack(t, backend)

	require.Equal(t, http.StatusOK,
		perform(router, http.MethodPost, "/api/v1/documents/refresh", "", "").Code)

	w := perform(router, http.MethodPost, "/api/v1/documents/doc-1/cancel", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc, err := reg.Get(testContext(t), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, doc.Status)
}

func TestAssessUnknownDocumentIsScopedError(t *testing.T) {
	router, _ := newTestStack(t, newFakeBackend())

	w := perform(router, http.MethodPost, "/api/v1/documents/ghost/assess", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ghost")
}

func TestImportStudentsCSV(t *testing.T) {
	router, _ := newTestStack(t, newFakeBackend())

	payload := "Firstname,Lastname,Email Address,External ID,Descriptor,Assign to Class\nJane,Doe,jane@x.com,,,"
	w := perform(router, http.MethodPost, "/api/v1/students/import", "text/csv", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report model.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Jane Doe", report.Results[0].StudentName)
	assert.Equal(t, 1, report.Summary.TotalSucceeded)
}

func TestImportStudentsBadHeader(t *testing.T) {
	router, _ := newTestStack(t, newFakeBackend())

	payload := "Lastname,Firstname,Email Address,External ID,Descriptor,Assign to Class\nDoe,Jane,,,,"
	w := perform(router, http.MethodPost, "/api/v1/students/import", "text/csv", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
