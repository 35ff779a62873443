package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillgate/domain"
	"skillgate/infrastructure"
	"skillgate/infrastructure/ats"
)

// fakeQueue records published email jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []infrastructure.InviteEmailJob
}

func (q *fakeQueue) PublishInviteEmail(job infrastructure.InviteEmailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// fakeScorer returns fixed scores without calling any LLM.
type fakeScorer struct{ err error }

func (s *fakeScorer) Score(ctx context.Context, assessmentType, transcript string) (*infrastructure.ScoreResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &infrastructure.ScoreResult{
		Overall:        82,
		Technical:      80,
		ProblemSolving: 85,
		Communication:  78,
		Completion:     90,
		Summary:        "Solid performance.",
	}, nil
}

// fakeAdapter counts provider writes and can be told to fail per target.
type fakeAdapter struct {
	provider string
	mu       sync.Mutex
	notes    []string
	failFor  map[string]error
}

func (f *fakeAdapter) Provider() string { return f.provider }
func (f *fakeAdapter) VerifySignature(rawBody []byte, headers http.Header) bool {
	return true
}
func (f *fakeAdapter) NormalizeEvent(rawBody []byte) (*domain.StageChangeEvent, error) {
	return nil, domain.ErrIgnoredEvent
}
func (f *fakeAdapter) EnrichEvent(ctx context.Context, ev *domain.StageChangeEvent) error { return nil }
func (f *fakeAdapter) ListJobs(ctx context.Context, cursor string) (*ats.JobsPage, error) {
	return &ats.JobsPage{}, nil
}
func (f *fakeAdapter) GetCandidate(ctx context.Context, id string) (*ats.Candidate, error) {
	return &ats.Candidate{ID: id}, nil
}
func (f *fakeAdapter) WriteNote(ctx context.Context, targetID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[targetID]; ok {
		return err
	}
	f.notes = append(f.notes, targetID)
	return nil
}
func (f *fakeAdapter) TestConnection(ctx context.Context) bool { return true }

func (f *fakeAdapter) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

type fakeFactory struct{ adapter *fakeAdapter }

func (f *fakeFactory) ForProvider(cfg domain.IntegrationConfig) (ats.Adapter, error) {
	f.adapter.provider = cfg.Provider
	return f.adapter, nil
}

type testEnv struct {
	router  *gin.Engine
	handler *Handler
	db      *gorm.DB
	queue   *fakeQueue
	adapter *fakeAdapter
}

// newTestEnv wires a handler against an on-disk sqlite database and fake
// collaborators. Pass a nil factory to use the real HTTP adapters.
func newTestEnv(t *testing.T, factory ats.Factory) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, infrastructure.Migrate(db))

	adapter := &fakeAdapter{failFor: map[string]error{}}
	if factory == nil {
		factory = &fakeFactory{adapter: adapter}
	}

	queue := &fakeQueue{}
	h := &Handler{
		DB:       db,
		Adapters: factory,
		Queue:    queue,
		Scorer:   &fakeScorer{},
		Logger:   zap.NewNop(),
		BaseURL:  "http://test.local",
	}

	router := gin.New()
	NewHTTPHandler(router, h)

	return &testEnv{router: router, handler: h, db: db, queue: queue, adapter: adapter}
}

func (e *testEnv) createCompany(t *testing.T, mutate func(*domain.Company)) *domain.Company {
	t.Helper()
	company := &domain.Company{Name: "Acme", DefaultAssessmentType: "general"}
	if mutate != nil {
		mutate(company)
	}
	require.NoError(t, e.db.Create(company).Error)
	return company
}

func (e *testEnv) createAPIKey(t *testing.T, companyID uint) string {
	t.Helper()
	plaintext, hash, prefix, err := domain.NewAPIKey()
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&domain.ApiKey{
		CompanyID: companyID,
		Name:      "test",
		KeyHash:   hash,
		KeyPrefix: prefix,
	}).Error)
	return plaintext
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}
