package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	"github.com/yungbote/competency-advisor/internal/data/repos/testutil"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/platform/apierr"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/platform/qdrant"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	fail  func(text string) bool
	calls atomic.Int64
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.fail != nil && f.fail(text) {
		return nil, errors.New("embed failed")
	}
	if f.vec == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return f.vec, nil
}

type fakeGenerator struct {
	mu         sync.Mutex
	out        string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeIndex struct {
	rows  []*types.Competency
	err   error
	calls atomic.Int64
}

func (f *fakeIndex) Provider() string { return "fake" }

func (f *fakeIndex) Nearest(_ context.Context, _ []float32, k int) ([]*types.Competency, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if k > 0 && len(f.rows) > k {
		return f.rows[:k], nil
	}
	return f.rows, nil
}

func (f *fakeIndex) Index(context.Context, *types.Competency, []float32) error { return nil }

type fakeQdrantStore struct {
	mu      sync.Mutex
	matches []qdrant.Match
	points  []qdrant.Point
	deleted []int64
}

func (f *fakeQdrantStore) Upsert(_ context.Context, points []qdrant.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeQdrantStore) Search(context.Context, []float32, int) ([]qdrant.Match, error) {
	return f.matches, nil
}

func (f *fakeQdrantStore) Delete(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeSessionCache struct {
	mu   sync.Mutex
	data map[string]int64
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{data: map[string]int64{}}
}

func (f *fakeSessionCache) Get(_ context.Context, token string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.data[token]
	return id, ok, nil
}

func (f *fakeSessionCache) Set(_ context.Context, token string, id int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[token] = id
	return nil
}

func (f *fakeSessionCache) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, token)
	return nil
}

type testEnv struct {
	ctx            context.Context
	db             *gorm.DB
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
	progressRepo   repos.ProgressRepo
	employeeRepo   repos.EmployeeRepo
	sessionRepo    repos.SessionRepo
	queryRepo      repos.AdvisorQueryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	return &testEnv{
		ctx:            context.Background(),
		db:             db,
		log:            log,
		competencyRepo: repos.NewCompetencyRepo(db, log),
		progressRepo:   repos.NewProgressRepo(db, log),
		employeeRepo:   repos.NewEmployeeRepo(db, log),
		sessionRepo:    repos.NewSessionRepo(db, log),
		queryRepo:      repos.NewAdvisorQueryRepo(db, log),
	}
}

func (e *testEnv) ladder(t *testing.T, name string, prereq *int64, levels ...string) []*types.Competency {
	t.Helper()
	return testutil.SeedLadder(t, e.ctx, e.db, name, prereq, levels...)
}

func (e *testEnv) employee(t *testing.T, email string) *types.Employee {
	t.Helper()
	return testutil.SeedEmployee(t, e.ctx, e.db, email)
}

func (e *testEnv) progress(t *testing.T, employeeID, competencyID int64, status types.ProgressStatus) {
	t.Helper()
	testutil.SeedProgress(t, e.ctx, e.db, employeeID, competencyID, status)
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, status, ae.Status, "code=%s err=%v", ae.Code, ae.Err)
	require.Equal(t, code, ae.Code)
}

