package competency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/competency-advisor/internal/data/repos/testutil"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
)

func TestProgressRepoLifecycle(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewProgressRepo(db, testutil.Logger(t))

	ladder := testutil.SeedLadder(t, ctx, db, "SQL", nil, "E0", "E1")
	emp := testutil.SeedEmployee(t, ctx, db, "progress@example.com")
	cid := ladder[0].ID
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	none, err := repo.Get(dbc, emp.ID, cid)
	require.NoError(t, err)
	assert.Nil(t, none)

	started, err := repo.UpsertStart(dbc, emp.ID, cid, now)
	require.NoError(t, err)
	assert.True(t, started)

	again, err := repo.UpsertStart(dbc, emp.ID, cid, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, again, "re-starting an in-progress competency is a no-op success")

	row, err := repo.Get(dbc, emp.ID, cid)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, types.StatusInProgress, row.Status)
	require.NotNil(t, row.StartedOn)
	assert.True(t, row.StartedOn.Equal(now), "started_on keeps the first start")

	ok, err := repo.SetProgress(dbc, emp.ID, cid, 40)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(dbc, emp.ID, cid, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(dbc, emp.ID, cid, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "completed rows cannot be completed twice")

	restarted, err := repo.UpsertStart(dbc, emp.ID, cid, now.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, restarted, "completed rows never regress to in progress")

	ok, err = repo.SetProgress(dbc, emp.ID, cid, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err = repo.Get(dbc, emp.ID, cid)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, row.Status)
	require.NotNil(t, row.Progress)
	assert.Equal(t, 100, *row.Progress)

	snap, err := repo.StatusSnapshot(dbc, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]types.ProgressStatus{cid: types.StatusCompleted}, snap)

	list, err := repo.ListByEmployee(dbc, emp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Competency)
	assert.Equal(t, "SQL", list[0].Competency.Name)
}

func TestProgressRepoUpsertStartSingleRowPerPair(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewProgressRepo(db, testutil.Logger(t))

	ladder := testutil.SeedLadder(t, ctx, db, "Rust", nil, "E0")
	emp := testutil.SeedEmployee(t, ctx, db, "dupe@example.com")

	for i := 0; i < 5; i++ {
		_, err := repo.UpsertStart(dbc, emp.ID, ladder[0].ID, time.Now())
		require.NoError(t, err)
	}
	var n int64
	require.NoError(t, db.Model(&types.EmployeeCompetency{}).Where("employee_id = ?", emp.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
