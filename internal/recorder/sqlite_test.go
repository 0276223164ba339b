package recorder

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BigPictureWatch/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)

	c := &model.Collection{}
	c.SP500 = model.Series{Points: []model.Point{
		{Time: model.Date(2024, time.January, 2), Value: 4742.83},
		{Time: model.Date(2024, time.January, 3), Value: 4704.81},
	}}
	c.TreasurySpread = model.Series{Points: []model.Point{
		{Time: model.Date(2024, time.January, 2), Value: math.Inf(1)},
	}}

	started := time.Date(2024, time.January, 4, 7, 0, 0, 0, time.UTC)
	ok := NewRun(started)
	ok.Finish(started.Add(90*time.Second), false, c, nil)
	require.NoError(t, r.RecordRun(ok))

	failed := NewRun(started.Add(time.Hour))
	failed.Finish(started.Add(time.Hour+time.Second), false, nil, errors.New("networth: fetch failed"))
	require.NoError(t, r.RecordRun(failed))

	runs, err := r.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, failed.ID, runs[0].ID, "newest first")
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, "networth: fetch failed", runs[0].Error)
	assert.Empty(t, runs[0].Series)

	got := runs[1]
	assert.Equal(t, ok.ID, got.ID)
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, started.Unix(), got.StartedAt.Unix())
	assert.False(t, got.CacheHit)
	assert.Equal(t, c.Count(), got.SeriesCount)
	require.Len(t, got.Series, c.Count())

	sp := got.Series[0]
	assert.Equal(t, "SP500", sp.Name)
	assert.Equal(t, 2, sp.Points)
	assert.Equal(t, model.Date(2024, time.January, 2), sp.FirstDate)
	assert.Equal(t, model.Date(2024, time.January, 3), sp.LastDate)
	assert.Equal(t, 4704.81, sp.LastValue)

	gold := got.Series[1]
	assert.Equal(t, "gold", gold.Name)
	assert.Zero(t, gold.Points)
	assert.True(t, gold.FirstDate.IsZero())
	assert.True(t, math.IsNaN(gold.LastValue))

	for _, st := range got.Series {
		if st.Name == "treasury_yield_spread" {
			assert.True(t, math.IsNaN(st.LastValue), "non-finite values are stored as NULL")
		}
	}
}

func TestSQLiteRecorder_RecentLimit(t *testing.T) {
	r := openTestRecorder(t)
	base := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := NewRun(base.AddDate(0, 0, i))
		run.Finish(base.AddDate(0, 0, i).Add(time.Minute), true, &model.Collection{}, nil)
		require.NoError(t, r.RecordRun(run))
	}

	runs, err := r.Recent(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, base.AddDate(0, 0, 4).Unix(), runs[0].StartedAt.Unix())
	assert.True(t, runs[0].CacheHit)
}

func TestSQLiteRecorder_DuplicateIDRollsBack(t *testing.T) {
	r := openTestRecorder(t)
	run := NewRun(time.Now())
	run.Finish(time.Now(), false, &model.Collection{}, nil)
	require.NoError(t, r.RecordRun(run))
	assert.Error(t, r.RecordRun(run))

	runs, err := r.Recent(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(NewRun(time.Now())))
	runs, err := r.Recent(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, r.Close())
}
