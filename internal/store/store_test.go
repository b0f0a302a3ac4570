package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResponseCache_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "street:abovyan")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "street:abovyan", []byte(`{"elements":[]}`)))

	payload, ok, err := s.Get(ctx, "street:abovyan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"elements":[]}`), payload)
}

func TestResponseCache_PutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("old")))
	require.NoError(t, s.Put(ctx, "k", []byte("new")))

	payload, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), payload)
}

func TestRunLog_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "geocode")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, s.FinishRun(ctx, run.ID, map[string]int{"resolved": 12, "failed": 3}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusComplete, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.Valid)
	assert.JSONEq(t, `{"resolved": 12, "failed": 3}`, string(runs[0].Summary))
}

func TestRunLog_FailRecordsError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "isochrones")
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, eris.New("no nodes in walk network")))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.Contains(t, string(runs[0].Summary), "no nodes")
}

func TestFinishRun_UnknownIDErrors(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), "missing", nil)
	assert.Error(t, err)
}
