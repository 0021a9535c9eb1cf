package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegate/minegate/internal/registry"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "registrations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	after := registry.Registry{
		"demo": {Backends: []string{"git"}, RepoURL: "https://example.com/repo.git"},
	}

	id, err := j.Append(ctx, Record{
		Projects: []string{"demo"},
		State:    "completed",
		Before:   registry.Registry{},
		After:    after,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := j.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, []string{"demo"}, rec.Projects)
	assert.Equal(t, "completed", rec.State)
	assert.Empty(t, rec.Error)
	assert.Equal(t, after, rec.After)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestAppend_FailureRecord(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	_, err := j.Append(ctx, Record{
		State: "failed_validation",
		Error: "validation: invalid repository descriptor",
	})
	require.NoError(t, err)

	records, err := j.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "failed_validation", records[0].State)
	assert.Contains(t, records[0].Error, "invalid repository descriptor")
	assert.Nil(t, records[0].Before)
	assert.Nil(t, records[0].After)
	assert.Empty(t, records[0].Projects)
}

func TestList_Limit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := j.Append(ctx, Record{Projects: []string{"p"}, State: "completed"})
		require.NoError(t, err)
	}

	records, err := j.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
