package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, RunRecord{
			StagingRoot: filepath.Join("/data", "temp_20240601"),
			ReportPath:  "/data/temp_20240601/tricho_data.json",
			Filtered:    4,
			Renamed:     4,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].CompletedAt.After(records[1].CompletedAt), "newest first")
	assert.NotEqual(t, uuid.Nil, records[0].ID, "missing id is assigned on insert")
	assert.Equal(t, 4, records[0].Filtered)
}

func TestRecent_EmptyLedger(t *testing.T) {
	store := openStore(t)

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecord_ExplicitID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, store.Record(ctx, RunRecord{
		ID:          id,
		StagingRoot: "/data/temp_20240601",
		ReportPath:  "/data/temp_20240601/tricho_data.json",
	}))

	records, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.False(t, records[0].CompletedAt.IsZero())
}

func TestRecord_DuplicateIDRejected(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := RunRecord{ID: uuid.New(), StagingRoot: "/a", ReportPath: "/a/tricho_data.json"}
	require.NoError(t, store.Record(ctx, rec))
	assert.Error(t, store.Record(ctx, rec))
}
