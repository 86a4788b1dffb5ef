package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJournal_RecordAndQueryByRelease(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, Entry{ReleaseID: "rel-1", Package: "pkg-1", Action: ActionPatched, Lockfile: "a/package-lock.json"}))
	require.NoError(t, j.Record(ctx, Entry{ReleaseID: "rel-1", Package: "pkg-2", Action: ActionSkipped, Detail: "no lockfile"}))
	require.NoError(t, j.Record(ctx, Entry{ReleaseID: "rel-2", Package: "pkg-1", Action: ActionPatched}))

	entries, err := j.ByRelease(ctx, "rel-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "pkg-1", entries[0].Package)
	require.Equal(t, ActionPatched, entries[0].Action)
	require.Equal(t, "no lockfile", entries[1].Detail)
	require.False(t, entries[0].Timestamp.IsZero())
}

func TestJournal_UnknownRelease_ReturnsNoEntries(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.ByRelease(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), Entry{ReleaseID: "rel-1", Action: ActionRefreshed, Lockfile: "package-lock.json"}))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.ByRelease(context.Background(), "rel-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ActionRefreshed, entries[0].Action)
}
