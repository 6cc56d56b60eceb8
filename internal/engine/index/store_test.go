package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsresolve/internal/core/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "index.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := Session{ID: "s1", Root: "/app", StartedAt: time.Unix(100, 0), Modules: 2, Resolved: 3}
	require.NoError(t, store.SaveReport(ctx, first, []Export{
		{ModulePath: "a", File: "/app/a.ts", Name: "f", Kind: "func", Object: "f", DeclFile: "/app/a.ts", DeclLine: 1, DeclColumn: 1},
		{ModulePath: "b", File: "/app/b.ts", Name: "f", Kind: "func", Object: "f", DeclFile: "/app/a.ts", DeclLine: 1, DeclColumn: 1},
	}))

	got, err := store.LookupExport(ctx, "f")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ModulePath)
	assert.Equal(t, "/app/a.ts", got[1].DeclFile)

	// Lookups only see the latest session.
	second := Session{ID: "s2", Root: "/app", StartedAt: time.Unix(200, 0)}
	require.NoError(t, store.SaveReport(ctx, second, []Export{
		{ModulePath: "a", File: "/app/a.ts", Name: "g", Kind: "class", Object: "g"},
	}))

	got, err = store.LookupExport(ctx, "f")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.LookupExport(ctx, "g")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "class", got[0].Kind)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.Equal(t, 2, sessions[1].Modules)
	assert.True(t, sessions[1].StartedAt.Equal(time.Unix(100, 0)))
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveReport(ctx,
			Session{ID: id, Root: "/app", StartedAt: time.Unix(int64(i+1), 0)},
			[]Export{{ModulePath: "m", File: "/app/m.ts", Name: "x"}}))
	}

	n, err := store.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].ID)

	var rows int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM exports`).Scan(&rows))
	assert.Equal(t, 1, rows, "exports of pruned sessions cascade")
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.SaveReport(ctx, Session{}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = store.Prune(ctx, 0)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	dir := t.TempDir()
	_, err = Open(dir, 0)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = Open(" ", 0)
	assert.Error(t, err)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	store, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, store.SaveReport(ctx, Session{ID: "s", Root: "/r", StartedAt: time.Now()}, nil))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	store, err = Open(path, 0)
	require.NoError(t, err)
	defer store.Close()
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
