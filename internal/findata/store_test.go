package findata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustExec(t *testing.T, store *Store, query string, args ...any) {
	t.Helper()
	_, err := store.DB().Exec(query, args...)
	require.NoError(t, err)
}

func seedUser(t *testing.T, store *Store, id int64, name, currencyCode string) {
	t.Helper()
	mustExec(t, store, `
		INSERT INTO users (id, email, full_name, currency, timezone)
		VALUES (?, ?, ?, ?, 'UTC')`,
		id, name+"@example.com", name, currencyCode)
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "migrate.db")
	store, err := Open(path)
	require.NoError(t, err)

	var applied int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.GreaterOrEqual(t, applied, 1)
	require.NoError(t, store.Close())

	// Reopening must not reapply migrations.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	var again int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, applied, again)
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("")
	assert.Error(t, err)
}

func TestMigrationVersionParsing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, migrationVersion("001_init.sql"))
	assert.Equal(t, 12, migrationVersion("012_add_indexes.sql"))
	assert.Equal(t, 0, migrationVersion("notes.txt"))
}

func TestListActiveUserIDs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedUser(t, store, 1, "Alice", "SEK")
	seedUser(t, store, 2, "Bob", "EUR")
	mustExec(t, store, `UPDATE users SET is_active = 0 WHERE id = 2`)

	ids, err := store.ListActiveUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}
