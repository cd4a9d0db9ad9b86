package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetpilot/finassist/internal/findata"
)

func newSeededStore(t *testing.T) *findata.Store {
	t.Helper()
	store, err := findata.Open(filepath.Join(t.TempDir(), "sched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.DB().Exec(`
		INSERT INTO users (id, email, full_name, currency) VALUES
		(1, 'alice@example.com', 'Alice', 'SEK'),
		(2, 'bob@example.com', 'Bob', 'EUR')`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO categories (id, user_id, name) VALUES (10, 1, 'Housing'), (11, 2, 'Housing')`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`
		INSERT INTO expense_templates (user_id, name, amount, category_id, is_active) VALUES
		(1, 'Rent', 9500, 10, 1),
		(2, 'Rent', 7000, 11, 1)`)
	require.NoError(t, err)
	return store
}

func TestNewRecurringRejectsBadCron(t *testing.T) {
	t.Parallel()

	store := newSeededStore(t)
	_, err := NewRecurring(store, "not a cron expression")
	assert.Error(t, err)
}

func TestRunOnceGeneratesForAllActiveUsers(t *testing.T) {
	t.Parallel()

	store := newSeededStore(t)
	recurring, err := NewRecurring(store, "0 6 1 * *")
	require.NoError(t, err)

	require.NoError(t, recurring.RunOnce(context.Background(), 2026, time.September))

	var count int
	require.NoError(t, store.DB().QueryRow(
		`SELECT COUNT(*) FROM expenses WHERE date = '2026-09-01'`).Scan(&count))
	assert.Equal(t, 2, count)

	// Re-running the same month adds nothing.
	require.NoError(t, recurring.RunOnce(context.Background(), 2026, time.September))
	require.NoError(t, store.DB().QueryRow(
		`SELECT COUNT(*) FROM expenses WHERE date = '2026-09-01'`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunOnceSkipsInactiveUsers(t *testing.T) {
	t.Parallel()

	store := newSeededStore(t)
	_, err := store.DB().Exec(`UPDATE users SET is_active = 0 WHERE id = 2`)
	require.NoError(t, err)

	recurring, err := NewRecurring(store, "0 6 1 * *")
	require.NoError(t, err)
	require.NoError(t, recurring.RunOnce(context.Background(), 2026, time.September))

	var count int
	require.NoError(t, store.DB().QueryRow(
		`SELECT COUNT(*) FROM expenses WHERE date = '2026-09-01' AND user_id = 2`).Scan(&count))
	assert.Zero(t, count)
}
