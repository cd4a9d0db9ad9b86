package findata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonthlyExpenses(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedFinances(t, store)
	mustExec(t, store, `
		INSERT INTO expense_templates (user_id, name, amount, category_id, subcategory_id, account_id, is_active) VALUES
		(1, 'Rent', 9500, 10, 100, 20, 1),
		(1, 'Insurance', 450, 11, NULL, 20, 1),
		(1, 'Cancelled', 99, 10, 101, 20, 0)`)

	created, err := store.GenerateMonthlyExpenses(context.Background(), 1, 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var count int
	require.NoError(t, store.DB().QueryRow(
		`SELECT COUNT(*) FROM expenses WHERE user_id = 1 AND date = '2026-08-01'`).Scan(&count))
	assert.Equal(t, 2, count)

	var amount float64
	require.NoError(t, store.DB().QueryRow(
		`SELECT amount FROM expenses WHERE user_id = 1 AND date = '2026-08-01' AND category_id = 10`).Scan(&amount))
	assert.InDelta(t, 9500, amount, 1e-9)
}

func TestGenerateMonthlyExpensesIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedFinances(t, store)
	mustExec(t, store, `
		INSERT INTO expense_templates (user_id, name, amount, category_id, subcategory_id, account_id, is_active)
		VALUES (1, 'Rent', 9500, 10, 100, 20, 1)`)

	created, err := store.GenerateMonthlyExpenses(context.Background(), 1, 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = store.GenerateMonthlyExpenses(context.Background(), 1, 2026, time.August)
	require.NoError(t, err)
	assert.Zero(t, created)

	var count int
	require.NoError(t, store.DB().QueryRow(
		`SELECT COUNT(*) FROM expenses WHERE user_id = 1 AND date = '2026-08-01'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGenerateMonthlyExpensesSkipsExistingPair(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedFinances(t, store)
	// A manual expense on the first already covers the template's
	// category/subcategory pair.
	mustExec(t, store, `
		INSERT INTO expenses (user_id, date, category_id, subcategory_id, amount, status, account_id)
		VALUES (1, '2026-08-01', 10, 100, 1234, 1, 20)`)
	mustExec(t, store, `
		INSERT INTO expense_templates (user_id, name, amount, category_id, subcategory_id, account_id, is_active)
		VALUES (1, 'Rent', 9500, 10, 100, 20, 1)`)

	created, err := store.GenerateMonthlyExpenses(context.Background(), 1, 2026, time.August)
	require.NoError(t, err)
	assert.Zero(t, created)
}
