package findata

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GenerateMonthlyExpenses materializes active expense templates into expense
// rows dated the first of the given month. Templates whose (category,
// subcategory) pair already has an expense on the first day are skipped, so
// the operation is safe to re-run. Returns the number of rows created.
//
// This is the one write path in the package. It is driven by the scheduler,
// never by an agent capability.
func (s *Store) GenerateMonthlyExpenses(ctx context.Context, userID int64, year int, month time.Month) (int, error) {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, subcategory_id
		FROM expenses
		WHERE user_id = ? AND date = ?`, userID, firstDay)
	if err != nil {
		return 0, fmt.Errorf("query existing expenses: %w", err)
	}
	type pair struct {
		category, subcategory int64
	}
	existing := map[pair]struct{}{}
	for rows.Next() {
		var category, subcategory sql.NullInt64
		if err := rows.Scan(&category, &subcategory); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan existing expense: %w", err)
		}
		existing[pair{category.Int64, subcategory.Int64}] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	templateRows, err := s.db.QueryContext(ctx, `
		SELECT amount, category_id, subcategory_id, account_id
		FROM expense_templates
		WHERE user_id = ? AND is_active = 1
		ORDER BY name`, userID)
	if err != nil {
		return 0, fmt.Errorf("query expense templates: %w", err)
	}
	type template struct {
		amount                           float64
		category, subcategory, accountID sql.NullInt64
	}
	var templates []template
	for templateRows.Next() {
		var tpl template
		if err := templateRows.Scan(&tpl.amount, &tpl.category, &tpl.subcategory, &tpl.accountID); err != nil {
			templateRows.Close()
			return 0, fmt.Errorf("scan expense template: %w", err)
		}
		templates = append(templates, tpl)
	}
	templateRows.Close()
	if err := templateRows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := 0
	for _, tpl := range templates {
		if _, dup := existing[pair{tpl.category.Int64, tpl.subcategory.Int64}]; dup {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (user_id, date, category_id, subcategory_id, amount, status, account_id)
			VALUES (?, ?, ?, ?, ?, 1, ?)`,
			userID, firstDay, tpl.category, tpl.subcategory, tpl.amount, tpl.accountID)
		if err != nil {
			return 0, fmt.Errorf("insert expense: %w", err)
		}
		existing[pair{tpl.category.Int64, tpl.subcategory.Int64}] = struct{}{}
		created++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}
