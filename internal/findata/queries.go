package findata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Queries is the per-user read surface. All results serialize to the JSON
// shapes the agents' instructions reference, so field names are stable.
type Queries struct {
	store  *Store
	userID int64
}

// NewQueries binds the read surface to a single user. Every query filters by
// this id, so one user's agent can never observe another user's rows.
func NewQueries(store *Store, userID int64) *Queries {
	return &Queries{store: store, userID: userID}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TableInfo describes one table in the schema payload.
type TableInfo struct {
	Description   string   `json:"description"`
	Columns       []string `json:"columns"`
	Relationships []string `json:"relationships,omitempty"`
	Types         []string `json:"types,omitempty"`
}

// SchemaInfo is the static schema description handed to the model so it can
// reason about what data exists.
type SchemaInfo struct {
	Tables map[string]TableInfo `json:"tables"`
}

func (q *Queries) DatabaseSchema() SchemaInfo {
	return SchemaInfo{Tables: map[string]TableInfo{
		"users": {
			Description: "User profiles with financial goals",
			Columns: []string{
				"id", "email", "full_name", "currency", "timezone", "is_active",
				"household_members", "num_vehicles", "housing_type",
				"house_size_sqm", "monthly_income_goal", "monthly_savings_goal",
				"created_at", "updated_at",
			},
		},
		"expenses": {
			Description: "Daily expense records",
			Columns: []string{
				"id", "user_id", "date", "category_id", "subcategory_id",
				"amount", "status", "account_id",
			},
			Relationships: []string{"user", "category", "subcategory", "account"},
		},
		"categories": {
			Description:   "Expense/Income categories",
			Columns:       []string{"id", "user_id", "name", "category_type", "is_active"},
			Relationships: []string{"subcategories", "expenses"},
		},
		"subcategories": {
			Description: "Subcategories under main categories",
			Columns:     []string{"id", "category_id", "name", "is_active"},
		},
		"accounts": {
			Description:   "Payment accounts (bank accounts, credit cards)",
			Columns:       []string{"id", "user_id", "name", "owner_name"},
			Relationships: []string{"expenses"},
		},
		"savings_accounts": {
			Description: "Investment and savings accounts",
			Columns: []string{
				"id", "user_id", "name", "account_type", "description",
				"is_active", "created_at", "updated_at",
			},
			Relationships: []string{"transactions"},
		},
		"savings_transactions": {
			Description: "Deposits, withdrawals, and value updates",
			Columns: []string{
				"id", "account_id", "transaction_type", "amount",
				"transaction_date", "notes", "created_at",
			},
			Types: []string{"deposit", "withdrawal", "value_update"},
		},
		"income_templates": {
			Description: "Recurring income sources",
			Columns: []string{
				"id", "user_id", "source_name", "current_amount",
				"is_active", "created_at", "updated_at",
			},
		},
		"monthly_incomes": {
			Description: "Actual monthly income entries",
			Columns: []string{
				"id", "user_id", "month", "template_id", "source_name",
				"amount", "is_one_time", "description",
			},
		},
		"expense_templates": {
			Description: "Recurring expense templates",
			Columns: []string{
				"id", "user_id", "name", "amount", "category_id",
				"subcategory_id", "account_id", "is_active",
				"created_at", "updated_at",
			},
		},
	}}
}

// HouseholdInfo carries free-form profile fields. Values are either the
// stored value or a "Not specified" placeholder, hence the loose typing.
type HouseholdInfo struct {
	HouseholdMembers any `json:"household_members"`
	NumVehicles      any `json:"num_vehicles"`
	HousingType      any `json:"housing_type"`
	HouseSizeSqm     any `json:"house_size_sqm"`
}

type FinancialGoals struct {
	MonthlyIncomeGoal  any `json:"monthly_income_goal"`
	MonthlySavingsGoal any `json:"monthly_savings_goal"`
}

type UserProfile struct {
	UserID         int64          `json:"user_id"`
	Email          string         `json:"email"`
	FullName       string         `json:"full_name"`
	Currency       string         `json:"currency"`
	Timezone       string         `json:"timezone"`
	HouseholdInfo  HouseholdInfo  `json:"household_info"`
	FinancialGoals FinancialGoals `json:"financial_goals"`
	AccountCreated *string        `json:"account_created"`
	Note           string         `json:"note"`
}

// ErrUserNotFound marks lookups for a user id with no row.
var ErrUserNotFound = fmt.Errorf("user not found")

func orPlaceholder[T comparable](v sql.Null[T], placeholder string) any {
	var zero T
	if !v.Valid || v.V == zero {
		return placeholder
	}
	return v.V
}

// GetUserProfile returns the user's profile and financial goals. Agent
// instructions lean on the note field to keep currency and timezone right.
func (q *Queries) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	row := q.store.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, currency, timezone,
		       household_members, num_vehicles, housing_type, house_size_sqm,
		       monthly_income_goal, monthly_savings_goal, created_at
		FROM users WHERE id = ?`, q.userID)

	var (
		id                           int64
		email, fullName, currencyCol string
		timezone                     sql.NullString
		householdMembers             sql.Null[string]
		numVehicles                  sql.Null[int64]
		housingType                  sql.Null[string]
		houseSizeSqm                 sql.Null[float64]
		incomeGoal, savingsGoal      sql.Null[float64]
		createdAt                    sql.NullString
	)
	err := row.Scan(&id, &email, &fullName, &currencyCol, &timezone,
		&householdMembers, &numVehicles, &housingType, &houseSizeSqm,
		&incomeGoal, &savingsGoal, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user profile: %w", err)
	}

	tz := timezone.String
	if tz == "" {
		tz = "UTC"
	}
	var created *string
	if createdAt.Valid {
		created = &createdAt.String
	}

	return &UserProfile{
		UserID:   id,
		Email:    email,
		FullName: fullName,
		Currency: currencyCol,
		Timezone: tz,
		HouseholdInfo: HouseholdInfo{
			HouseholdMembers: orPlaceholder(householdMembers, "Not specified"),
			NumVehicles:      orPlaceholder(numVehicles, "Not specified"),
			HousingType:      orPlaceholder(housingType, "Not specified"),
			HouseSizeSqm:     orPlaceholder(houseSizeSqm, "Not specified"),
		},
		FinancialGoals: FinancialGoals{
			MonthlyIncomeGoal:  orPlaceholder(incomeGoal, "Not set"),
			MonthlySavingsGoal: orPlaceholder(savingsGoal, "Not set"),
		},
		AccountCreated: created,
		Note: fmt.Sprintf("Always use %s when displaying amounts. User's name is %s. User's timezone is %s.",
			currencyCol, fullName, tz),
	}, nil
}

type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

type SpendingSummary struct {
	TotalExpenses  int       `json:"total_expenses"`
	TotalAmount    float64   `json:"total_amount"`
	ActiveExpenses int       `json:"active_expenses"`
	ActiveAmount   float64   `json:"active_amount"`
	DateRange      DateRange `json:"date_range"`
}

// GetSpendingSummary aggregates expenses in an optional date range. Dates are
// inclusive YYYY-MM-DD strings; an empty string means unbounded on that side.
func (q *Queries) GetSpendingSummary(ctx context.Context, startDate, endDate string) (*SpendingSummary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(CASE WHEN status != 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status != 0 THEN amount ELSE 0 END), 0)
		FROM expenses WHERE user_id = ?`
	args := []any{q.userID}
	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}

	var summary SpendingSummary
	err := q.store.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalExpenses, &summary.TotalAmount,
		&summary.ActiveExpenses, &summary.ActiveAmount)
	if err != nil {
		return nil, fmt.Errorf("query spending summary: %w", err)
	}
	summary.TotalAmount = round2(summary.TotalAmount)
	summary.ActiveAmount = round2(summary.ActiveAmount)
	if startDate != "" {
		summary.DateRange.Start = &startDate
	}
	if endDate != "" {
		summary.DateRange.End = &endDate
	}
	return &summary, nil
}

type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

// GetCategoryBreakdown sums active expenses per category, optionally limited
// to a date range.
func (q *Queries) GetCategoryBreakdown(ctx context.Context, startDate, endDate string) ([]CategoryTotal, error) {
	query := `
		SELECT c.name, COALESCE(SUM(e.amount), 0), COUNT(e.id)
		FROM categories c
		JOIN expenses e ON e.category_id = c.id
		WHERE e.user_id = ? AND e.status != 0`
	args := []any{q.userID}
	if startDate != "" {
		query += " AND e.date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND e.date <= ?"
		args = append(args, endDate)
	}
	query += " GROUP BY c.name ORDER BY c.name"

	rows, err := q.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := []CategoryTotal{}
	for rows.Next() {
		var row CategoryTotal
		if err := rows.Scan(&row.Category, &row.TotalAmount, &row.Count); err != nil {
			return nil, fmt.Errorf("scan category breakdown: %w", err)
		}
		row.TotalAmount = round2(row.TotalAmount)
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}

type SubcategoryTotal struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

// GetSubcategoryBreakdown sums active expenses per (category, subcategory)
// pair, optionally filtered to one category by name.
func (q *Queries) GetSubcategoryBreakdown(ctx context.Context, categoryName string) ([]SubcategoryTotal, error) {
	query := `
		SELECT c.name, s.name, COALESCE(SUM(e.amount), 0), COUNT(e.id)
		FROM expenses e
		JOIN subcategories s ON e.subcategory_id = s.id
		JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = ? AND e.status != 0`
	args := []any{q.userID}
	if categoryName != "" {
		query += " AND c.name = ?"
		args = append(args, categoryName)
	}
	query += " GROUP BY c.name, s.name ORDER BY c.name, s.name"

	rows, err := q.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subcategory breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := []SubcategoryTotal{}
	for rows.Next() {
		var row SubcategoryTotal
		if err := rows.Scan(&row.Category, &row.Subcategory, &row.TotalAmount, &row.Count); err != nil {
			return nil, fmt.Errorf("scan subcategory breakdown: %w", err)
		}
		row.TotalAmount = round2(row.TotalAmount)
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}

type AccountTotal struct {
	AccountName  string  `json:"account_name"`
	OwnerName    *string `json:"owner_name"`
	TotalAmount  float64 `json:"total_amount"`
	ExpenseCount int     `json:"expense_count"`
}

// GetAccountSummary sums active expenses per payment account.
func (q *Queries) GetAccountSummary(ctx context.Context) ([]AccountTotal, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT a.name, a.owner_name, COALESCE(SUM(e.amount), 0), COUNT(e.id)
		FROM accounts a
		JOIN expenses e ON e.account_id = a.id
		WHERE e.user_id = ? AND e.status != 0
		GROUP BY a.name, a.owner_name
		ORDER BY a.name`, q.userID)
	if err != nil {
		return nil, fmt.Errorf("query account summary: %w", err)
	}
	defer rows.Close()

	summary := []AccountTotal{}
	for rows.Next() {
		var (
			row   AccountTotal
			owner sql.NullString
		)
		if err := rows.Scan(&row.AccountName, &owner, &row.TotalAmount, &row.ExpenseCount); err != nil {
			return nil, fmt.Errorf("scan account summary: %w", err)
		}
		if owner.Valid {
			row.OwnerName = &owner.String
		}
		row.TotalAmount = round2(row.TotalAmount)
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

type MonthlyTrend struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	TotalAmount  float64 `json:"total_amount"`
	ExpenseCount int     `json:"expense_count"`
}

// GetMonthlyTrends returns per-month totals of active expenses for the most
// recent months, oldest first.
func (q *Queries) GetMonthlyTrends(ctx context.Context, months int) ([]MonthlyTrend, error) {
	if months <= 0 {
		months = 6
	}
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', date) AS INTEGER) AS year,
		       CAST(strftime('%m', date) AS INTEGER) AS month,
		       COALESCE(SUM(amount), 0),
		       COUNT(id)
		FROM expenses
		WHERE user_id = ? AND status != 0
		GROUP BY year, month
		ORDER BY year DESC, month DESC
		LIMIT ?`, q.userID, months)
	if err != nil {
		return nil, fmt.Errorf("query monthly trends: %w", err)
	}
	defer rows.Close()

	trends := []MonthlyTrend{}
	for rows.Next() {
		var row MonthlyTrend
		if err := rows.Scan(&row.Year, &row.Month, &row.TotalAmount, &row.ExpenseCount); err != nil {
			return nil, fmt.Errorf("scan monthly trends: %w", err)
		}
		row.TotalAmount = round2(row.TotalAmount)
		trends = append(trends, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Flip into chronological order for the model.
	for i, j := 0, len(trends)-1; i < j; i, j = i+1, j-1 {
		trends[i], trends[j] = trends[j], trends[i]
	}
	return trends, nil
}

type SavingsAccountSummary struct {
	AccountName          string  `json:"account_name"`
	AccountType          *string `json:"account_type"`
	TotalDeposits        float64 `json:"total_deposits"`
	TotalWithdrawals     float64 `json:"total_withdrawals"`
	NetDeposits          float64 `json:"net_deposits"`
	CurrentValue         float64 `json:"current_value"`
	ProfitLoss           float64 `json:"profit_loss"`
	ProfitLossPercentage float64 `json:"profit_loss_percentage"`
}

type SavingsSummary struct {
	TotalAccounts    int                     `json:"total_accounts"`
	TotalDeposits    float64                 `json:"total_deposits"`
	TotalWithdrawals float64                 `json:"total_withdrawals"`
	Accounts         []SavingsAccountSummary `json:"accounts"`
}

// GetSavingsSummary reports per-account deposits, withdrawals, and current
// value. Current value is the latest value_update transaction when one
// exists, otherwise net deposits.
func (q *Queries) GetSavingsSummary(ctx context.Context) (*SavingsSummary, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT id, name, account_type
		FROM savings_accounts
		WHERE user_id = ? AND is_active = 1
		ORDER BY id`, q.userID)
	if err != nil {
		return nil, fmt.Errorf("query savings accounts: %w", err)
	}
	defer rows.Close()

	type savingsAccount struct {
		id          int64
		name        string
		accountType sql.NullString
	}
	var accounts []savingsAccount
	for rows.Next() {
		var acc savingsAccount
		if err := rows.Scan(&acc.id, &acc.name, &acc.accountType); err != nil {
			return nil, fmt.Errorf("scan savings account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary := &SavingsSummary{
		TotalAccounts: len(accounts),
		Accounts:      []SavingsAccountSummary{},
	}
	for _, acc := range accounts {
		var deposits, withdrawals float64
		err := q.store.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(CASE WHEN transaction_type = 'deposit' THEN amount ELSE 0 END), 0),
			       COALESCE(SUM(CASE WHEN transaction_type = 'withdrawal' THEN amount ELSE 0 END), 0)
			FROM savings_transactions WHERE account_id = ?`, acc.id).Scan(&deposits, &withdrawals)
		if err != nil {
			return nil, fmt.Errorf("query savings transactions: %w", err)
		}

		netDeposits := deposits - withdrawals
		currentValue := netDeposits
		var latest sql.NullFloat64
		err = q.store.db.QueryRowContext(ctx, `
			SELECT amount FROM savings_transactions
			WHERE account_id = ? AND transaction_type = 'value_update'
			ORDER BY transaction_date DESC LIMIT 1`, acc.id).Scan(&latest)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("query latest value update: %w", err)
		}
		if err == nil && latest.Valid {
			currentValue = latest.Float64
		}

		profitLoss := currentValue - netDeposits
		profitLossPct := 0.0
		if netDeposits > 0 {
			profitLossPct = profitLoss / netDeposits * 100
		}

		var accountType *string
		if acc.accountType.Valid {
			accountType = &acc.accountType.String
		}
		summary.Accounts = append(summary.Accounts, SavingsAccountSummary{
			AccountName:          acc.name,
			AccountType:          accountType,
			TotalDeposits:        round2(deposits),
			TotalWithdrawals:     round2(withdrawals),
			NetDeposits:          round2(netDeposits),
			CurrentValue:         round2(currentValue),
			ProfitLoss:           round2(profitLoss),
			ProfitLossPercentage: round2(profitLossPct),
		})
		summary.TotalDeposits += deposits
		summary.TotalWithdrawals += withdrawals
	}
	summary.TotalDeposits = round2(summary.TotalDeposits)
	summary.TotalWithdrawals = round2(summary.TotalWithdrawals)
	return summary, nil
}

type IncomeSource struct {
	SourceName    string  `json:"source_name"`
	CurrentAmount float64 `json:"current_amount"`
}

type CurrentIncomeSources struct {
	TotalCurrentMonthlyIncome float64        `json:"total_current_monthly_income"`
	IncomeSources             []IncomeSource `json:"income_sources"`
	Note                      string         `json:"note"`
}

// GetCurrentIncomeSources returns the active recurring income templates. The
// note steers the model away from confusing these with historical sums.
func (q *Queries) GetCurrentIncomeSources(ctx context.Context) (*CurrentIncomeSources, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT source_name, current_amount
		FROM income_templates
		WHERE user_id = ? AND is_active = 1
		ORDER BY id`, q.userID)
	if err != nil {
		return nil, fmt.Errorf("query income templates: %w", err)
	}
	defer rows.Close()

	result := &CurrentIncomeSources{
		IncomeSources: []IncomeSource{},
		Note:          "These are CURRENT recurring income amounts, not historical totals",
	}
	for rows.Next() {
		var src IncomeSource
		if err := rows.Scan(&src.SourceName, &src.CurrentAmount); err != nil {
			return nil, fmt.Errorf("scan income template: %w", err)
		}
		result.TotalCurrentMonthlyIncome += src.CurrentAmount
		src.CurrentAmount = round2(src.CurrentAmount)
		result.IncomeSources = append(result.IncomeSources, src)
	}
	result.TotalCurrentMonthlyIncome = round2(result.TotalCurrentMonthlyIncome)
	return result, rows.Err()
}

type IncomeBySource struct {
	Source string  `json:"source"`
	Amount float64 `json:"amount"`
}

type IncomeSummary struct {
	TotalIncome     float64          `json:"total_income"`
	RecurringIncome float64          `json:"recurring_income"`
	OneTimeIncome   float64          `json:"one_time_income"`
	IncomeCount     int              `json:"income_count"`
	Sources         []IncomeBySource `json:"sources"`
	Month           string           `json:"month"`
	Note            string           `json:"note"`
}

// GetIncomeSummary sums monthly income entries for one YYYY-MM month. An
// empty month defaults to the current month rather than all of history.
func (q *Queries) GetIncomeSummary(ctx context.Context, month string) (*IncomeSummary, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT source_name, amount, is_one_time
		FROM monthly_incomes
		WHERE user_id = ? AND month = ?
		ORDER BY id`, q.userID, month)
	if err != nil {
		return nil, fmt.Errorf("query monthly incomes: %w", err)
	}
	defer rows.Close()

	summary := &IncomeSummary{
		Month:   month,
		Sources: []IncomeBySource{},
		Note:    fmt.Sprintf("This is income for month: %s. For CURRENT income sources, use get_current_income_sources", month),
	}
	bySource := map[string]float64{}
	var sourceOrder []string
	for rows.Next() {
		var (
			source  string
			amount  float64
			oneTime bool
		)
		if err := rows.Scan(&source, &amount, &oneTime); err != nil {
			return nil, fmt.Errorf("scan monthly income: %w", err)
		}
		summary.TotalIncome += amount
		if oneTime {
			summary.OneTimeIncome += amount
		} else {
			summary.RecurringIncome += amount
		}
		summary.IncomeCount++
		if _, seen := bySource[source]; !seen {
			sourceOrder = append(sourceOrder, source)
		}
		bySource[source] += amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, source := range sourceOrder {
		summary.Sources = append(summary.Sources, IncomeBySource{
			Source: source,
			Amount: round2(bySource[source]),
		})
	}
	summary.TotalIncome = round2(summary.TotalIncome)
	summary.RecurringIncome = round2(summary.RecurringIncome)
	summary.OneTimeIncome = round2(summary.OneTimeIncome)
	return summary, nil
}

type ExpenseTemplateInfo struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
}

// GetExpenseTemplates lists active recurring expense templates with resolved
// category names.
func (q *Queries) GetExpenseTemplates(ctx context.Context) ([]ExpenseTemplateInfo, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT t.name, t.amount, c.name, s.name
		FROM expense_templates t
		LEFT JOIN categories c ON t.category_id = c.id
		LEFT JOIN subcategories s ON t.subcategory_id = s.id
		WHERE t.user_id = ? AND t.is_active = 1
		ORDER BY t.id`, q.userID)
	if err != nil {
		return nil, fmt.Errorf("query expense templates: %w", err)
	}
	defer rows.Close()

	templates := []ExpenseTemplateInfo{}
	for rows.Next() {
		var (
			tpl                   ExpenseTemplateInfo
			category, subcategory sql.NullString
		)
		if err := rows.Scan(&tpl.Name, &tpl.Amount, &category, &subcategory); err != nil {
			return nil, fmt.Errorf("scan expense template: %w", err)
		}
		tpl.Amount = round2(tpl.Amount)
		if category.Valid {
			tpl.Category = &category.String
		}
		if subcategory.Valid {
			tpl.Subcategory = &subcategory.String
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

type FinancialHealthMetrics struct {
	MonthlyIncome         float64  `json:"monthly_income"`
	MonthlyExpenses       float64  `json:"monthly_expenses"`
	MonthlySavings        float64  `json:"monthly_savings"`
	SavingsRatePercentage float64  `json:"savings_rate_percentage"`
	TotalSavingsValue     float64  `json:"total_savings_value"`
	IncomeGoal            *float64 `json:"income_goal"`
	SavingsGoal           *float64 `json:"savings_goal"`
	Currency              string   `json:"currency"`
	MonthlySavingsDisplay string   `json:"monthly_savings_display"`
}

// GetFinancialHealthMetrics composes the month-to-date income, spending, and
// savings picture for the current month.
func (q *Queries) GetFinancialHealthMetrics(ctx context.Context) (*FinancialHealthMetrics, error) {
	now := time.Now()
	currentMonth := now.Format("2006-01")

	income, err := q.GetIncomeSummary(ctx, currentMonth)
	if err != nil {
		return nil, err
	}
	spending, err := q.GetSpendingSummary(ctx, currentMonth+"-01", now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	savings, err := q.GetSavingsSummary(ctx)
	if err != nil {
		return nil, err
	}

	totalSavingsValue := 0.0
	for _, acc := range savings.Accounts {
		totalSavingsValue += acc.CurrentValue
	}

	savingsRate := 0.0
	if income.TotalIncome > 0 {
		savingsRate = (income.TotalIncome - spending.ActiveAmount) / income.TotalIncome * 100
	}

	var (
		incomeGoal, savingsGoal sql.Null[float64]
		currencyCode            string
	)
	err = q.store.db.QueryRowContext(ctx, `
		SELECT monthly_income_goal, monthly_savings_goal, currency
		FROM users WHERE id = ?`, q.userID).Scan(&incomeGoal, &savingsGoal, &currencyCode)
	if err == sql.ErrNoRows {
		currencyCode = "SEK"
	} else if err != nil {
		return nil, fmt.Errorf("query user goals: %w", err)
	}

	metrics := &FinancialHealthMetrics{
		MonthlyIncome:         round2(income.TotalIncome),
		MonthlyExpenses:       round2(spending.ActiveAmount),
		MonthlySavings:        round2(income.TotalIncome - spending.ActiveAmount),
		SavingsRatePercentage: round2(savingsRate),
		TotalSavingsValue:     round2(totalSavingsValue),
		Currency:              currencyCode,
	}
	if incomeGoal.Valid {
		metrics.IncomeGoal = &incomeGoal.V
	}
	if savingsGoal.Valid {
		metrics.SavingsGoal = &savingsGoal.V
	}
	metrics.MonthlySavingsDisplay = FormatAmount(currencyCode, metrics.MonthlySavings)
	return metrics, nil
}

// ListActiveUserIDs returns ids of all active users, for the recurring
// expense scheduler.
func (s *Store) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarshalPayload renders a query result the way tool results are handed to
// the model.
func MarshalPayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}
