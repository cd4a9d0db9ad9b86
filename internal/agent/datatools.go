package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/internal/tools"
)

// Parameter schemas for the data capabilities, in completion-service JSON
// Schema form.
var (
	noParams = json.RawMessage(`{"type":"object","properties":{},"required":[]}`)

	dateRangeParams = json.RawMessage(`{
		"type": "object",
		"properties": {
			"start_date": {"type": "string", "description": "Start date in YYYY-MM-DD format (optional)"},
			"end_date": {"type": "string", "description": "End date in YYYY-MM-DD format (optional)"}
		},
		"required": []
	}`)

	subcategoryParams = json.RawMessage(`{
		"type": "object",
		"properties": {
			"category_name": {"type": "string", "description": "Filter by specific category name (optional)"}
		},
		"required": []
	}`)

	trendParams = json.RawMessage(`{
		"type": "object",
		"properties": {
			"months": {"type": "integer", "description": "Number of months to retrieve (default: 6)"}
		},
		"required": []
	}`)

	monthParams = json.RawMessage(`{
		"type": "object",
		"properties": {
			"month": {"type": "string", "description": "Month in YYYY-MM format (optional, defaults to current month)"}
		},
		"required": []
	}`)
)

type dateRangeArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (a dateRangeArgs) validate() error {
	if err := validateDate("start_date", a.StartDate); err != nil {
		return err
	}
	return validateDate("end_date", a.EndDate)
}

func validateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, value)
	}
	return nil
}

func validateMonth(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01", value); err != nil {
		return fmt.Errorf("invalid month %q: expected YYYY-MM", value)
	}
	return nil
}

// queryTool wraps a data query into a Tool, serializing the result the way
// tool payloads are handed back to the model.
func queryTool(name, description string, params json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error)) tools.Tool {
	return tools.Func{
		ToolName:        name,
		ToolDescription: description,
		ToolParameters:  params,
		Fn: func(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
			payload, err := fn(ctx, args)
			if err != nil {
				return tools.ToolResult{}, err
			}
			content, err := findata.MarshalPayload(payload)
			if err != nil {
				return tools.ToolResult{}, err
			}
			return tools.ToolResult{Content: content}, nil
		},
	}
}

func schemaTool(q *findata.Queries) tools.Tool {
	return queryTool("get_database_schema",
		"Get complete database schema information including all tables and columns",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.DatabaseSchema(), nil
		})
}

func profileTool(q *findata.Queries) tools.Tool {
	return queryTool("get_user_profile",
		"Get user's profile including financial goals and household information",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetUserProfile(ctx)
		})
}

func spendingSummaryTool(q *findata.Queries) tools.Tool {
	return queryTool("get_spending_summary",
		"Get spending summary for a date range",
		dateRangeParams,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var a dateRangeArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			if err := a.validate(); err != nil {
				return nil, err
			}
			return q.GetSpendingSummary(ctx, a.StartDate, a.EndDate)
		})
}

func categoryBreakdownTool(q *findata.Queries) tools.Tool {
	return queryTool("get_category_breakdown",
		"Get spending breakdown by category for a date range",
		dateRangeParams,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var a dateRangeArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			if err := a.validate(); err != nil {
				return nil, err
			}
			return q.GetCategoryBreakdown(ctx, a.StartDate, a.EndDate)
		})
}

func subcategoryBreakdownTool(q *findata.Queries) tools.Tool {
	return queryTool("get_subcategory_breakdown",
		"Get spending breakdown by subcategory, optionally filtered by category",
		subcategoryParams,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var a struct {
				CategoryName string `json:"category_name"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return q.GetSubcategoryBreakdown(ctx, a.CategoryName)
		})
}

func accountSummaryTool(q *findata.Queries) tools.Tool {
	return queryTool("get_account_summary",
		"Get spending summary by payment account",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetAccountSummary(ctx)
		})
}

func monthlyTrendsTool(q *findata.Queries) tools.Tool {
	return queryTool("get_monthly_trends",
		"Get monthly spending trends for the last N months",
		trendParams,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var a struct {
				Months int `json:"months"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return q.GetMonthlyTrends(ctx, a.Months)
		})
}

func savingsSummaryTool(q *findata.Queries) tools.Tool {
	return queryTool("get_savings_summary",
		"Get complete savings and investment summary with profit/loss",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetSavingsSummary(ctx)
		})
}

func currentIncomeSourcesTool(q *findata.Queries) tools.Tool {
	return queryTool("get_current_income_sources",
		"Get CURRENT recurring monthly income sources and amounts (NOT historical totals). Use this when user asks about 'current income' or 'monthly income'.",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetCurrentIncomeSources(ctx)
		})
}

func incomeSummaryTool(q *findata.Queries) tools.Tool {
	return queryTool("get_income_summary",
		"Get income summary for a SPECIFIC month (YYYY-MM format). Use this for historical income analysis, NOT for current income.",
		monthParams,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var a struct {
				Month string `json:"month"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			if err := validateMonth(a.Month); err != nil {
				return nil, err
			}
			return q.GetIncomeSummary(ctx, a.Month)
		})
}

func expenseTemplatesTool(q *findata.Queries) tools.Tool {
	return queryTool("get_expense_templates",
		"Get all recurring expense templates",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetExpenseTemplates(ctx)
		})
}

func healthMetricsTool(q *findata.Queries) tools.Tool {
	return queryTool("get_financial_health_metrics",
		"Get comprehensive financial health metrics including income, expenses, savings rate, and goals",
		noParams,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return q.GetFinancialHealthMetrics(ctx)
		})
}
