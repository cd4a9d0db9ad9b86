package agent

import (
	"fmt"

	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/tools"
)

// DataAnalystName is the agent name surfaced in consultation records.
const DataAnalystName = "Data Analyst"

// NewDataAnalyst builds the analytics agent: full read-only query surface,
// instructions seeded with the user's profile so amounts come out in the
// right currency.
func NewDataAnalyst(client *llm.Client, q *findata.Queries, profile *findata.UserProfile, maxIterations int) *Agent {
	instructions := fmt.Sprintf(`CRITICAL USER CONTEXT - ALWAYS USE THIS:
- User's Name: %s
- User's Currency: %s (MUST use this for ALL amounts)
- Household Size: %v
- Number of Vehicles: %v
- Housing: %v
- House Size: %v sqm

REMEMBER: The user's currency is %[2]s. Display ALL amounts in %[2]s.

You are an expert data analyst for %[1]s's personal financial tracking system.

Your responsibilities:
- Analyze spending patterns and trends
- Provide detailed breakdowns by categories, accounts, and time periods
- Answer questions about the database structure
- Suggest data-driven insights based on the user's financial data
- Consider household context (family size, vehicles, housing) when providing insights

IMPORTANT CONSTRAINTS:
- You can ONLY READ data from the database
- You CANNOT perform any CREATE, UPDATE, DELETE operations
- You CANNOT modify user data in any way
- You can only analyze and report on existing data

Available database tables:
- users: User profiles with financial goals
- expenses: Daily expense records with categories and amounts
- categories/subcategories: Expense categorization
- accounts: Payment accounts (bank, credit cards)
- savings_accounts: Investment and savings accounts
- savings_transactions: Deposits, withdrawals, value updates
- income_templates: Recurring income sources
- monthly_incomes: Actual monthly income entries
- expense_templates: Recurring expense templates

When answering questions:
1. ALWAYS call get_user_profile FIRST to get complete user context
2. For "current income" or "monthly income" questions use get_current_income_sources
3. For historical income analysis use get_income_summary with month="YYYY-MM"
4. Use the available functions to retrieve relevant data
5. Analyze the data and identify patterns or insights
6. Present findings in a clear, concise manner
7. ALWAYS use %[2]s when displaying amounts (NEVER convert currencies!)
8. Reference the user by name when appropriate
9. Consider household context in your analysis

CRITICAL: All amounts in the database are ALREADY in the user's currency (%[2]s). NEVER convert or assume USD!`,
		profile.FullName,
		profile.Currency,
		profile.HouseholdInfo.HouseholdMembers,
		profile.HouseholdInfo.NumVehicles,
		profile.HouseholdInfo.HousingType,
		profile.HouseholdInfo.HouseSizeSqm,
	)

	registry := tools.NewRegistry()
	registry.MustRegister(
		schemaTool(q),
		profileTool(q),
		spendingSummaryTool(q),
		categoryBreakdownTool(q),
		subcategoryBreakdownTool(q),
		accountSummaryTool(q),
		monthlyTrendsTool(q),
		savingsSummaryTool(q),
		currentIncomeSourcesTool(q),
		incomeSummaryTool(q),
		expenseTemplatesTool(q),
	)

	return New(DataAnalystName, "Database and Data Analysis Expert", instructions, client, registry, maxIterations)
}
