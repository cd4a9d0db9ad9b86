package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/tools"
)

// FinancialInfoName is the agent name surfaced in consultation records.
const FinancialInfoName = "Financial Information Specialist"

var compareParams = json.RawMessage(`{
	"type": "object",
	"properties": {
		"institution1": {"type": "string", "description": "First institution or product to compare"},
		"institution2": {"type": "string", "description": "Second institution or product to compare"},
		"comparison_type": {"type": "string", "description": "What to compare (e.g., 'savings account', 'ISK', 'fees', 'investment platform')"}
	},
	"required": ["institution1", "institution2", "comparison_type"]
}`)

// NewFinancialInfo builds the general-knowledge agent. Unlike the analyst
// and advisor it reads nothing from the household data; its capabilities go
// out to the web for current rates, fees, and product terms.
func NewFinancialInfo(client *llm.Client, search *tools.WebSearch, profile *findata.UserProfile, maxIterations int) *Agent {
	countryFocus := "International"
	if profile.Currency == "SEK" {
		countryFocus = "Sweden"
	}

	instructions := fmt.Sprintf(`You are a financial information specialist with expertise in:
- Comparing banks and investment platforms
- Explaining financial products (savings accounts, ISK, KF, investment funds)
- Providing current interest rates and fees
- Swedish financial market knowledge (Avanza, Nordea, Nordnet, SEB, Handelsbanken, etc.)
- Investment strategies and account types

User context:
- Preferred currency: %s
- Country focus: %s

Guidelines:
- Always search for the most current information
- Provide balanced, unbiased comparisons
- Cite where the information comes from when possible
- If information is outdated or unavailable, clearly state that
- Focus on Swedish institutions when the user's currency is SEK
- Explain financial terms in simple language
- Consider fees, interest rates, accessibility, and features in comparisons

Swedish financial terminology:
- ISK (Investeringssparkonto) = Investment Savings Account
- KF (Kapitalförsäkring) = Capital Insurance
- Ränta = Interest rate
- Avgift = Fee

Important:
- Use web search to get current, accurate information
- Don't make assumptions about rates or fees - search for them
- Provide multiple perspectives when comparing options`,
		profile.Currency,
		countryFocus,
	)

	registry := tools.NewRegistry()
	registry.MustRegister(
		search,
		compareInstitutionsTool(search),
	)

	return New(FinancialInfoName, "General Financial Knowledge and Comparison Expert", instructions, client, registry, maxIterations)
}

// compareInstitutionsTool frames a two-way comparison as a single search
// over the same backend.
func compareInstitutionsTool(search *tools.WebSearch) tools.Tool {
	return tools.Func{
		ToolName:        "compare_institutions",
		ToolDescription: "Compare specific financial institutions or products",
		ToolParameters:  compareParams,
		Fn: func(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
			var a struct {
				Institution1   string `json:"institution1"`
				Institution2   string `json:"institution2"`
				ComparisonType string `json:"comparison_type"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return tools.ToolResult{}, fmt.Errorf("parse arguments: %w", err)
			}
			if a.Institution1 == "" || a.Institution2 == "" || a.ComparisonType == "" {
				return tools.ToolResult{}, fmt.Errorf("institution1, institution2, and comparison_type are required")
			}

			query := fmt.Sprintf("%s vs %s %s comparison", a.Institution1, a.Institution2, a.ComparisonType)
			content, err := search.Search(ctx, query)
			if err != nil {
				return tools.ToolResult{}, err
			}
			return tools.ToolResult{Content: content}, nil
		},
	}
}
