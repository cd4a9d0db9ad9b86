package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/tools"
	"github.com/budgetpilot/finassist/pkg/log"
)

const orchestratorName = "Financial Assistant Orchestrator"

var delegationParams = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "The specific question to ask the agent"}
	},
	"required": ["query"]
}`)

// Orchestrator is an agent whose only capabilities are delegations to the
// specialized agents it owns. It records which agents were consulted, in
// which iteration, and publishes activity events to an optional sink.
type Orchestrator struct {
	agent    *Agent
	analyst  *Agent
	advisor  *Agent
	info     *Agent
	sink     EventSink
	invokeID string
}

// OrchestratorOption configures optional orchestrator capabilities.
type OrchestratorOption func(*orchestratorOptions)

type orchestratorOptions struct {
	search *tools.WebSearch
}

// WithWebSearch enables the Financial Information Specialist as a third
// delegation target, backed by the given search capability.
func WithWebSearch(search *tools.WebSearch) OrchestratorOption {
	return func(o *orchestratorOptions) { o.search = search }
}

// NewOrchestrator builds a per-request orchestrator for one user. The
// profile is loaded up front so instructions carry the user's currency,
// timezone, and the current date in that timezone.
func NewOrchestrator(ctx context.Context, client *llm.Client, store *findata.Store, userID int64, maxIterations int, opts ...OrchestratorOption) (*Orchestrator, error) {
	var options orchestratorOptions
	for _, opt := range opts {
		opt(&options)
	}

	q := findata.NewQueries(store, userID)
	profile, err := q.GetUserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user profile: %w", err)
	}

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		log.Warn("unknown timezone %q for user %d, using UTC", profile.Timezone, userID)
		loc = time.UTC
		profile.Timezone = "UTC"
	}
	now := time.Now().In(loc)

	extraAgent := ""
	if options.search != nil {
		extraAgent = `

3. Financial Information Specialist: Expert at general financial knowledge, bank and platform comparisons, and current rates and fees
   - Use for: "Compare Avanza and Nordnet", "What is an ISK?", "Current interest rates"`
	}

	instructions := fmt.Sprintf(`CURRENT DATE & TIME (CRITICAL - YOU MUST KNOW THIS):
- Today's Date: %s
- Current Time: %s
- Current Month: %s (%s)
- Day of Week: %s
- Timezone: %s

IMPORTANT USER CONTEXT (MEMORIZE THIS):
- User Name: %s
- Currency: %s
- Timezone: %[6]s
- Household Members: %[9]v
- Vehicles: %[10]v
- Housing Type: %[11]v
- House Size: %[12]v sqm
- Monthly Income Goal: %[13]v
- Monthly Savings Goal: %[14]v

CRITICAL: Always use %[8]s when displaying amounts!
CRITICAL: All date/time references are in user's timezone (%[6]s)!

You are the main orchestrator for a multi-agent financial assistant system.

Your role:
- Understand user queries and determine which specialized agent(s) to invoke
- Route data analysis questions to the Data Analyst
- Route financial advice questions to the Financial Advisor
- Combine insights from multiple agents when needed
- Provide direct answers for simple greetings or general questions

Available Agents:
1. Data Analyst: Expert at analyzing spending patterns, data breakdowns, and database queries
   - Use for: "How much did I spend?", "Show my category breakdown", "What are my trends?"

2. Financial Advisor: Expert at providing financial advice and recommendations
   - Use for: "How can I save more?", "Is my budget healthy?", "Financial advice"%[15]s

Decision Rules:
- If the user asks for DATA or ANALYSIS, route to the Data Analyst
- If the user asks for ADVICE or RECOMMENDATIONS, route to the Financial Advisor
- If the query needs BOTH data analysis AND advice, use both agents
- For greetings or simple questions, respond directly without invoking agents

When invoking agents:
1. Choose the appropriate agent(s) based on query intent
2. Formulate a clear question for each agent
3. Wait for agent responses
4. Synthesize responses into a coherent answer for the user
5. Maintain a friendly, helpful tone
6. ALWAYS reference user's name and use their currency`,
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		now.Format("January 2006"),
		now.Format("2006-01"),
		now.Format("Monday"),
		profile.Timezone,
		profile.FullName,
		profile.Currency,
		profile.HouseholdInfo.HouseholdMembers,
		profile.HouseholdInfo.NumVehicles,
		profile.HouseholdInfo.HousingType,
		profile.HouseholdInfo.HouseSizeSqm,
		profile.FinancialGoals.MonthlyIncomeGoal,
		profile.FinancialGoals.MonthlySavingsGoal,
		extraAgent,
	)

	o := &Orchestrator{
		analyst:  NewDataAnalyst(client, q, profile, maxIterations),
		advisor:  NewFinancialAdvisor(client, q, profile, maxIterations),
		invokeID: uuid.NewString(),
	}

	registry := tools.NewRegistry()
	registry.MustRegister(
		delegationTool("consult_data_analyst",
			"Consult the Data Analyst for data analysis, spending patterns, breakdowns, and trends",
			o.analyst),
		delegationTool("consult_financial_advisor",
			"Consult the Financial Advisor for budget advice, savings optimization, and financial recommendations",
			o.advisor),
	)
	if options.search != nil {
		o.info = NewFinancialInfo(client, options.search, profile, maxIterations)
		registry.MustRegister(delegationTool("consult_financial_info",
			"Consult the Financial Information Specialist for general financial knowledge, current rates and fees, and institution comparisons",
			o.info))
	}

	o.agent = New(orchestratorName, "Intelligent Query Router and Coordinator", instructions, client, registry, maxIterations)
	return o, nil
}

// SetEventSink attaches a live-activity sink. Must be set before Chat.
func (o *Orchestrator) SetEventSink(sink EventSink) { o.sink = sink }

// SetHistory seeds the orchestrator's conversation history from a stored
// session.
func (o *Orchestrator) SetHistory(messages []llm.Message) { o.agent.SetHistory(messages) }

// InvocationID identifies this orchestrator instance in logs.
func (o *Orchestrator) InvocationID() string { return o.invokeID }

func (o *Orchestrator) emit(event Event) {
	if o.sink != nil {
		o.sink(event)
	}
}

// Chat runs the orchestration loop for one user message. Every successful
// delegation is recorded: AgentsConsulted deduplicates, Timeline keeps each
// delegation under the iteration it ran in. A sub-agent that exhausts its
// own budget still counts as a completed consultation.
func (o *Orchestrator) Chat(ctx context.Context, userMessage string) (*Result, error) {
	var (
		consulted []string
		seen      = map[string]struct{}{}
		timeline  []Consultation
	)

	observe := func(iteration int, toolName string, result tools.ToolResult) {
		if result.IsError {
			return
		}
		var payload struct {
			Agent    string `json:"agent"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal([]byte(result.Content), &payload); err != nil || payload.Agent == "" {
			return
		}
		if _, dup := seen[payload.Agent]; !dup {
			seen[payload.Agent] = struct{}{}
			consulted = append(consulted, payload.Agent)
		}
		timeline = append(timeline, Consultation{
			Agent:     payload.Agent,
			Iteration: iteration,
			Status:    "completed",
		})
		o.emit(Event{
			Type:  "agent-activity",
			Agent: payload.Agent,
			Data:  map[string]any{"iteration": iteration},
		})
		log.Debug("orchestration %s: consulted %s in iteration %d", o.invokeID, payload.Agent, iteration)
	}

	text, iterations, err := o.agent.run(ctx, userMessage, observe)
	if err != nil {
		return nil, err
	}

	if consulted == nil {
		consulted = []string{}
	}
	if timeline == nil {
		timeline = []Consultation{}
	}
	return &Result{
		Response:        text,
		AgentsConsulted: consulted,
		Timeline:        timeline,
		Iterations:      iterations,
	}, nil
}

// delegationTool runs the target agent's full loop as a capability. The
// sub-agent's answer, fallback text included, is wrapped as a successful
// consultation payload; only a real sub-agent failure aborts the
// orchestration.
func delegationTool(name, description string, sub *Agent) tools.Tool {
	return tools.Func{
		ToolName:        name,
		ToolDescription: description,
		ToolParameters:  delegationParams,
		Fn: func(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
			var a struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return tools.ToolResult{}, fmt.Errorf("parse arguments: %w", err)
			}
			if strings.TrimSpace(a.Query) == "" {
				return tools.ToolResult{}, fmt.Errorf("query is required")
			}

			response, err := sub.Chat(ctx, a.Query)
			if err != nil {
				return tools.ToolResult{}, abort(fmt.Errorf("delegate to %s: %w", sub.Name(), err))
			}

			payload, err := json.Marshal(map[string]string{
				"agent":    sub.Name(),
				"response": response,
			})
			if err != nil {
				return tools.ToolResult{}, err
			}
			return tools.ToolResult{Content: string(payload)}, nil
		},
	}
}
