// Package agent implements the bounded tool-calling loop, the specialized
// finance agents built on it, and the orchestrator that delegates between
// them.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/tools"
	"github.com/budgetpilot/finassist/pkg/log"
)

const defaultMaxIterations = 5

// fallbackResponse is returned when the loop runs out of iterations without
// the model producing a final answer. Exhaustion is a normal terminal state,
// not an error.
const fallbackResponse = "I've processed your request but needed more iterations to complete. Please try rephrasing your question."

// Agent holds an identity, instructions, a capability registry, and a
// completion-service handle, and runs the bounded tool-call loop over them.
type Agent struct {
	name          string
	role          string
	instructions  string
	client        *llm.Client
	registry      *tools.Registry
	maxIterations int

	mu      sync.Mutex
	history []llm.Message
}

// New constructs an agent. maxIterations <= 0 selects the default budget.
func New(name, role, instructions string, client *llm.Client, registry *tools.Registry, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Agent{
		name:          name,
		role:          role,
		instructions:  instructions,
		client:        client,
		registry:      registry,
		maxIterations: maxIterations,
	}
}

func (a *Agent) Name() string { return a.name }

// SetHistory replaces the agent's conversation history, for resuming a
// stored session.
func (a *Agent) SetHistory(messages []llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = make([]llm.Message, len(messages))
	copy(a.history, messages)
}

// History returns a copy of the conversation history.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the conversation history.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf("You are %s, a %s.\n\n%s", a.name, a.role, a.instructions)
}

// Chat runs the tool-calling loop for one user message and returns the final
// text, or the fallback text when the iteration budget runs out.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	text, _, err := a.run(ctx, userMessage, nil)
	return text, err
}

// toolObserver is called after each capability execution with the 1-based
// iteration number during which it ran.
type toolObserver func(iteration int, toolName string, result tools.ToolResult)

// run is the loop shared by Chat and the orchestrator. Only the user message
// and the final assistant text enter persistent history; the intermediate
// tool-call exchange lives on the working copy for this invocation alone.
func (a *Agent) run(ctx context.Context, userMessage string, observe toolObserver) (string, int, error) {
	a.mu.Lock()
	a.history = append(a.history, llm.Message{Role: "user", Content: userMessage})
	working := make([]llm.Message, len(a.history))
	copy(working, a.history)
	a.mu.Unlock()

	opts := llm.NewChatCompletionOptions().WithSystemPrompt(a.systemPrompt())
	definitions := a.registry.Definitions()

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		var (
			response *llm.ChatResponse
			err      error
		)
		if len(definitions) > 0 {
			response, err = a.client.ChatCompletionWithTools(ctx, working, definitions, opts)
		} else {
			response, err = a.client.ChatCompletion(ctx, working, opts)
		}
		if err != nil {
			return "", iteration + 1, fmt.Errorf("completion request for %s: %w", a.name, err)
		}
		if len(response.Choices) == 0 {
			return "", iteration + 1, fmt.Errorf("completion response for %s had no choices", a.name)
		}

		message := response.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			a.mu.Lock()
			a.history = append(a.history, llm.Message{Role: "assistant", Content: message.Content})
			a.mu.Unlock()
			return message.Content, iteration + 1, nil
		}

		working = append(working, message)
		for _, call := range message.ToolCalls {
			result, err := a.executeTool(ctx, call)
			if err != nil {
				return "", iteration + 1, err
			}
			if observe != nil {
				observe(iteration+1, call.Function.Name, result)
			}
			working = append(working, llm.Message{
				Role:       "tool",
				Content:    result.Content,
				ToolCallID: call.ID,
			})
		}
	}

	log.Warn("agent %s exhausted %d iterations", a.name, a.maxIterations)
	return fallbackResponse, a.maxIterations, nil
}

// executeTool dispatches one tool call. Unknown names and capability
// failures become structured error payloads fed back to the model so it can
// self-correct; only abortErrors escape as real errors.
func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall) (tools.ToolResult, error) {
	name := call.Function.Name
	tool, ok := a.registry.Get(name)
	if !ok {
		log.Warn("agent %s requested unknown tool %q", a.name, name)
		return errorResult(fmt.Sprintf("Unknown function: %s", name)), nil
	}

	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		var abort *abortError
		if errors.As(err, &abort) {
			return tools.ToolResult{}, abort.err
		}
		log.Warn("tool %s failed for agent %s: %v", name, a.name, err)
		return errorResult(err.Error()), nil
	}
	return result, nil
}

func errorResult(message string) tools.ToolResult {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return tools.ToolResult{Content: string(payload), IsError: true}
}

// abortError marks a tool failure that must end the loop instead of being
// fed back to the model, e.g. the completion service failing inside a
// delegated sub-agent.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

func abort(err error) error { return &abortError{err: err} }
