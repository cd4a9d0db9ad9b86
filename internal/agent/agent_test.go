package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/tools"
)

// scriptedServer replays canned completion responses in order and records
// every request it saw.
type scriptedServer struct {
	mu        sync.Mutex
	responses []llm.ChatResponse
	requests  []llm.ChatRequest
	server    *httptest.Server
}

func newScriptedServer(t *testing.T, responses ...llm.ChatResponse) *scriptedServer {
	t.Helper()
	s := &scriptedServer{responses: responses}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		s.requests = append(s.requests, req)
		if len(s.responses) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"script exhausted","type":"test"}}`))
			return
		}
		next := s.responses[0]
		s.responses = s.responses[1:]
		_ = json.NewEncoder(w).Encode(next)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *scriptedServer) client(t *testing.T) *llm.Client {
	t.Helper()
	client, err := llm.NewClient(&llm.Config{
		APIKey:      "test-key",
		APIURL:      s.server.URL,
		Model:       "test-model",
		MaxTokens:   512,
		Temperature: 0.1,
		Timeout:     5,
	})
	require.NoError(t, err)
	return client
}

func (s *scriptedServer) recorded() []llm.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func textResponse(text string) llm.ChatResponse {
	return llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: "assistant", Content: text},
			FinishReason: "stop",
		}},
	}
}

func toolCallResponse(calls ...llm.ToolCall) llm.ChatResponse {
	return llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: "assistant", ToolCalls: calls},
			FinishReason: "tool_calls",
		}},
	}
}

func call(id, name, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func echoTool(executed *[]string) tools.Tool {
	return tools.Func{
		ToolName:        "echo",
		ToolDescription: "echoes its arguments",
		ToolParameters:  json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":[]}`),
		Fn: func(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
			if executed != nil {
				*executed = append(*executed, "echo:"+string(args))
			}
			return tools.ToolResult{Content: string(args)}, nil
		},
	}
}

func TestChatReturnsFinalText(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t, textResponse("hello there"))
	a := New("Tester", "test agent", "answer briefly", server.client(t), nil, 5)

	text, err := a.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	requests := server.recorded()
	require.Len(t, requests, 1)
	require.NotEmpty(t, requests[0].Messages)
	assert.Equal(t, "system", requests[0].Messages[0].Role)
	assert.Contains(t, requests[0].Messages[0].Content, "Tester")
}

func TestToolCallRoundTrip(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(call("call_1", "echo", `{"text":"ping"}`)),
		textResponse("done"),
	)
	var executed []string
	registry := tools.NewRegistry()
	registry.MustRegister(echoTool(&executed))
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 5)

	text, err := a.Chat(context.Background(), "ping me")
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, []string{`echo:{"text":"ping"}`}, executed)

	requests := server.recorded()
	require.Len(t, requests, 2)
	second := requests[1].Messages
	// system, user, assistant tool-call turn, tool result
	require.Len(t, second, 4)
	assert.Equal(t, "assistant", second[2].Role)
	require.Len(t, second[2].ToolCalls, 1)
	assert.Equal(t, "tool", second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.JSONEq(t, `{"text":"ping"}`, second[3].Content)
}

func TestUnknownFunctionFeedsStructuredError(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(call("call_1", "summon_dragon", `{}`)),
		textResponse("recovered"),
	)
	registry := tools.NewRegistry()
	registry.MustRegister(echoTool(nil))
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 5)

	text, err := a.Chat(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)

	requests := server.recorded()
	require.Len(t, requests, 2)
	messages := requests[1].Messages
	last := messages[len(messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.JSONEq(t, `{"error":"Unknown function: summon_dragon"}`, last.Content)
}

func TestToolFailureFeedsStructuredError(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(call("call_1", "flaky", `{}`)),
		textResponse("recovered"),
	)
	registry := tools.NewRegistry()
	registry.MustRegister(tools.Func{
		ToolName: "flaky",
		Fn: func(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
			return tools.ToolResult{}, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", "soon")
		},
	})
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 5)

	text, err := a.Chat(context.Background(), "look up soon")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)

	requests := server.recorded()
	messages := requests[1].Messages
	last := messages[len(messages)-1]
	assert.Equal(t, "tool", last.Role)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(last.Content), &payload))
	assert.Contains(t, payload["error"], "invalid start_date")
}

func TestMultipleToolCallsExecuteInOrder(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(
			call("call_1", "echo", `{"text":"first"}`),
			call("call_2", "echo", `{"text":"second"}`),
		),
		textResponse("combined"),
	)
	var executed []string
	registry := tools.NewRegistry()
	registry.MustRegister(echoTool(&executed))
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 5)

	text, err := a.Chat(context.Background(), "both please")
	require.NoError(t, err)
	assert.Equal(t, "combined", text)
	assert.Equal(t, []string{`echo:{"text":"first"}`, `echo:{"text":"second"}`}, executed)

	messages := server.recorded()[1].Messages
	// system, user, assistant, tool, tool
	require.Len(t, messages, 5)
	assert.Equal(t, "call_1", messages[3].ToolCallID)
	assert.Equal(t, "call_2", messages[4].ToolCallID)
}

func TestIterationExhaustionReturnsFallback(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(call("call_1", "echo", `{}`)),
		toolCallResponse(call("call_2", "echo", `{}`)),
	)
	registry := tools.NewRegistry()
	registry.MustRegister(echoTool(nil))
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 2)

	text, err := a.Chat(context.Background(), "never stop")
	require.NoError(t, err)
	assert.Equal(t, fallbackResponse, text)
	assert.Len(t, server.recorded(), 2)
}

func TestCompletionFailurePropagates(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t) // empty script: every call fails
	a := New("Tester", "test agent", "answer", server.client(t), nil, 5)

	_, err := a.Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exhausted")
}

func TestHistoryKeepsOnlyUserAndFinalTurns(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t,
		toolCallResponse(call("call_1", "echo", `{}`)),
		textResponse("final answer"),
	)
	registry := tools.NewRegistry()
	registry.MustRegister(echoTool(nil))
	a := New("Tester", "test agent", "use tools", server.client(t), registry, 5)

	_, err := a.Chat(context.Background(), "question")
	require.NoError(t, err)

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "question", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "final answer", history[1].Content)
}

func TestSetHistorySeedsContext(t *testing.T) {
	t.Parallel()

	server := newScriptedServer(t, textResponse("with context"))
	a := New("Tester", "test agent", "answer", server.client(t), nil, 5)
	a.SetHistory([]llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	})

	_, err := a.Chat(context.Background(), "follow-up")
	require.NoError(t, err)

	messages := server.recorded()[0].Messages
	require.Len(t, messages, 4)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Equal(t, "earlier answer", messages[2].Content)
	assert.Equal(t, "follow-up", messages[3].Content)
}

func TestAbortErrorUnwraps(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := abort(base)
	assert.ErrorIs(t, err, base)
}
