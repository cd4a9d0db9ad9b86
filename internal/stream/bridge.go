// Package stream bridges a blocking orchestration invocation into an ordered
// sequence of protocol frames. The orchestration runs in its own goroutine
// and publishes activity events into a bounded channel; the bridge forwards
// them as frames, then closes the sequence with a response and done frame,
// or a single error frame.
package stream

import (
	"context"
	"encoding/json"

	"github.com/budgetpilot/finassist/internal/agent"
)

// eventBuffer bounds the in-flight event queue. A slow frame consumer
// backpressures the orchestration instead of growing memory.
const eventBuffer = 64

// Frame is one unit of the streaming protocol. Type is always present;
// Fields carry the frame-specific payload at the top level.
type Frame struct {
	Type   string
	Fields map[string]any
}

func (f Frame) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(f.Fields)+1)
	for k, v := range f.Fields {
		payload[k] = v
	}
	payload["type"] = f.Type
	return json.Marshal(payload)
}

func startFrame() Frame {
	return Frame{Type: "start", Fields: map[string]any{"agent": "Orchestrator"}}
}

func activityFrame(event agent.Event) Frame {
	fields := map[string]any{"agent": event.Agent}
	if event.Data != nil {
		fields["data"] = event.Data
	} else {
		fields["data"] = map[string]any{}
	}
	return Frame{Type: event.Type, Fields: fields}
}

func responseFrame(result *agent.Result) Frame {
	return Frame{Type: "response", Fields: map[string]any{
		"response":         result.Response,
		"agents_consulted": result.AgentsConsulted,
		"iterations":       result.Iterations,
	}}
}

func doneFrame() Frame {
	return Frame{Type: "done"}
}

func errorFrame(err error) Frame {
	return Frame{Type: "error", Fields: map[string]any{"error": err.Error()}}
}

// Invoke runs one orchestration to completion, publishing activity through
// the given sink.
type Invoke func(ctx context.Context, sink agent.EventSink) (*agent.Result, error)

// Run starts invoke concurrently and returns the frame sequence: a start
// frame, zero or more activity frames in completion order, then either
// response followed by done, or a single error frame. The channel is closed
// after the terminal frame. Cancelling ctx surfaces through invoke's own
// error path.
func Run(ctx context.Context, invoke Invoke) <-chan Frame {
	frames := make(chan Frame, eventBuffer)
	events := make(chan agent.Event, eventBuffer)

	type outcome struct {
		result *agent.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := invoke(ctx, func(event agent.Event) {
			events <- event
		})
		close(events)
		done <- outcome{result: result, err: err}
	}()

	go func() {
		defer close(frames)
		frames <- startFrame()
		for event := range events {
			frames <- activityFrame(event)
		}
		out := <-done
		if out.err != nil {
			frames <- errorFrame(out.err)
			return
		}
		frames <- responseFrame(out.result)
		frames <- doneFrame()
	}()

	return frames
}
