package agent

// Consultation records one delegation to a specialized agent: which agent,
// during which loop iteration (1-based), and how it ended. Delegations that
// happen during the same iteration share the iteration number.
type Consultation struct {
	Agent     string `json:"agent"`
	Iteration int    `json:"iteration"`
	Status    string `json:"status"`
}

// Result is the outcome of one orchestrated chat invocation.
// AgentsConsulted is deduplicated; Timeline keeps every delegation.
type Result struct {
	Response        string         `json:"response"`
	AgentsConsulted []string       `json:"agents_consulted"`
	Timeline        []Consultation `json:"agent_timeline"`
	Iterations      int            `json:"iterations"`
}

// Event is one unit of the live-activity feed published while an
// orchestration runs.
type Event struct {
	Type  string         `json:"type"`
	Agent string         `json:"agent,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// EventSink receives events as delegations complete. The orchestration loop
// calls it inline, so a slow sink slows the loop.
type EventSink func(event Event)
