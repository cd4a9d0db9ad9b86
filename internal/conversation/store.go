// Package conversation keeps per-caller chat history in memory: bounded to
// the most recent messages and discarded after a period of inactivity.
package conversation

import (
	"sync"
	"time"

	"github.com/budgetpilot/finassist/internal/llm"
)

const (
	// DefaultMaxMessages caps a session's history; oldest messages drop
	// first.
	DefaultMaxMessages = 20
	// DefaultTimeout is the inactivity window after which a session is
	// evicted.
	DefaultTimeout = 30 * time.Minute
)

type session struct {
	mu          sync.Mutex
	messages    []llm.Message
	lastUpdated time.Time
}

// Store holds one bounded session per caller id. Expiry is checked lazily on
// access, so a stale session simply comes back empty. Each session has its
// own lock, so concurrent requests for the same caller serialize without
// blocking other callers.
type Store struct {
	maxMessages int
	timeout     time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

// Option configures a Store.
type Option func(*Store)

// WithMaxMessages overrides the per-session message cap.
func WithMaxMessages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

// WithTimeout overrides the inactivity eviction window.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a conversation store with the default cap and timeout.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxMessages: DefaultMaxMessages,
		timeout:     DefaultTimeout,
		now:         time.Now,
		sessions:    make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get returns the caller's session, evicting it first if it went stale.
// create controls whether a missing session is allocated.
func (s *Store) get(callerID int64, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[callerID]
	if ok {
		sess.mu.Lock()
		stale := s.now().Sub(sess.lastUpdated) > s.timeout
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, callerID)
			ok = false
		}
	}
	if !ok {
		if !create {
			return nil
		}
		sess = &session{lastUpdated: s.now()}
		s.sessions[callerID] = sess
	}
	return sess
}

// History returns a copy of the caller's messages, oldest first. An expired
// or unknown session yields an empty history, never an error.
func (s *Store) History(callerID int64) []llm.Message {
	sess := s.get(callerID, false)
	if sess == nil {
		return []llm.Message{}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]llm.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Append adds one message to the caller's history and refreshes its
// last-active timestamp. Overflowing messages are dropped oldest-first.
func (s *Store) Append(callerID int64, role, content string) {
	sess := s.get(callerID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.messages = append(sess.messages, llm.Message{Role: role, Content: content})
	if len(sess.messages) > s.maxMessages {
		overflow := len(sess.messages) - s.maxMessages
		sess.messages = append([]llm.Message(nil), sess.messages[overflow:]...)
	}
	sess.lastUpdated = s.now()
}

// Clear discards the caller's session entirely.
func (s *Store) Clear(callerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callerID)
}

// Len reports how many live sessions the store currently holds. Sessions
// that expired but were never touched again still count until next access.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
