// Package history keeps per-session conversation turns in memory.
package history

import "sync"

type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance. Turns are values and are never modified once appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Exchange pairs a human message with the assistant reply that followed it.
type Exchange struct {
	Human     string `json:"Human"`
	Assistant string `json:"Assistant"`
}

// Session is an append-only turn log for one session id.
type Session struct {
	id string

	mu    sync.RWMutex
	turns []Turn

	// exclusive serializes whole round trips (human turn, generation,
	// assistant turn) on this session.
	exclusive sync.Mutex
}

func (s *Session) ID() string { return s.id }

func (s *Session) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Turns returns a copy of the turn log.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Exclusive runs fn while holding the session's round-trip lock.
func (s *Session) Exclusive(fn func()) {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()
	fn()
}

// Store maps session ids to sessions. Sessions are created on first access
// and live until Reset; there is no eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating an empty one if needed.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = &Session{id: id}
	st.sessions[id] = s
	st.order = append(st.order, id)
	return s
}

// Lookup returns the session for id without registering it.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Append(id string, t Turn) {
	st.GetOrCreate(id).Append(t)
}

func (st *Store) AppendHuman(id, text string) {
	st.Append(id, Turn{Role: RoleHuman, Text: text})
}

func (st *Store) AppendAssistant(id, text string) {
	st.Append(id, Turn{Role: RoleAssistant, Text: text})
}

// Turns returns a snapshot of the session's turns. Unknown ids yield an
// empty, newly registered session.
func (st *Store) Turns(id string) []Turn {
	return st.GetOrCreate(id).Turns()
}

// Reset drops the session and all its turns.
func (st *Store) Reset(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return
	}
	delete(st.sessions, id)
	for i, sid := range st.order {
		if sid == id {
			st.order = append(st.order[:i:i], st.order[i+1:]...)
			break
		}
	}
}

// Sessions returns the registered session ids in creation order.
func (st *Store) Sessions() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

// Exchanges pairs a turn log into human/assistant exchanges. A human turn
// opens an exchange and the next assistant turn fills it; an assistant turn
// with no open exchange gets one with an empty Human side.
func Exchanges(turns []Turn) []Exchange {
	var out []Exchange
	open := false
	for _, t := range turns {
		switch t.Role {
		case RoleHuman:
			out = append(out, Exchange{Human: t.Text})
			open = true
		case RoleAssistant:
			if open {
				out[len(out)-1].Assistant = t.Text
				open = false
			} else {
				out = append(out, Exchange{Assistant: t.Text})
			}
		}
	}
	return out
}
