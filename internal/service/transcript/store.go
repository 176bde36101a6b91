package transcript

import (
	"sync"

	"github.com/pethealthai/advisor/internal/model/chat"
)

// Greeting opens every fresh session.
const Greeting = "Hello! I'm PetHealth AI. How can I help you and your pet today?"

// Store holds the append-only message sequence for one session. It is the
// single source of truth both for rendering and for the context replayed to
// the backend. Nothing is persisted across restarts.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewStore returns a Store seeded with the assistant greeting.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Append adds a message to the end of the sequence. Entries are never
// de-duplicated or mutated afterwards.
func (s *Store) Append(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Reset replaces the whole sequence with a single fresh greeting, discarding
// all prior context sent to the backend on subsequent turns.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []chat.Message{chat.NewAssistantMessage(Greeting, chat.UrgencyNormal)}
}

// Messages returns a defensive copy of the sequence for rendering.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports the number of transcript entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Context maps the sequence as it exists right now onto {sender, text}
// pairs. Callers snapshot it before appending the in-flight user message, so
// that message is never replayed as its own context; attachments and urgency
// metadata are dropped to bound payload growth.
func (s *Store) Context() []chat.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]chat.HistoryEntry, 0, len(s.messages))
	for _, msg := range s.messages {
		history = append(history, chat.HistoryEntry{Sender: msg.Sender, Text: msg.Text})
	}
	return history
}

// Last returns the most recent entry, if any.
func (s *Store) Last() (chat.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return chat.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}
