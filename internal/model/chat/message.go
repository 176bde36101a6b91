package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind distinguishes normal replies from error notices surfaced in the
// transcript.
type Kind string

const (
	KindText  Kind = "text"
	KindError Kind = "error"
)

// Urgency is the triage classification attached to assistant replies.
type Urgency string

const (
	UrgencyNormal Urgency = "NORMAL"
	UrgencyUrgent Urgency = "URGENT"
)

// ParseUrgency maps a wire value onto a known urgency, defaulting to NORMAL
// for anything unrecognized.
func ParseUrgency(raw string) Urgency {
	if raw == string(UrgencyUrgent) {
		return UrgencyUrgent
	}
	return UrgencyNormal
}

// Message is one immutable transcript entry. Entries are only ever appended;
// a session reset replaces the whole sequence.
type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Sender     Sender    `json:"sender"`
	Kind       Kind      `json:"kind"`
	Attachment string    `json:"attachment,omitempty"`
	Urgency    Urgency   `json:"urgency,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryEntry is the reduced form of a message replayed to the backend as
// conversational context. Attachments and urgency metadata are never
// replayed.
type HistoryEntry struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// NewUserMessage builds a transcript entry for locally entered input.
// attachment names the staged image, if any.
func NewUserMessage(text, attachment string) Message {
	return Message{
		ID:         newMessageID(),
		Text:       text,
		Sender:     SenderUser,
		Kind:       KindText,
		Attachment: attachment,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewAssistantMessage builds a transcript entry for a backend reply.
func NewAssistantMessage(text string, urgency Urgency) Message {
	return Message{
		ID:        newMessageID(),
		Text:      text,
		Sender:    SenderAssistant,
		Kind:      KindText,
		Urgency:   urgency,
		CreatedAt: time.Now().UTC(),
	}
}

// NewErrorMessage builds the assistant-sender entry that records a failed
// exchange, keeping the transcript a complete audit trail.
func NewErrorMessage(text string) Message {
	return Message{
		ID:        newMessageID(),
		Text:      text,
		Sender:    SenderAssistant,
		Kind:      KindError,
		CreatedAt: time.Now().UTC(),
	}
}

// newMessageID returns a time-ordered identifier so transcript order stays
// stable under sorting and replay.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
