package triage

import (
	"errors"
	"strings"

	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/service/transcript"
)

// ErrEmptyInput rejects a submit with neither text nor attachment. It is a
// local pre-flight signal; no network call is made and nothing reaches the
// transcript.
var ErrEmptyInput = errors.New("enter a message or attach an image before sending")

// OutboundRequest is one fully assembled user turn. Message and Attachment
// cannot both be absent.
type OutboundRequest struct {
	Message    string
	History    []chat.HistoryEntry
	Attachment *chat.PendingAttachment
}

// Composer validates and assembles one OutboundRequest per submit. It also
// owns the single pending attachment slot.
type Composer struct {
	store   *transcript.Store
	pending *chat.PendingAttachment
}

// NewComposer binds a composer to the session's transcript store.
func NewComposer(store *transcript.Store) *Composer {
	return &Composer{store: store}
}

// Attach validates and stages an image for the next submit. Validation
// happens here, at selection time, not at submit time; a rejected file is
// never staged. A previously staged attachment is replaced.
func (c *Composer) Attach(att chat.PendingAttachment) error {
	if err := chat.ValidateAttachment(att.MIMEType, att.SizeBytes); err != nil {
		return err
	}
	staged := att
	c.pending = &staged
	return nil
}

// RemoveAttachment discards the pending attachment, if any.
func (c *Composer) RemoveAttachment() {
	c.pending = nil
}

// Pending returns the currently staged attachment, if any.
func (c *Composer) Pending() *chat.PendingAttachment {
	return c.pending
}

// Compose captures the trimmed text, the transcript context as it exists
// before the new user message, and the staged attachment. The attachment is
// consumed: send destroys it regardless of the exchange's outcome.
func (c *Composer) Compose(text string) (OutboundRequest, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && c.pending == nil {
		return OutboundRequest{}, ErrEmptyInput
	}

	att := c.pending
	c.pending = nil

	return OutboundRequest{
		Message:    trimmed,
		History:    c.store.Context(),
		Attachment: att,
	}, nil
}
