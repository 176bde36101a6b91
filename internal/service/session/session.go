// Package session drives one conversation: it composes requests, submits
// them for triage, and routes the outcome either back into the transcript or
// out to the emergency workflow.
package session

import (
	"context"
	"errors"
	"log"

	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/service/transcript"
	"github.com/pethealthai/advisor/internal/service/triage"
)

// State is the session's position in the conversational state machine.
type State string

const (
	// StateConversing is the initial chat state.
	StateConversing State = "conversing"
	// StateEscalated means control has transferred to the emergency
	// workflow for the current turn. The transcript stays intact.
	StateEscalated State = "escalated"
)

// ErrBusy refuses a second submission while one is still in flight. The
// caller disables its submit affordance; nothing is queued or cancelled.
var ErrBusy = errors.New("a submission is already in flight")

// TurnKind tags the outcome of one completed turn.
type TurnKind string

const (
	TurnReply    TurnKind = "reply"
	TurnFault    TurnKind = "fault"
	TurnEscalate TurnKind = "escalate"
)

// Escalation carries the urgent advisory into the emergency workflow.
type Escalation struct {
	AdviceText   string
	ImageSummary string
}

// Turn is the explicit transition value returned to the caller, which
// performs any actual navigation itself; the core triggers no UI side
// effects.
type Turn struct {
	Kind       TurnKind
	Reply      *chat.Message
	Fault      *triage.Fault
	Escalation *Escalation
}

// Session owns the per-conversation state: transcript, composer, triage
// client, busy flag, and escalation state.
type Session struct {
	store    *transcript.Store
	composer *triage.Composer
	client   *triage.Client

	state State
	busy  bool
}

// New assembles a session around its collaborators.
func New(store *transcript.Store, composer *triage.Composer, client *triage.Client) *Session {
	return &Session{
		store:    store,
		composer: composer,
		client:   client,
		state:    StateConversing,
	}
}

// State reports the current conversational state.
func (s *Session) State() State { return s.state }

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool { return s.busy }

// Transcript exposes the backing store for rendering.
func (s *Session) Transcript() *transcript.Store { return s.store }

// Composer exposes attachment staging to the input boundary.
func (s *Session) Composer() *triage.Composer { return s.composer }

// Reset starts a fresh conversation: single greeting, conversing state.
func (s *Session) Reset() {
	s.store.Reset()
	s.state = StateConversing
}

// Resume returns from the emergency workflow to the untouched conversation.
func (s *Session) Resume() {
	s.state = StateConversing
}

// Send runs one full turn. A completed turn appends exactly two transcript
// entries (the user message, then the reply or a classified error); an
// empty-input rejection appends none; an escalated turn appends only the
// user message and hands the advisory to the emergency workflow.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	if s.busy {
		return Turn{}, ErrBusy
	}

	req, err := s.composer.Compose(text)
	if err != nil {
		// Local pre-flight rejection; the transcript is untouched.
		return Turn{}, err
	}

	s.busy = true
	defer func() { s.busy = false }()

	attachmentName := ""
	if req.Attachment != nil {
		attachmentName = req.Attachment.Name
	}
	s.store.Append(chat.NewUserMessage(req.Message, attachmentName))

	advice, err := s.client.Submit(ctx, req)
	if err != nil {
		fault := triage.FaultFrom(err)
		s.store.Append(chat.NewErrorMessage(fault.Message))
		return Turn{Kind: TurnFault, Fault: fault}, nil
	}

	if advice.Urgency == chat.UrgencyUrgent && advice.Escalate {
		// Urgency alone is not enough: the response must also carry the
		// explicit escalation flag. Non-destructive handoff, so returning
		// to the chat preserves history.
		log.Printf("[session] escalating to emergency workflow")
		s.state = StateEscalated
		return Turn{
			Kind: TurnEscalate,
			Escalation: &Escalation{
				AdviceText:   advice.Text,
				ImageSummary: advice.ImageSummary,
			},
		}, nil
	}

	body := advice.Text
	if advice.ImageSummary != "" {
		body += "\n\nImage analysis: " + advice.ImageSummary
	}
	reply := chat.NewAssistantMessage(body, advice.Urgency)
	s.store.Append(reply)
	return Turn{Kind: TurnReply, Reply: &reply}, nil
}
