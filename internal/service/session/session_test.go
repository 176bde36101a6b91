package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/service/session"
	"github.com/pethealthai/advisor/internal/service/transcript"
	"github.com/pethealthai/advisor/internal/service/triage"
)

func newSession(backendURL string, tokens auth.TokenProvider) *session.Session {
	store := transcript.NewStore()
	composer := triage.NewComposer(store)
	client := triage.NewClient(backendURL, tokens, 5*time.Second)
	return session.New(store, composer, client)
}

func respond(t *testing.T, payload map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestNormalTurnAppendsTwoMessages(t *testing.T) {
	srv := respond(t, map[string]any{"response": "Monitor for 24h", "urgency": "NORMAL"})
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	before := sess.Transcript().Len()

	turn, err := sess.Send(context.Background(), "My dog is vomiting")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if turn.Kind != session.TurnReply {
		t.Fatalf("turn kind = %s, want reply", turn.Kind)
	}
	if got := sess.Transcript().Len(); got != before+2 {
		t.Fatalf("transcript grew by %d, want 2", got-before)
	}
	if sess.State() != session.StateConversing {
		t.Fatalf("state = %s, want conversing", sess.State())
	}

	msgs := sess.Transcript().Messages()
	last := msgs[len(msgs)-1]
	if last.Sender != chat.SenderAssistant || last.Text != "Monitor for 24h" {
		t.Fatalf("unexpected last message: %+v", last)
	}
	if sess.Busy() {
		t.Fatal("session still busy after turn")
	}
}

func TestEmptyInputLeavesTranscriptUntouched(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	before := sess.Transcript().Len()

	if _, err := sess.Send(context.Background(), "   "); !errors.Is(err, triage.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if sess.Transcript().Len() != before {
		t.Fatal("empty input must not touch the transcript")
	}
	if requests != 0 {
		t.Fatalf("empty input issued %d HTTP requests", requests)
	}
}

func TestUrgentWithEscalateFlagTransfersControl(t *testing.T) {
	srv := respond(t, map[string]any{
		"response": "Seek care now",
		"urgency":  "URGENT",
		"data": map[string]any{
			"navigate_to_emergency_page": true,
			"sagemaker_analysis":         map[string]any{"summary": "lesion detected"},
		},
	})
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	turn, err := sess.Send(context.Background(), "There is a wound on his leg")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	if turn.Kind != session.TurnEscalate {
		t.Fatalf("turn kind = %s, want escalate", turn.Kind)
	}
	if sess.State() != session.StateEscalated {
		t.Fatalf("state = %s, want escalated", sess.State())
	}
	if turn.Escalation == nil || turn.Escalation.AdviceText != "Seek care now" || turn.Escalation.ImageSummary != "lesion detected" {
		t.Fatalf("escalation payload = %+v", turn.Escalation)
	}

	// No assistant entry for this turn; the transcript's last entry stays
	// the user's own message.
	last, ok := sess.Transcript().Last()
	if !ok || last.Sender != chat.SenderUser {
		t.Fatalf("last message = %+v, want the user's message", last)
	}
}

func TestUrgentWithoutEscalateFlagStaysConversing(t *testing.T) {
	srv := respond(t, map[string]any{"response": "This sounds serious.", "urgency": "URGENT"})
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	turn, err := sess.Send(context.Background(), "He is very lethargic")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if turn.Kind != session.TurnReply {
		t.Fatalf("turn kind = %s, want reply", turn.Kind)
	}
	if sess.State() != session.StateConversing {
		t.Fatalf("urgency alone escalated the session")
	}
}

func TestTokenFailureDegradesToErrorMessage(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider(""))
	before := sess.Transcript().Len()

	turn, err := sess.Send(context.Background(), "hello?")
	if err != nil {
		t.Fatalf("token failure must not fail the turn: %v", err)
	}
	if turn.Kind != session.TurnFault || turn.Fault.Reason != triage.FaultUnauthenticated {
		t.Fatalf("turn = %+v, want unauthenticated fault", turn)
	}
	if requests != 0 {
		t.Fatalf("expected no HTTP request, saw %d", requests)
	}
	if got := sess.Transcript().Len(); got != before+2 {
		t.Fatalf("transcript grew by %d, want 2 (user + error)", got-before)
	}

	last, _ := sess.Transcript().Last()
	if last.Sender != chat.SenderAssistant || last.Kind != chat.KindError {
		t.Fatalf("last message = %+v, want assistant error entry", last)
	}
	if last.Text != triage.MsgReLogin {
		t.Fatalf("error text = %q", last.Text)
	}
}

func TestServerFaultAppendsErrorEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "backend exploded"})
	}))
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	turn, err := sess.Send(context.Background(), "hello?")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if turn.Kind != session.TurnFault || turn.Fault.Reason != triage.FaultServer {
		t.Fatalf("turn = %+v, want server fault", turn)
	}
	last, _ := sess.Transcript().Last()
	if last.Kind != chat.KindError || last.Text != "backend exploded" {
		t.Fatalf("last message = %+v", last)
	}
}

func TestImageSummaryJoinsReply(t *testing.T) {
	srv := respond(t, map[string]any{
		"response": "Probably a mild irritation.",
		"urgency":  "NORMAL",
		"data": map[string]any{
			"sagemaker_analysis": map[string]any{"summary": "redness, no swelling"},
		},
	})
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	turn, err := sess.Send(context.Background(), "see attached photo")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if turn.Reply == nil {
		t.Fatal("expected a reply")
	}
	want := "Probably a mild irritation.\n\nImage analysis: redness, no swelling"
	if turn.Reply.Text != want {
		t.Fatalf("reply text = %q", turn.Reply.Text)
	}
}

func TestResetAndResume(t *testing.T) {
	srv := respond(t, map[string]any{
		"response": "Go now",
		"urgency":  "URGENT",
		"data":     map[string]any{"navigate_to_emergency_page": true},
	})
	defer srv.Close()

	sess := newSession(srv.URL, auth.StaticProvider("tok"))
	if _, err := sess.Send(context.Background(), "emergency"); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if sess.State() != session.StateEscalated {
		t.Fatal("expected escalated state")
	}

	lenBefore := sess.Transcript().Len()
	sess.Resume()
	if sess.State() != session.StateConversing {
		t.Fatal("Resume did not return to conversing")
	}
	if sess.Transcript().Len() != lenBefore {
		t.Fatal("Resume must not touch the transcript")
	}

	sess.Reset()
	if sess.Transcript().Len() != 1 {
		t.Fatal("Reset must leave a single greeting")
	}
	if sess.State() != session.StateConversing {
		t.Fatal("Reset must return to conversing")
	}
}
