package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/model/chat"
)

// FallbackReply stands in when a 2xx response carries no response string.
// The exchange itself completed, so this is never a Fault.
const FallbackReply = "Sorry, I couldn't get a response for that."

const defaultTimeout = 30 * time.Second

// Advice is the normalized success outcome of one triage exchange.
type Advice struct {
	Text         string
	Urgency      chat.Urgency
	Escalate     bool
	ImageSummary string
}

// Client performs the network exchange with the advisory endpoint and
// classifies the outcome. The token provider is injected at construction;
// the client never reads ambient credential state.
type Client struct {
	baseURL    string
	tokens     auth.TokenProvider
	httpClient *http.Client
}

// NewClient builds a triage client for the advisory backend at baseURL.
func NewClient(baseURL string, tokens auth.TokenProvider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Message     string              `json:"message"`
	ChatHistory []chat.HistoryEntry `json:"chat_history"`
}

type adviceResponse struct {
	Response string `json:"response"`
	Urgency  string `json:"urgency"`
	Data     *struct {
		SagemakerAnalysis *struct {
			Summary string `json:"summary"`
		} `json:"sagemaker_analysis"`
		NavigateToEmergencyPage bool `json:"navigate_to_emergency_page"`
	} `json:"data"`
}

// Submit issues the composed request and normalizes the result. Every
// returned error is a *Fault; a token-provider failure is classified
// Unauthenticated before any HTTP request is attempted.
func (c *Client) Submit(ctx context.Context, req OutboundRequest) (*Advice, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		log.Printf("[triage] token fetch failed: %v", err)
		return nil, AuthFault()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, &Fault{Reason: FaultUnknown, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", body)
	if err != nil {
		return nil, &Fault{Reason: FaultUnknown, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[triage] transport error: %v", err)
		return nil, NetworkFault()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fault := ResponseFault(resp)
		log.Printf("[triage] backend rejected request: status=%d reason=%s", resp.StatusCode, fault.Reason)
		return nil, fault
	}

	var payload adviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Fault{Reason: FaultUnknown, Message: fmt.Sprintf("malformed advisory response: %v", err)}
	}

	advice := &Advice{
		Text:    payload.Response,
		Urgency: chat.ParseUrgency(payload.Urgency),
	}
	if advice.Text == "" {
		advice.Text = FallbackReply
	}
	if payload.Data != nil {
		advice.Escalate = payload.Data.NavigateToEmergencyPage
		if payload.Data.SagemakerAnalysis != nil {
			advice.ImageSummary = payload.Data.SagemakerAnalysis.Summary
		}
	}
	return advice, nil
}

// encodeBody serializes the request as JSON, or as a multipart form when an
// attachment rides along (chat_history travels as a JSON-encoded string).
func encodeBody(req OutboundRequest) (io.Reader, string, error) {
	if req.Attachment == nil {
		raw, err := json.Marshal(chatRequest{Message: req.Message, ChatHistory: req.History})
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}

	historyJSON, err := json.Marshal(req.History)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.WriteField("message", req.Message); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("chat_history", string(historyJSON)); err != nil {
		return nil, "", err
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, req.Attachment.Name))
	header.Set("Content-Type", req.Attachment.MIMEType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Attachment.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
