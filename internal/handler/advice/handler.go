// Package advice serves the development backend's /api/chat endpoint,
// mirroring the advisory service's wire contract.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pethealthai/advisor/internal/analysis/urgency"
	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/pkg/utils"
)

// Generator produces the reply text. Satisfied by *advicegen.Generator;
// nil means canned replies only.
type Generator interface {
	Generate(ctx context.Context, history []chat.HistoryEntry, query, imageNote string) (string, error)
}

// Handler answers triage requests.
type Handler struct {
	generator Generator
}

// New creates the advice handler. generator may be nil.
func New(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes mounts the advice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// adviceRequest is the decoded form of either request encoding.
type adviceRequest struct {
	Message   string
	History   []chat.HistoryEntry
	ImageName string
	ImageSize int64
	ImageMIME string
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, errMsg := decodeRequest(r)
	if errMsg != "" {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return
	}

	if strings.TrimSpace(req.Message) == "" && req.ImageName == "" {
		utils.RespondError(w, http.StatusBadRequest, "message or image is required")
		return
	}

	decision := urgency.Classify(req.Message)

	var imageNote string
	if req.ImageName != "" {
		imageNote = fmt.Sprintf("Received image %q (%s, %d bytes). Visual analysis suggests monitoring the affected area for swelling or discoloration.", req.ImageName, req.ImageMIME, req.ImageSize)
	}

	reply := h.buildReply(r.Context(), req, decision, imageNote)

	payload := map[string]any{
		"response": reply,
		"urgency":  string(decision.Urgency),
	}
	data := map[string]any{}
	if decision.Escalate {
		data["navigate_to_emergency_page"] = true
	}
	if imageNote != "" {
		data["sagemaker_analysis"] = map[string]any{"summary": imageNote}
	}
	if len(data) > 0 {
		payload["data"] = data
	}

	log.Printf("[advice] replied urgency=%s score=%d image=%v", decision.Urgency, decision.Score, req.ImageName != "")
	utils.RespondJSON(w, http.StatusOK, payload)
}

func (h *Handler) buildReply(ctx context.Context, req *adviceRequest, decision urgency.Decision, imageNote string) string {
	if h.generator != nil {
		reply, err := h.generator.Generate(ctx, req.History, req.Message, imageNote)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply
		}
		if err != nil {
			log.Printf("[advice] generator failed, using canned reply: %v", err)
		}
	}

	if decision.Urgency == chat.UrgencyUrgent {
		return "These symptoms can be serious. Please contact an emergency veterinary clinic right away; I can help you find one nearby."
	}
	return "Thanks for the details. Keep your pet comfortable and watch for any change in appetite, energy, or breathing. If symptoms persist beyond 24 hours, schedule a visit with your veterinarian."
}

// decodeRequest accepts the two encodings the client produces: plain JSON,
// or multipart form data when an image rides along.
func decodeRequest(r *http.Request) (*adviceRequest, string) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return decodeMultipart(r)
	}

	var payload struct {
		Message     string              `json:"message"`
		ChatHistory []chat.HistoryEntry `json:"chat_history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, "invalid request body"
	}
	return &adviceRequest{Message: payload.Message, History: payload.ChatHistory}, ""
}

func decodeMultipart(r *http.Request) (*adviceRequest, string) {
	if err := r.ParseMultipartForm(chat.MaxAttachmentBytes + 1<<20); err != nil {
		return nil, "invalid multipart body"
	}

	req := &adviceRequest{Message: r.FormValue("message")}

	if raw := r.FormValue("chat_history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return nil, "invalid chat_history"
		}
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return req, ""
	}
	if err != nil {
		return nil, "invalid image part"
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		return nil, "invalid image part"
	}

	mimeType := partMIMEType(header)
	if err := chat.ValidateAttachment(mimeType, size); err != nil {
		return nil, err.Error()
	}

	req.ImageName = header.Filename
	req.ImageSize = size
	req.ImageMIME = mimeType
	return req, ""
}

func partMIMEType(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
