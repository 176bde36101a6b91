// Package advicegen produces model-backed advisory replies for the
// development backend. It is optional: without credentials the backend
// falls back to canned replies.
package advicegen

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/pethealthai/advisor/internal/config"
	"github.com/pethealthai/advisor/internal/model/chat"
)

const systemPrompt = `You are PetHealth AI, a veterinary triage assistant for pet owners.
Give practical, calm guidance about the described symptoms. Keep answers short
and concrete. You are not a substitute for a veterinarian: whenever symptoms
could be serious, tell the owner to contact a vet. Never prescribe medication.`

// Generator runs the compiled advisory chain.
type Generator struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// New creates a generator from the Ark configuration.
func New(ctx context.Context, cfg config.AIConfig) (*Generator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile advice chain: %w", err)
	}

	return &Generator{chatModel: chatModel, chain: runnable}, nil
}

// Generate produces one advisory reply for the query given the prior
// conversation. imageNote, when non-empty, describes an attached photo so
// the model can account for it.
func (g *Generator) Generate(ctx context.Context, history []chat.HistoryEntry, query, imageNote string) (string, error) {
	input := map[string]any{
		"system":  buildSystemPrompt(imageNote),
		"history": buildHistoryMessages(history),
		"query":   query,
	}

	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run advice chain: %w", err)
	}

	log.Printf("[advicegen] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

func buildSystemPrompt(imageNote string) string {
	if imageNote == "" {
		return systemPrompt
	}

	var builder strings.Builder
	builder.WriteString(systemPrompt)
	builder.WriteString("\n\nThe owner attached a photo. Image analysis: ")
	builder.WriteString(imageNote)
	builder.WriteString("\nFold this into your assessment.")
	return builder.String()
}

func buildHistoryMessages(entries []chat.HistoryEntry) []*schema.Message {
	const historyLimit = 10

	if len(entries) == 0 {
		return nil
	}

	startIdx := 0
	if len(entries) > historyLimit {
		startIdx = len(entries) - historyLimit
	}

	history := make([]*schema.Message, 0, len(entries)-startIdx)
	for _, entry := range entries[startIdx:] {
		switch entry.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(entry.Text))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(entry.Text, nil))
		}
	}

	return history
}
