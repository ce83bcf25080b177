// Package ai wraps the hosted generative-AI API behind the handful of
// assist operations the product exposes. All prompt construction lives
// here; callers hand over domain data and get text back.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"

	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

const defaultModel = "gemini-1.5-flash"

var ErrNotConfigured = errors.New("AI_API_KEY is not configured")

// Service generates assist content through a langchaingo model.
type Service struct {
	llm llms.Model
}

// NewService builds a Service from an injected model (tests pass a fake).
func NewService(llm llms.Model) *Service {
	return &Service{llm: llm}
}

// NewServiceFromEnv connects to the hosted model API using env config.
func NewServiceFromEnv(ctx context.Context) (*Service, error) {
	apiKey := strings.TrimSpace(env.GetEnv("AI_API_KEY", ""))
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	model := env.GetEnv("AI_MODEL", defaultModel)

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating AI client: %w", err)
	}
	return &Service{llm: llm}, nil
}

// GenerateTaskDescription expands a task title into a short description.
func (s *Service) GenerateTaskDescription(ctx context.Context, projectName, title string) (string, error) {
	prompt := fmt.Sprintf("Project: %s\nTask title: %s\n\nWrite the task description.", projectName, title)
	return s.generate(ctx,
		"You write concise task descriptions for a project management tool. "+
			"Answer with 2-4 sentences of plain text, no headings, no markdown.",
		[]llms.ContentPart{llms.TextPart(prompt)})
}

// SuggestTasks proposes follow-up tasks for a project given its current board.
func (s *Service) SuggestTasks(ctx context.Context, projectName string, existingTitles []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nExisting tasks:\n", projectName)
	for _, t := range existingTitles {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nSuggest the next tasks.")
	return s.generate(ctx,
		"You suggest tasks for a project management tool. "+
			"Answer with up to 5 one-line task titles, one per line, no numbering.",
		[]llms.ContentPart{llms.TextPart(b.String())})
}

// SummarizeChat condenses a channel transcript.
func (s *Service) SummarizeChat(ctx context.Context, channelName string, transcript []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Channel: #%s\nTranscript:\n", channelName)
	for _, line := range transcript {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return s.generate(ctx,
		"You summarize team chat conversations. Produce a short summary "+
			"followed by any decisions and open action items.",
		[]llms.ContentPart{llms.TextPart(b.String())})
}

// AnalyzeDocument answers a question about an uploaded document. The raw
// bytes go to the model as an inline-data part alongside the instruction.
func (s *Service) AnalyzeDocument(ctx context.Context, mimeType string, data []byte, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		question = "Summarize this document."
	}
	return s.generate(ctx,
		"You analyze documents shared in a project workspace. Answer the "+
			"user's question based only on the document content.",
		[]llms.ContentPart{
			llms.BinaryPart(mimeType, data),
			llms.TextPart(question),
		})
}

func (s *Service) generate(ctx context.Context, system string, parts []llms.ContentPart) (string, error) {
	messages := []llms.MessageContent{
		{Role: schema.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(system)}},
		{Role: schema.ChatMessageTypeHuman, Parts: parts},
	}

	resp, err := s.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
