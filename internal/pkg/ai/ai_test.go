package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	response string
	err      error
	messages []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.response, m.err
}

func TestGenerateTaskDescription(t *testing.T) {
	model := &fakeModel{response: "  A clear description.  "}
	svc := NewService(model)

	out, err := svc.GenerateTaskDescription(context.Background(), "Website Relaunch", "Set up CI")
	require.NoError(t, err)
	assert.Equal(t, "A clear description.", out)

	// system + human message, with the title in the human part
	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
}

func TestSummarizeChatJoinsTranscript(t *testing.T) {
	model := &fakeModel{response: "Summary."}
	svc := NewService(model)

	out, err := svc.SummarizeChat(context.Background(), "general", []string{"hi", "deploy at 5?"})
	require.NoError(t, err)
	assert.Equal(t, "Summary.", out)
}

func TestAnalyzeDocumentSendsBinaryPart(t *testing.T) {
	model := &fakeModel{response: "It is an invoice."}
	svc := NewService(model)

	out, err := svc.AnalyzeDocument(context.Background(), "application/pdf", []byte{0x25, 0x50}, "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "It is an invoice.", out)

	require.Len(t, model.messages, 2)
	human := model.messages[1]
	require.Len(t, human.Parts, 2)
	binary, ok := human.Parts[0].(llms.BinaryContent)
	require.True(t, ok, "first part must be the document bytes")
	assert.Equal(t, "application/pdf", binary.MIMEType)
}

func TestGenerateErrorsSurface(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	svc := NewService(model)

	_, err := svc.GenerateTaskDescription(context.Background(), "P", "T")
	assert.Error(t, err)
}
