package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/ai"
	"github.com/flowdeskhq/flowdesk/internal/pkg/storage"
)

// AI endpoints sit behind the premium middleware: free-tier workspaces
// never reach these handlers.

func aiService(c *fiber.Ctx) (*ai.Service, error) {
	svc, err := ai.NewServiceFromEnv(c.Context())
	if err != nil {
		return nil, internalError(c, "AI backend unavailable")
	}
	return svc, nil
}

type draftTaskRequest struct {
	Title string `json:"title" validate:"required,min=1,max=250"`
}

// HandleAIDraftTaskDescription writes a task description from its title.
func HandleAIDraftTaskDescription(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}

	var req draftTaskRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	svc, ferr := aiService(c)
	if svc == nil {
		return ferr
	}
	text, err := svc.GenerateTaskDescription(c.Context(), project.Name, req.Title)
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, "ai_error", "AI generation failed")
	}
	return c.JSON(fiber.Map{"description": text})
}

// HandleAISuggestTasks proposes next tasks based on the current board.
func HandleAISuggestTasks(c *fiber.Ctx) error {
	project, err := projectInWorkspace(c)
	if err != nil {
		return err
	}

	tasks, err := repository.GetGlobalFactory().GetTaskRepository().ListByProject(project.ID)
	if err != nil {
		return internalError(c, "Failed to load tasks")
	}
	titles := make([]string, 0, len(tasks))
	for _, t := range tasks {
		titles = append(titles, t.Title)
	}

	svc, ferr := aiService(c)
	if svc == nil {
		return ferr
	}
	text, err := svc.SuggestTasks(c.Context(), project.Name, titles)
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, "ai_error", "AI generation failed")
	}
	return c.JSON(fiber.Map{"suggestions": text})
}

// HandleAISummarizeChannel summarizes the recent history of a channel.
func HandleAISummarizeChannel(c *fiber.Ctx) error {
	channel, err := channelInWorkspace(c)
	if err != nil {
		return err
	}

	messages, err := repository.GetGlobalFactory().GetChatRepository().RecentMessages(channel.ID, 200)
	if err != nil {
		return internalError(c, "Failed to load messages")
	}
	transcript := make([]string, 0, len(messages))
	for _, m := range messages {
		transcript = append(transcript, m.Body)
	}

	svc, ferr := aiService(c)
	if svc == nil {
		return ferr
	}
	text, err := svc.SummarizeChat(c.Context(), channel.Name, transcript)
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, "ai_error", "AI generation failed")
	}
	return c.JSON(fiber.Map{"summary": text})
}

type analyzeResourceRequest struct {
	Question string `json:"question" validate:"required,min=1,max=2000"`
}

// Documents above this size are not sent to the model.
const maxAnalyzableBytes = 10 << 20

// HandleAIAnalyzeResource answers a question about a stored document. The
// bytes are pulled from S3 and passed to the model as binary content.
func HandleAIAnalyzeResource(c *fiber.Ctx) error {
	resource, err := resourceInWorkspace(c)
	if err != nil {
		return err
	}

	var req analyzeResourceRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if resource.SizeBytes > maxAnalyzableBytes {
		return badRequest(c, "document is too large to analyze")
	}

	client, err := storage.GetClient()
	if err != nil {
		return internalError(c, "Object storage unavailable")
	}
	data, err := client.Download(c.Context(), resource.ObjectKey)
	if err != nil {
		return internalError(c, "Failed to load document")
	}

	svc, ferr := aiService(c)
	if svc == nil {
		return ferr
	}
	text, err := svc.AnalyzeDocument(c.Context(), resource.MimeType, data, req.Question)
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, "ai_error", "AI generation failed")
	}
	return c.JSON(fiber.Map{"answer": text})
}
