package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/calendar"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=250"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"max=250"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	AllDay      bool      `json:"all_day"`
}

// HandleCreateEvent creates a calendar event in the workspace.
func HandleCreateEvent(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	var req createEventRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.EndsAt.Before(req.StartsAt) {
		return badRequest(c, "event ends before it starts")
	}

	event := &models.CalendarEvent{
		WorkspaceID: workspace.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		AllDay:      req.AllDay,
		CreatedBy:   ctx.UserID,
	}
	if err := repository.GetGlobalFactory().GetCalendarRepository().CreateEvent(event); err != nil {
		return internalError(c, "Failed to create event")
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// HandleListEvents lists events, optionally restricted to a from/to range.
func HandleListEvents(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	repo := repository.GetGlobalFactory().GetCalendarRepository()

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" && toStr != "" {
		from, err1 := time.Parse(time.RFC3339, fromStr)
		to, err2 := time.Parse(time.RFC3339, toStr)
		if err1 != nil || err2 != nil {
			return badRequest(c, "from/to must be RFC 3339 timestamps")
		}
		events, err := repo.ListEventsInRange(workspace.ID, from, to)
		if err != nil {
			return internalError(c, "Failed to load events")
		}
		return c.JSON(fiber.Map{"events": events})
	}

	events, err := repo.ListEvents(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load events")
	}
	return c.JSON(fiber.Map{"events": events})
}

type updateEventRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=250"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Location    *string    `json:"location" validate:"omitempty,max=250"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	AllDay      *bool      `json:"all_day"`
}

// HandleUpdateEvent updates an event. Feed-imported events are read-only,
// the next refresh would overwrite the edit anyway.
func HandleUpdateEvent(c *fiber.Ctx) error {
	event, err := eventInWorkspace(c)
	if err != nil {
		return err
	}
	if event.FeedID != nil {
		return errorJSON(c, fiber.StatusConflict, "feed_event", "Events imported from a feed cannot be edited")
	}

	var req updateEventRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = *req.EndsAt
	}
	if req.AllDay != nil {
		event.AllDay = *req.AllDay
	}
	if event.EndsAt.Before(event.StartsAt) {
		return badRequest(c, "event ends before it starts")
	}

	if err := repository.GetGlobalFactory().GetCalendarRepository().UpdateEvent(event); err != nil {
		return internalError(c, "Failed to update event")
	}
	return c.JSON(event)
}

// HandleDeleteEvent deletes an event.
func HandleDeleteEvent(c *fiber.Ctx) error {
	event, err := eventInWorkspace(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetCalendarRepository().DeleteEvent(event.ID); err != nil {
		return internalError(c, "Failed to delete event")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleExportICS serves the workspace calendar as an ICS file.
func HandleExportICS(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	events, err := repository.GetGlobalFactory().GetCalendarRepository().ListEvents(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load events")
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="calendar.ics"`)
	return c.SendString(calendar.ExportEvents(workspace.Name, events))
}

type createFeedRequest struct {
	Name string `json:"name" validate:"required,min=1,max=150"`
	URL  string `json:"url" validate:"required,url,max=500"`
}

// HandleCreateFeed subscribes the workspace to an external ICS feed and
// runs the first refresh inline so events show up immediately.
func HandleCreateFeed(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	var req createFeedRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetCalendarRepository()
	feed := &models.CalendarFeed{
		WorkspaceID: workspace.ID,
		Name:        req.Name,
		URL:         req.URL,
		CreatedBy:   ctx.UserID,
	}
	if err := repo.CreateFeed(feed); err != nil {
		return internalError(c, "Failed to create feed")
	}

	count, err := calendar.RefreshFeed(c.Context(), repo, feed)
	now := time.Now()
	feed.LastSyncedAt = &now
	if err != nil {
		feed.LastError = err.Error()
	}
	_ = repo.SaveFeed(feed)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"feed": feed, "imported_events": count})
}

// HandleListFeeds lists the workspace's external feeds.
func HandleListFeeds(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	feeds, err := repository.GetGlobalFactory().GetCalendarRepository().ListFeeds(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load feeds")
	}
	return c.JSON(fiber.Map{"feeds": feeds})
}

// HandleDeleteFeed removes a feed together with its imported events.
func HandleDeleteFeed(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)

	feedID, err := c.ParamsInt("feedID")
	if err != nil || feedID <= 0 {
		return badRequest(c, "invalid feed id")
	}

	repo := repository.GetGlobalFactory().GetCalendarRepository()
	feed, err := repo.GetFeedByID(uint(feedID))
	if err != nil || feed.WorkspaceID != workspace.ID {
		return notFound(c, "Feed not found")
	}

	if err := repo.DeleteFeed(feed.ID); err != nil {
		return internalError(c, "Failed to delete feed")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func eventInWorkspace(c *fiber.Ctx) (*models.CalendarEvent, error) {
	workspace := middleware.WorkspaceFromLocals(c)
	event, err := repository.GetGlobalFactory().GetCalendarRepository().GetEventByUUID(c.Params("eventUUID"))
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(c, "Event not found")
		}
		return nil, internalError(c, "Failed to load event")
	}
	if event.WorkspaceID != workspace.ID {
		return nil, notFound(c, "Event not found")
	}
	return event, nil
}
