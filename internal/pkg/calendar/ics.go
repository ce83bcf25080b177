package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
)

const (
	feedFetchTimeout = 20 * time.Second
	maxFeedBytes     = 5 << 20
)

// ExportEvents renders workspace events as an ICS calendar so members can
// subscribe from their own calendar clients.
func ExportEvents(workspaceName string, events []models.CalendarEvent) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Flowdesk//Workspace Calendar//EN")
	cal.SetName(workspaceName)

	for _, e := range events {
		ev := cal.AddEvent(fmt.Sprintf("%s@flowdesk.app", e.UUID))
		ev.SetCreatedTime(e.CreatedAt)
		ev.SetDtStampTime(e.UpdatedAt)
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.AllDay {
			ev.SetAllDayStartAt(e.StartsAt)
			ev.SetAllDayEndAt(e.EndsAt)
		} else {
			ev.SetStartAt(e.StartsAt)
			ev.SetEndAt(e.EndsAt)
		}
	}

	return cal.Serialize()
}

// RefreshFeed downloads an external ICS feed and upserts its events into the
// feed's workspace. Events keep their ICS UID so repeated refreshes update in
// place instead of duplicating.
func RefreshFeed(ctx context.Context, repo repository.CalendarRepository, feed *models.CalendarFeed) (int, error) {
	body, err := fetchFeed(ctx, feed.URL)
	if err != nil {
		return 0, err
	}

	cal, err := ics.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parsing feed %d: %w", feed.ID, err)
	}

	imported := 0
	for _, ev := range cal.Events() {
		event, ok := feedEventToModel(feed, ev)
		if !ok {
			continue
		}
		if err := repo.UpsertFeedEvent(event); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func fetchFeed(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, feedFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Flowdesk-CalendarSync/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("feed fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func feedEventToModel(feed *models.CalendarFeed, ev *ics.VEvent) (*models.CalendarEvent, bool) {
	uid := ev.Id()
	if uid == "" {
		return nil, false
	}

	start, err := ev.GetStartAt()
	if err != nil {
		return nil, false
	}
	end, err := ev.GetEndAt()
	if err != nil {
		end = start
	}

	title := propValue(ev, ics.ComponentPropertySummary)
	if title == "" {
		title = "(untitled)"
	}

	feedID := feed.ID
	return &models.CalendarEvent{
		WorkspaceID: feed.WorkspaceID,
		Title:       title,
		Description: propValue(ev, ics.ComponentPropertyDescription),
		Location:    propValue(ev, ics.ComponentPropertyLocation),
		StartsAt:    start,
		EndsAt:      end,
		FeedID:      &feedID,
		ICSUID:      uid,
		CreatedBy:   feed.CreatedBy,
	}, true
}

func propValue(ev *ics.VEvent, prop ics.ComponentProperty) string {
	p := ev.GetProperty(prop)
	if p == nil {
		return ""
	}
	return p.Value
}
