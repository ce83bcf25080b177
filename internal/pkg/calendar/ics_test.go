package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeskhq/flowdesk/app/models"
)

type fakeCalendarRepo struct {
	upserted []*models.CalendarEvent
}

func (r *fakeCalendarRepo) CreateEvent(event *models.CalendarEvent) error { return nil }
func (r *fakeCalendarRepo) GetEventByUUID(uuid string) (*models.CalendarEvent, error) {
	return nil, nil
}
func (r *fakeCalendarRepo) ListEventsInRange(workspaceID uint, from, to time.Time) ([]models.CalendarEvent, error) {
	return nil, nil
}
func (r *fakeCalendarRepo) ListEvents(workspaceID uint) ([]models.CalendarEvent, error) {
	return nil, nil
}
func (r *fakeCalendarRepo) UpdateEvent(event *models.CalendarEvent) error { return nil }
func (r *fakeCalendarRepo) DeleteEvent(id uint) error                     { return nil }
func (r *fakeCalendarRepo) UpsertFeedEvent(event *models.CalendarEvent) error {
	r.upserted = append(r.upserted, event)
	return nil
}
func (r *fakeCalendarRepo) CreateFeed(feed *models.CalendarFeed) error { return nil }
func (r *fakeCalendarRepo) GetFeedByID(id uint) (*models.CalendarFeed, error) {
	return nil, nil
}
func (r *fakeCalendarRepo) ListFeeds(workspaceID uint) ([]models.CalendarFeed, error) {
	return nil, nil
}
func (r *fakeCalendarRepo) ListAllFeeds() ([]models.CalendarFeed, error) { return nil, nil }
func (r *fakeCalendarRepo) SaveFeed(feed *models.CalendarFeed) error     { return nil }
func (r *fakeCalendarRepo) DeleteFeed(id uint) error                     { return nil }

func TestExportEventsRoundTrip(t *testing.T) {
	start := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	events := []models.CalendarEvent{
		{
			UUID:        "ev-1",
			Title:       "Sprint planning",
			Description: "Quarterly planning",
			Location:    "Room 4",
			StartsAt:    start,
			EndsAt:      start.Add(time.Hour),
			CreatedAt:   start.Add(-24 * time.Hour),
			UpdatedAt:   start.Add(-24 * time.Hour),
		},
		{
			UUID:      "ev-2",
			Title:     "Release day",
			StartsAt:  start.AddDate(0, 0, 3),
			EndsAt:    start.AddDate(0, 0, 4),
			AllDay:    true,
			CreatedAt: start,
			UpdatedAt: start,
		},
	}

	serialized := ExportEvents("Acme Workspace", events)
	assert.Contains(t, serialized, "BEGIN:VCALENDAR")
	assert.Contains(t, serialized, "Sprint planning")

	parsed, err := ics.ParseCalendar(strings.NewReader(serialized))
	require.NoError(t, err)
	assert.Len(t, parsed.Events(), 2)
}

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Feed//EN
BEGIN:VEVENT
UID:feed-ev-1@example.com
DTSTAMP:20250901T080000Z
DTSTART:20250901T090000Z
DTEND:20250901T100000Z
SUMMARY:Team standup
LOCATION:Zoom
END:VEVENT
BEGIN:VEVENT
UID:feed-ev-2@example.com
DTSTAMP:20250901T080000Z
DTSTART:20250902T090000Z
DTEND:20250902T100000Z
SUMMARY:Retro
END:VEVENT
END:VCALENDAR
`

func TestRefreshFeedUpsertsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(strings.ReplaceAll(sampleFeed, "\n", "\r\n")))
	}))
	defer server.Close()

	repo := &fakeCalendarRepo{}
	feed := &models.CalendarFeed{ID: 3, WorkspaceID: 10, URL: server.URL, CreatedBy: 1}

	count, err := RefreshFeed(context.Background(), repo, feed)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.upserted, 2)

	first := repo.upserted[0]
	assert.Equal(t, uint(10), first.WorkspaceID)
	assert.Equal(t, "Team standup", first.Title)
	assert.Equal(t, "feed-ev-1@example.com", first.ICSUID)
	require.NotNil(t, first.FeedID)
	assert.Equal(t, uint(3), *first.FeedID)
}

func TestRefreshFeedBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	repo := &fakeCalendarRepo{}
	feed := &models.CalendarFeed{ID: 1, URL: server.URL}

	_, err := RefreshFeed(context.Background(), repo, feed)
	assert.Error(t, err)
}
