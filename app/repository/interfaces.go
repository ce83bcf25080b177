package repository

import (
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUUID(uuid string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// WorkspaceRepository defines workspace and membership operations.
type WorkspaceRepository interface {
	Create(workspace *models.Workspace) error
	GetByID(id uint) (*models.Workspace, error)
	GetByUUID(uuid string) (*models.Workspace, error)
	GetBySlug(slug string) (*models.Workspace, error)
	ListByUser(userID uint) ([]models.Workspace, error)
	Update(workspace *models.Workspace) error
	Delete(id uint) error

	AddMember(member *models.WorkspaceMember) error
	GetMember(workspaceID, userID uint) (*models.WorkspaceMember, error)
	ListMembers(workspaceID uint) ([]models.WorkspaceMember, error)
	UpdateMemberRole(workspaceID, userID uint, role string) error
	RemoveMember(workspaceID, userID uint) error
	CountMembers(workspaceID uint) (int64, error)

	CreateInvite(invite *models.WorkspaceInvite) error
	GetInviteByToken(token string) (*models.WorkspaceInvite, error)
	MarkInviteAccepted(id uint) error
}

// ProjectRepository defines project CRUD scoped to a workspace.
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByUUID(uuid string) (*models.Project, error)
	ListByWorkspace(workspaceID uint) ([]models.Project, error)
	CountByWorkspace(workspaceID uint) (int64, error)
	Update(project *models.Project) error
	Delete(id uint) error
}

// TaskRepository defines Kanban task operations.
type TaskRepository interface {
	Create(task *models.Task) error
	GetByUUID(uuid string) (*models.Task, error)
	ListByProject(projectID uint) ([]models.Task, error)
	Update(task *models.Task) error
	Delete(id uint) error
	MaxPositionInColumn(projectID uint, column string) (float64, error)
}

// ChatRepository defines channel and message operations.
type ChatRepository interface {
	CreateChannel(channel *models.ChatChannel) error
	GetChannelByUUID(uuid string) (*models.ChatChannel, error)
	ListChannels(workspaceID uint) ([]models.ChatChannel, error)
	DeleteChannel(id uint) error

	CreateMessage(message *models.ChatMessage) error
	ListMessages(channelID uint, beforeID uint, limit int) ([]models.ChatMessage, error)
	RecentMessages(channelID uint, limit int) ([]models.ChatMessage, error)
}

// CalendarRepository defines event and feed operations.
type CalendarRepository interface {
	CreateEvent(event *models.CalendarEvent) error
	GetEventByUUID(uuid string) (*models.CalendarEvent, error)
	ListEventsInRange(workspaceID uint, from, to time.Time) ([]models.CalendarEvent, error)
	ListEvents(workspaceID uint) ([]models.CalendarEvent, error)
	UpdateEvent(event *models.CalendarEvent) error
	DeleteEvent(id uint) error
	UpsertFeedEvent(event *models.CalendarEvent) error

	CreateFeed(feed *models.CalendarFeed) error
	GetFeedByID(id uint) (*models.CalendarFeed, error)
	ListFeeds(workspaceID uint) ([]models.CalendarFeed, error)
	ListAllFeeds() ([]models.CalendarFeed, error)
	SaveFeed(feed *models.CalendarFeed) error
	DeleteFeed(id uint) error
}

// ResourceRepository defines stored-document metadata operations.
type ResourceRepository interface {
	Create(resource *models.Resource) error
	GetByUUID(uuid string) (*models.Resource, error)
	ListByWorkspace(workspaceID uint) ([]models.Resource, error)
	SumSizeByWorkspace(workspaceID uint) (int64, error)
	Delete(id uint) error
}

// PushSubscriptionRepository stores Web Push endpoints per user.
type PushSubscriptionRepository interface {
	Upsert(sub *models.PushSubscription) error
	ListByUser(userID uint) ([]models.PushSubscription, error)
	DeleteByEndpoint(userID uint, endpoint string) error
}
