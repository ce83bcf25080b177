package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository implementations.
type Repositories struct {
	User      UserRepository
	Workspace WorkspaceRepository
	Project   ProjectRepository
	Task      TaskRepository
	Chat      ChatRepository
	Calendar  CalendarRepository
	Resource  ResourceRepository
	Push      PushSubscriptionRepository
}

// NewRepositories creates all repositories on a shared DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Workspace: NewWorkspaceRepository(db),
		Project:   NewProjectRepository(db),
		Task:      NewTaskRepository(db),
		Chat:      NewChatRepository(db),
		Calendar:  NewCalendarRepository(db),
		Resource:  NewResourceRepository(db),
		Push:      NewPushSubscriptionRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

func (f *Factory) GetWorkspaceRepository() WorkspaceRepository {
	return f.GetRepositories().Workspace
}

func (f *Factory) GetProjectRepository() ProjectRepository {
	return f.GetRepositories().Project
}

func (f *Factory) GetTaskRepository() TaskRepository {
	return f.GetRepositories().Task
}

func (f *Factory) GetChatRepository() ChatRepository {
	return f.GetRepositories().Chat
}

func (f *Factory) GetCalendarRepository() CalendarRepository {
	return f.GetRepositories().Calendar
}

func (f *Factory) GetResourceRepository() ResourceRepository {
	return f.GetRepositories().Resource
}

func (f *Factory) GetPushSubscriptionRepository() PushSubscriptionRepository {
	return f.GetRepositories().Push
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the initialized global factory.
func GetGlobalFactory() *Factory {
	return globalFactory
}
