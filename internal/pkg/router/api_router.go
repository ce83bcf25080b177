package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/flowdeskhq/flowdesk/app/controllers"
	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(), middleware.APIKeyAuth())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Flowdesk API",
		})
	})

	v1 := api.Group("/v1")

	// auth + account
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", controllers.HandleLogout)
	v1.Get("/me", middleware.RequireAuth, controllers.HandleGetProfile)
	v1.Patch("/me", middleware.RequireAuth, controllers.HandleUpdateProfile)
	v1.Post("/me/api-key", middleware.RequireAuth, controllers.HandleRotateAPIKey)

	// push notifications
	v1.Get("/push/vapid-key", controllers.HandlePushVAPIDKey)
	v1.Post("/push/subscriptions", middleware.RequireAuth, controllers.HandlePushSubscribe)
	v1.Delete("/push/subscriptions", middleware.RequireAuth, controllers.HandlePushUnsubscribe)

	// Payment provider webhooks carry their own authentication
	// (signature or re-fetch), never a user session.
	v1.Post("/billing/webhooks/mercadopago", controllers.HandleMercadoPagoWebhook)
	v1.Post("/billing/webhooks/stripe", controllers.HandleStripeWebhook)

	// billing: per user, not per workspace
	billing := v1.Group("/billing", middleware.RequireAuth)
	billing.Post("/checkout", controllers.HandleCreateCheckout)
	billing.Post("/sync", controllers.HandleSyncSubscription)
	billing.Post("/cancel", controllers.HandleCancelSubscription)
	billing.Get("/subscription", controllers.HandleGetSubscription)

	// workspaces
	v1.Post("/workspaces", middleware.RequireAuth, controllers.HandleCreateWorkspace)
	v1.Get("/workspaces", middleware.RequireAuth, controllers.HandleListWorkspaces)
	v1.Post("/invites/:token/accept", middleware.RequireAuth, controllers.HandleAcceptInvite)

	// Role checks are attached per route, not via group middleware:
	// group handlers in fiber register as Use on the shared prefix and
	// would stack every role check onto every workspace request.
	ws := v1.Group("/workspaces/:workspaceUUID")
	guest := middleware.RequireWorkspaceRole(models.WorkspaceRoleGuest)
	member := middleware.RequireWorkspaceRole(models.WorkspaceRoleMember)
	admin := middleware.RequireWorkspaceRole(models.WorkspaceRoleAdmin)
	owner := middleware.RequireWorkspaceRole(models.WorkspaceRoleOwner)

	ws.Get("/", guest, controllers.HandleGetWorkspace)
	ws.Patch("/", admin, controllers.HandleUpdateWorkspace)
	ws.Delete("/", owner, controllers.HandleDeleteWorkspace)

	ws.Get("/members", guest, controllers.HandleListMembers)
	ws.Post("/invites", admin, controllers.HandleInviteMember)
	ws.Patch("/members/:userID/role", admin, controllers.HandleUpdateMemberRole)
	ws.Delete("/members/:userID", admin, controllers.HandleRemoveMember)

	// projects + kanban
	ws.Get("/projects", guest, controllers.HandleListProjects)
	ws.Post("/projects", member, controllers.HandleCreateProject)
	ws.Get("/projects/:projectUUID", guest, controllers.HandleGetProject)
	ws.Patch("/projects/:projectUUID", member, controllers.HandleUpdateProject)
	ws.Delete("/projects/:projectUUID", admin, controllers.HandleDeleteProject)

	ws.Get("/projects/:projectUUID/tasks", guest, controllers.HandleListTasks)
	ws.Post("/projects/:projectUUID/tasks", member, controllers.HandleCreateTask)
	ws.Get("/tasks/:taskUUID", guest, controllers.HandleGetTask)
	ws.Patch("/tasks/:taskUUID", member, controllers.HandleUpdateTask)
	ws.Post("/tasks/:taskUUID/move", member, controllers.HandleMoveTask)
	ws.Delete("/tasks/:taskUUID", member, controllers.HandleDeleteTask)

	// chat
	ws.Get("/channels", guest, controllers.HandleListChannels)
	ws.Post("/channels", member, controllers.HandleCreateChannel)
	ws.Delete("/channels/:channelUUID", admin, controllers.HandleDeleteChannel)
	ws.Get("/channels/:channelUUID/messages", guest, controllers.HandleListMessages)
	ws.Post("/channels/:channelUUID/messages", member, controllers.HandlePostMessage)

	// calendar
	ws.Get("/events", guest, controllers.HandleListEvents)
	ws.Post("/events", member, controllers.HandleCreateEvent)
	ws.Patch("/events/:eventUUID", member, controllers.HandleUpdateEvent)
	ws.Delete("/events/:eventUUID", member, controllers.HandleDeleteEvent)
	ws.Get("/calendar.ics", guest, controllers.HandleExportICS)
	ws.Get("/feeds", guest, controllers.HandleListFeeds)
	ws.Post("/feeds", admin, controllers.HandleCreateFeed)
	ws.Delete("/feeds/:feedID", admin, controllers.HandleDeleteFeed)

	// resources
	ws.Get("/resources", guest, controllers.HandleListResources)
	ws.Post("/resources", member, controllers.HandleUploadResource)
	ws.Get("/resources/:resourceUUID/download", guest, controllers.HandleDownloadResource)
	ws.Delete("/resources/:resourceUUID", member, controllers.HandleDeleteResource)

	// AI, gated on a paid plan
	ws.Post("/projects/:projectUUID/ai/draft-description", member, middleware.RequirePremium, controllers.HandleAIDraftTaskDescription)
	ws.Post("/projects/:projectUUID/ai/suggest-tasks", member, middleware.RequirePremium, controllers.HandleAISuggestTasks)
	ws.Post("/channels/:channelUUID/ai/summarize", member, middleware.RequirePremium, controllers.HandleAISummarizeChannel)
	ws.Post("/resources/:resourceUUID/ai/analyze", member, middleware.RequirePremium, controllers.HandleAIAnalyzeResource)

	// site admin
	adminAPI := v1.Group("/admin", middleware.RequireAuth, middleware.RequireAdmin)
	adminAPI.Post("/billing/sweep", controllers.HandleAdminBillingSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
