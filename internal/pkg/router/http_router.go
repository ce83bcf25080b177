package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/controllers"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/oauth"
	"github.com/flowdeskhq/flowdesk/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// user context is resolved once per request, before any route
	app.Use(middleware.UserContext())

	// OAuth flow lives outside /api, it is entered from browser
	// redirects
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
