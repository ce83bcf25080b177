package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
	"github.com/flowdeskhq/flowdesk/internal/pkg/database"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

// RequirePremium gates paid features (AI endpoints). Entitlement is
// evaluated by the billing service, never recomputed here.
func RequirePremium(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	premium, err := svc.IsUserPremium(c.Context(), ctx.UserID, time.Now())
	if err != nil {
		log.Printf("premium check failed for user %d: %v", ctx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement check failed"})
	}
	if !premium {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "premium_required", "message": "This feature requires an active subscription"})
	}
	return c.Next()
}
