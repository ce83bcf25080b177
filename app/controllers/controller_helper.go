package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
	"github.com/flowdeskhq/flowdesk/internal/pkg/database"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

var validate = validator.New()

// newBillingService builds the billing service for a single request.
// Tests swap it for a service backed by in-memory collaborators.
var newBillingService = func() *billing.Service {
	return billing.NewServiceFromDB(database.GetDB())
}

// errorJSON writes the API error envelope used across all JSON endpoints.
func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadRequest, "bad_request", message)
}

func notFound(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, "not_found", message)
}

func internalError(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

// parseBody parses the JSON request body into out and validates it.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := validate.Struct(out); err != nil {
		return err
	}
	return nil
}

// currentUser loads the authenticated user row, or returns nil when the
// session points at a deleted account.
func currentUser(c *fiber.Ctx) *models.User {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return nil
	}
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ctx.UserID)
	if err != nil {
		return nil
	}
	return user
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
