package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/session"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account and opens a session.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := repo.GetByEmail(req.Email); err == nil && existing != nil {
		return errorJSON(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := repo.Create(user); err != nil {
		return internalError(c, "Failed to create account")
	}

	if err := startSession(c, user); err != nil {
		return internalError(c, "Failed to create session")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleLogin verifies credentials and opens a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return errorJSON(c, fiber.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
	}
	if user.Status == models.STATUS_DISABLED {
		return errorJSON(c, fiber.StatusForbidden, "account_disabled", "This account is disabled")
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = repo.Update(user)

	if err := startSession(c, user); err != nil {
		return internalError(c, "Failed to create session")
	}
	return c.JSON(user)
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	if err := session.Destroy(c); err != nil {
		return internalError(c, "Failed to destroy session")
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// HandleGetProfile returns the authenticated user's account.
func HandleGetProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	return c.JSON(user)
}

type updateProfileRequest struct {
	Name      string `json:"name" validate:"omitempty,min=3,max=150"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=255"`
}

// HandleUpdateProfile updates mutable account fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return internalError(c, "Failed to update profile")
	}
	return c.JSON(user)
}

// HandleRotateAPIKey issues a fresh API key. The plain key is returned once;
// only its hash is stored.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	key, err := user.GenerateAPIKey()
	if err != nil {
		return internalError(c, "Failed to generate API key")
	}
	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return internalError(c, "Failed to store API key")
	}
	return c.JSON(fiber.Map{"api_key": key})
}

func startSession(c *fiber.Ctx, user *models.User) error {
	if err := session.SetSessionValue(c, "user_id", user.ID); err != nil {
		return err
	}
	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     user.ID,
		UserUUID:   user.UUID,
		Name:       user.Name,
		Email:      user.Email,
		IsLoggedIn: true,
		IsAdmin:    user.Role == models.ROLE_ADMIN,
	})
	return nil
}
