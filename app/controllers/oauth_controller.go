package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/internal/pkg/database"
)

// HandleOAuthBegin redirects to the provider's consent screen.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in.
// Accounts are matched by provider identity first, then by email; a new
// account is created when neither matches.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return badRequest(c, fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()

	var pa models.ProviderAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&pa)

	var appUser models.User
	switch {
	case res.Error == gorm.ErrRecordNotFound:
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&appUser).Error
		}
		if appUser.ID == 0 {
			// Password is a random placeholder, never usable for login.
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			appUser = models.User{
				Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:     email,
				Password:  hash,
				AvatarURL: u.AvatarURL,
				Status:    models.STATUS_ACTIVE,
			}
			if err := db.Create(&appUser).Error; err != nil {
				return internalError(c, "Failed to create account")
			}
		}
		pa = models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      tokenExpiry(u.ExpiresAt),
		}
		if err := db.Create(&pa).Error; err != nil {
			return internalError(c, "Failed to link provider account")
		}
	case res.Error == nil:
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		pa.ExpiresAt = tokenExpiry(u.ExpiresAt)
		if err := db.Save(&pa).Error; err != nil {
			return internalError(c, "Failed to update provider tokens")
		}
		if err := db.First(&appUser, pa.UserID).Error; err != nil {
			return internalError(c, "Linked account not found")
		}
	default:
		return internalError(c, "Database error")
	}

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	if err := startSession(c, &appUser); err != nil {
		return internalError(c, "Failed to create session")
	}
	return c.JSON(appUser)
}

// HandleOAuthLogout clears the provider session cookie.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleLogout(c)
}

func tokenExpiry(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
