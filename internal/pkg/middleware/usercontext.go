package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/session"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

// UserContext loads the session user (if any) and attaches the request's
// UserContext. It never rejects; guards downstream decide.
func UserContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		userID, _ := sess.Get("user_id").(uint)
		if userID == 0 {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
		if err != nil || user.Status != models.STATUS_ACTIVE {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			UserUUID:   user.UUID,
			Name:       user.Name,
			Email:      user.Email,
			IsLoggedIn: true,
			IsAdmin:    user.Role == models.ROLE_ADMIN,
		})
		return c.Next()
	}
}
