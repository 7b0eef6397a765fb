package usercontext

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware.
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyFromProtected = "FROM_PROTECTED"
	KeyUserID        = "USER_ID"
	KeyIsAdmin       = "USER_IS_ADMIN"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID        uint       `json:"user_id"`
	Username      string     `json:"username"`
	IsLoggedIn    bool       `json:"is_logged_in"`
	IsAdmin       bool       `json:"is_admin"`
	Tier          string     `json:"tier"`
	TierExpiresAt *time.Time `json:"tier_expires_at"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
