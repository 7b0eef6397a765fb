package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/entitlements"
	"github.com/pulseapp/PulseSignals/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a user account and returns its API key. The raw
// key is shown exactly once; only its hash is stored.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid name, email or password"})
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return respondError(c, apperr.Store("failed to issue api key", err))
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    accountResponse(user),
		"api_key": apiKey,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and rotates the account's API key. The
// previous key stops working immediately.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return respondError(c, apperr.Store("failed to issue api key", err))
	}
	if err := repo.Update(user); err != nil {
		return respondError(c, err)
	}
	if err := repo.TouchLastLogin(user.ID, time.Now()); err == nil {
		now := time.Now()
		user.LastLoginAt = &now
	}

	return c.JSON(fiber.Map{
		"user":    accountResponse(user),
		"api_key": apiKey,
	})
}

// HandleGetAccount returns account information for the authenticated caller.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": accountResponse(user)})
}

func accountResponse(user *models.User) fiber.Map {
	tier, err := entitlements.ParseTier(user.SubscriptionTier)
	if err != nil {
		tier = entitlements.TierFree
	}
	effective := entitlements.EffectiveTier(tier, user.SubscriptionExpiresAt, time.Now())

	return fiber.Map{
		"id":                      user.ID,
		"name":                    user.Name,
		"email":                   user.Email,
		"status":                  user.Status,
		"is_admin":                user.IsAdmin(),
		"subscription_tier":       user.SubscriptionTier,
		"effective_tier":          string(effective),
		"subscription_expires_at": formatTimePtr(user.SubscriptionExpiresAt),
		"created_at":              user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":           formatTimePtr(user.LastLoginAt),
	}
}
