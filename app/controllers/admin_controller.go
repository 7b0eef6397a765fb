package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/entitlements"
)

// HandleRunUpgradeSweep triggers one dynamic-signal expiry sweep (admin
// only). The scheduled sweep keeps running on its own; this exists for
// operational nudges and tests.
func HandleRunUpgradeSweep(c *fiber.Ctx) error {
	count, err := upgradeService.ExpireDueUpgrades(time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"expired_count": count})
}

// HandleRunSignalSweep triggers one plain signal expiry sweep (admin only).
func HandleRunSignalSweep(c *fiber.Ctx) error {
	count, err := upgradeService.ExpireDueSignals(time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"expired_count": count})
}

type setTierRequest struct {
	Tier      string  `json:"tier"`
	ExpiresAt *string `json:"expires_at"`
}

// HandleSetUserTier changes a user's subscription tier (admin only). An
// explicit expiry overrides the default 30-day window for paid tiers.
func HandleSetUserTier(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req setTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	tier, err := entitlements.ParseTier(req.Tier)
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		return respondError(c, err)
	}

	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "expires_at must be RFC3339"})
		}
		user.SubscriptionExpiresAt = &t
	}
	user.SetSubscriptionTier(string(tier), time.Now())

	if err := repo.Update(user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": accountResponse(user)})
}
