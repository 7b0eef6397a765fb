package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pulseapp/PulseSignals/internal/pkg/upgrades"
	"github.com/pulseapp/PulseSignals/internal/pkg/usercontext"
)

type createUpgradeRequest struct {
	SignalID      string          `json:"signal_id"`
	PaymentRef    string          `json:"payment_ref"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	DurationHours int             `json:"duration_hours"`
}

// HandleCreateUpgrade starts a pending dynamic-signal upgrade for the
// authenticated caller. Safe to retry: the payment reference deduplicates.
func HandleCreateUpgrade(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createUpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	upgrade, err := upgradeService.CreateUpgrade(upgrades.CreateUpgradeInput{
		SignalUUID:    req.SignalID,
		UserID:        userCtx.UserID,
		PaymentRef:    req.PaymentRef,
		Amount:        req.Amount,
		Currency:      req.Currency,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"upgrade": upgrade})
}

// HandleGetUpgrade returns one upgrade's state to its owner.
func HandleGetUpgrade(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	upgrade, err := upgradeService.GetUpgrade(c.Params("uuid"))
	if err != nil {
		return respondError(c, err)
	}
	if upgrade.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "Upgrade belongs to another user",
		})
	}

	return c.JSON(fiber.Map{
		"upgrade":    upgrade,
		"is_expired": upgrade.IsExpired(time.Now()),
	})
}

type transitionUpgradeRequest struct {
	Status string `json:"status"`
}

// HandleTransitionUpgrade applies a payment-processor outcome to an upgrade
// (admin / webhook relay only).
func HandleTransitionUpgrade(c *fiber.Ctx) error {
	var req transitionUpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	upgrade, err := upgradeService.Transition(c.Params("uuid"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"upgrade": upgrade})
}
