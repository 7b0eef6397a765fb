package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/entitlements"
	"github.com/pulseapp/PulseSignals/internal/pkg/usercontext"
)

// HandleListSignals returns the signals visible at the caller's effective
// tier. A lapsed subscription sees the free feed even while the stored tier
// still says otherwise.
func HandleListSignals(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	caller, err := entitlements.ParseTier(userCtx.Tier)
	if err != nil {
		return respondError(c, err)
	}
	effective := entitlements.EffectiveTier(caller, userCtx.TierExpiresAt, time.Now())
	tiers := entitlements.AllowedTierStrings(effective)

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo := repository.GetGlobalFactory().GetSignalRepository()
	signals, err := repo.ListByTiers(tiers, (page-1)*limit, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.CountByTiers(tiers)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"signals": signals,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
		"effective_tier": string(effective),
	})
}

// HandleGetSignal returns one signal when the caller's tier covers it. The
// dynamic owner and admins always pass.
func HandleGetSignal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetSignalRepository()
	signal, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return respondError(c, err)
	}

	if !canViewSignal(userCtx, signal) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":         "forbidden",
			"message":       "Subscription upgrade required to view this signal",
			"required_tier": signal.RequiredTier,
		})
	}

	return c.JSON(fiber.Map{"signal": signal})
}

// HandleListSignalUpdates returns the audit feed of a dynamic signal. Only
// the paying owner and admins may read it.
func HandleListSignalUpdates(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetSignalRepository()
	signal, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return respondError(c, err)
	}

	isOwner := signal.DynamicUserID != nil && *signal.DynamicUserID == userCtx.UserID
	if !isOwner && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "Signal updates are only available to the upgrade owner",
		})
	}

	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	updates, err := repo.ListUpdates(signal.ID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"signal_id": signal.UUID, "updates": updates})
}

type createSignalRequest struct {
	Symbol       string  `json:"symbol"`
	CompanyName  string  `json:"company_name"`
	Type         string  `json:"type"`
	Action       string  `json:"action"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
	StopLoss     float64 `json:"stop_loss"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	Tags         string  `json:"tags"`
	RequiredTier string  `json:"required_tier"`
	ExpiresAt    *string `json:"expires_at"`
}

// HandleCreateSignal publishes a new signal (admin only).
func HandleCreateSignal(c *fiber.Ctx) error {
	var req createSignalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	signal := models.NewSignal()
	signal.Symbol = req.Symbol
	signal.CompanyName = req.CompanyName
	signal.Type = req.Type
	signal.Action = req.Action
	signal.CurrentPrice = req.CurrentPrice
	signal.TargetPrice = req.TargetPrice
	signal.StopLoss = req.StopLoss
	signal.Confidence = req.Confidence
	signal.Reasoning = req.Reasoning
	if req.Tags != "" {
		signal.Tags = req.Tags
	}
	if req.RequiredTier != "" {
		tier, err := entitlements.ParseTier(req.RequiredTier)
		if err != nil {
			return respondError(c, err)
		}
		signal.RequiredTier = string(tier)
	}
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "expires_at must be RFC3339"})
		}
		signal.ExpiresAt = &t
	}

	if err := signal.Validate(); err != nil {
		return respondError(c, err)
	}
	if err := repository.GetGlobalFactory().GetSignalRepository().Create(signal); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"signal": signal})
}

type updateSignalStatusRequest struct {
	Status       string   `json:"status"`
	CurrentPrice *float64 `json:"current_price"`
}

// HandleUpdateSignalStatus moves a signal through its lifecycle (admin
// only). An optional current price is applied first so that completion
// records profit/loss against the latest quote.
func HandleUpdateSignalStatus(c *fiber.Ctx) error {
	var req updateSignalStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetSignalRepository()
	signal, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return respondError(c, err)
	}

	if req.CurrentPrice != nil && *req.CurrentPrice > 0 {
		signal.CurrentPrice = *req.CurrentPrice
	}
	if err := signal.SetStatus(req.Status, time.Now()); err != nil {
		return respondError(c, err)
	}
	if err := repo.Update(signal); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"signal": signal})
}

func canViewSignal(userCtx usercontext.UserContext, signal *models.Signal) bool {
	if userCtx.IsAdmin {
		return true
	}
	if signal.DynamicUserID != nil && *signal.DynamicUserID == userCtx.UserID {
		return true
	}
	ok, err := entitlements.IsEntitled(userCtx.Tier, userCtx.TierExpiresAt, signal.RequiredTier, time.Now())
	return err == nil && ok
}
