package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulseapp/PulseSignals/internal/pkg/usercontext"
	"github.com/pulseapp/PulseSignals/internal/pkg/watchlist"
)

type addWatchlistItemRequest struct {
	Symbol       string   `json:"symbol"`
	CompanyName  string   `json:"company_name"`
	Type         string   `json:"type"`
	CurrentPrice float64  `json:"current_price"`
	Notes        string   `json:"notes"`
	AlertTarget  *float64 `json:"price_alert_target"`
}

// HandleAddWatchlistItem adds a symbol to the caller's watchlist.
func HandleAddWatchlistItem(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req addWatchlistItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	item, err := watchlistService.AddItem(watchlist.AddItemInput{
		UserID:       userCtx.UserID,
		Symbol:       req.Symbol,
		CompanyName:  req.CompanyName,
		Type:         req.Type,
		CurrentPrice: req.CurrentPrice,
		Notes:        req.Notes,
		AlertTarget:  req.AlertTarget,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": item})
}

// HandleListWatchlist returns the caller's watchlist.
func HandleListWatchlist(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	items, err := watchlistService.ListItems(userCtx.UserID, queryInt(c, "limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// HandleGetWatchlistItem returns one owned watchlist item.
func HandleGetWatchlistItem(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	item, err := watchlistService.GetItem(userCtx.UserID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"item": item})
}

type updateWatchlistItemRequest struct {
	CompanyName *string  `json:"company_name"`
	Notes       *string  `json:"notes"`
	AlertOn     *bool    `json:"is_price_alert_enabled"`
	AlertTarget *float64 `json:"price_alert_target"`
}

// HandleUpdateWatchlistItem applies a partial update to an owned item.
func HandleUpdateWatchlistItem(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateWatchlistItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	item, err := watchlistService.UpdateItem(userCtx.UserID, id, watchlist.UpdateItemInput{
		CompanyName: req.CompanyName,
		Notes:       req.Notes,
		AlertOn:     req.AlertOn,
		AlertTarget: req.AlertTarget,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"item": item})
}

// HandleDeleteWatchlistItem removes an owned item.
func HandleDeleteWatchlistItem(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := watchlistService.RemoveItem(userCtx.UserID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type updateWatchlistPricesRequest struct {
	Updates []watchlist.PriceUpdate `json:"updates"`
}

// HandleUpdateWatchlistPrices ingests a batch of quotes for the caller's
// items. Bad rows are skipped; alert checks run per item.
func HandleUpdateWatchlistPrices(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateWatchlistPricesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	if len(req.Updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "updates must not be empty"})
	}

	updated := watchlistService.ApplyPriceUpdates(userCtx.UserID, req.Updates)
	return c.JSON(fiber.Map{
		"success":       true,
		"updated_count": updated,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
