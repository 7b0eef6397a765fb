package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/upgrades"
	"github.com/pulseapp/PulseSignals/internal/pkg/watchlist"
)

var (
	upgradeService   *upgrades.Service
	watchlistService *watchlist.Service
)

// SetupServices wires the domain services used by the API handlers. Must be
// called once during boot before the router is installed.
func SetupServices(u *upgrades.Service, w *watchlist.Service) {
	upgradeService = u
	watchlistService = w
}

// respondError maps a typed domain error to an HTTP response. Store errors
// never leak their cause to the caller.
func respondError(c *fiber.Ctx, err error) error {
	var typed *apperr.Error
	if !errors.As(err, &typed) {
		log.Errorf("[API] Unclassified error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Something went wrong",
		})
	}

	switch typed.Kind {
	case apperr.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": typed.Msg})
	case apperr.KindConflict:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": typed.Msg})
	case apperr.KindInvalidTransition:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid_transition", "message": typed.Msg})
	case apperr.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": typed.Msg})
	case apperr.KindPermission:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": typed.Msg})
	default:
		log.Errorf("[API] Store error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Something went wrong",
		})
	}
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(v), nil
}

func queryInt(c *fiber.Ctx, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return def
}
