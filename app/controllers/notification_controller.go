package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/usercontext"
)

// HandleListNotifications returns the caller's notifications, newest first.
func HandleListNotifications(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	notifications, err := repository.GetGlobalFactory().GetNotificationRepository().ListByUser(userCtx.UserID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications, "count": len(notifications)})
}

// HandleMarkNotificationRead marks one owned notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := repository.GetGlobalFactory().GetNotificationRepository().MarkRead(id, userCtx.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
