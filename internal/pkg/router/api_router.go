package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pulseapp/PulseSignals/app/controllers"
	"github.com/pulseapp/PulseSignals/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Pulse Signals API",
		})
	})

	v1 := api.Group("/v1")

	// Public: account bootstrap
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)

	// Everything below requires an API key
	protected := v1.Group("", middleware.APIKeyAuthMiddleware())

	protected.Get("/account", controllers.HandleGetAccount)

	signals := protected.Group("/signals")
	signals.Get("/", controllers.HandleListSignals)
	signals.Get("/:uuid", controllers.HandleGetSignal)
	signals.Get("/:uuid/updates", controllers.HandleListSignalUpdates)

	upgradesGroup := protected.Group("/upgrades")
	upgradesGroup.Post("/", controllers.HandleCreateUpgrade)
	upgradesGroup.Get("/:uuid", controllers.HandleGetUpgrade)

	wl := protected.Group("/watchlist")
	wl.Get("/", controllers.HandleListWatchlist)
	wl.Post("/", controllers.HandleAddWatchlistItem)
	wl.Post("/prices", controllers.HandleUpdateWatchlistPrices)
	wl.Get("/:id", controllers.HandleGetWatchlistItem)
	wl.Patch("/:id", controllers.HandleUpdateWatchlistItem)
	wl.Delete("/:id", controllers.HandleDeleteWatchlistItem)

	notifications := protected.Group("/notifications")
	notifications.Get("/", controllers.HandleListNotifications)
	notifications.Post("/:id/read", controllers.HandleMarkNotificationRead)

	// Admin: signal authoring, payment webhook relay, sweeps, tiers
	admin := protected.Group("/admin", middleware.RequireAdmin)
	admin.Post("/signals", controllers.HandleCreateSignal)
	admin.Patch("/signals/:uuid/status", controllers.HandleUpdateSignalStatus)
	admin.Post("/upgrades/:uuid/transition", controllers.HandleTransitionUpgrade)
	admin.Post("/sweeps/upgrades", controllers.HandleRunUpgradeSweep)
	admin.Post("/sweeps/signals", controllers.HandleRunSignalSweep)
	admin.Put("/users/:id/tier", controllers.HandleSetUserTier)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
