package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pulseapp/PulseSignals/app/controllers"
	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/cache"
	"github.com/pulseapp/PulseSignals/internal/pkg/database"
	"github.com/pulseapp/PulseSignals/internal/pkg/env"
	"github.com/pulseapp/PulseSignals/internal/pkg/jobqueue"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
	"github.com/pulseapp/PulseSignals/internal/pkg/router"
	"github.com/pulseapp/PulseSignals/internal/pkg/upgrades"
	"github.com/pulseapp/PulseSignals/internal/pkg/watchlist"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	jobqueue.GetManager().Stop()
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Notifications flow through the Redis job queue; domain services hand
	// them to the queue emitter and never block on delivery. NOTIFY_ASYNC=false
	// bypasses the queue and writes notification rows inline.
	manager := jobqueue.GetManager()
	var emitter notify.Emitter = jobqueue.NewQueueEmitter(manager.GetQueue())
	if env.GetEnv("NOTIFY_ASYNC", "true") == "false" {
		emitter = notify.NewDBEmitter(repository.GetGlobalRepositories().Notification)
	}

	upgradeService := upgrades.NewService(upgrades.NewRepository(database.GetDB()), emitter)
	watchlistService := watchlist.NewService(repository.GetGlobalRepositories().Watchlist, emitter)
	controllers.SetupServices(upgradeService, watchlistService)

	manager.AttachUpgradeService(upgradeService)
	manager.Start()

	app := fiber.New(fiber.Config{
		AppName: "PulseSignals",
	})

	app.Use(recover.New(), logger.New())

	router.InstallRouter(app)

	return app
}
