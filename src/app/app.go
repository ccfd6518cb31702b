// Package app assembles the store, services and HTTP routes.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/theleywin/talent-nest-friends/src/controllers"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/middleware"
	"github.com/theleywin/talent-nest-friends/src/routes"
	"github.com/theleywin/talent-nest-friends/src/services"
	"github.com/theleywin/talent-nest-friends/src/store"
	"github.com/theleywin/talent-nest-friends/src/store/memory"
	mongostore "github.com/theleywin/talent-nest-friends/src/store/mongo"
	sqlitestore "github.com/theleywin/talent-nest-friends/src/store/sqlite"
)

// OpenStore connects the store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg lib.Config) (store.Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case lib.StoreMongo:
		client, err := lib.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mongostore.New(ctx, client, cfg.MongoDatabase)
	case lib.StoreSQLite:
		db, err := lib.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlitestore.New(db)
	case lib.StoreMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// New builds the fiber application on top of st.
func New(cfg lib.Config, st store.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				return c.Status(code).JSON(fiber.Map{"success": false, "error": e.Message})
			}
			return c.Status(code).JSON(lib.ErrorResponse(err))
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protect := middleware.ProtectRoute(cfg.JWTSecret)
	api := app.Group("/api/v1")

	routes.UserRoutes(api, protect, &controllers.UserController{
		Profiles: services.NewProfileService(st, lib.NewBcryptHasher(cfg.BcryptCost)),
		Timeout:  cfg.StoreTimeout,
	})
	routes.FriendshipRoutes(api, protect, &controllers.FriendshipController{
		Friendships: services.NewFriendshipService(st, cfg.PageSize),
		Timeout:     cfg.StoreTimeout,
	})
	routes.NotificationRoutes(api, protect, &controllers.NotificationController{
		Notifications: services.NewNotificationService(st),
		Timeout:       cfg.StoreTimeout,
	})

	return app
}
