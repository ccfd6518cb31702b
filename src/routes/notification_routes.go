package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/controllers"
)

// NotificationRoutes sets up notification listing and marking as read
func NotificationRoutes(api fiber.Router, protect fiber.Handler, nc *controllers.NotificationController) {
	notification := api.Group("/notifications", protect)

	notification.Get("/", nc.GetUserNotifications)
	notification.Put("/:id/read", nc.MarkNotificationAsRead)
}
