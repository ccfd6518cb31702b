package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/middleware"
	"github.com/theleywin/talent-nest-friends/src/services"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Timeout       time.Duration
}

// GetUserNotifications returns the authenticated user's notifications, newest first
func (nc *NotificationController) GetUserNotifications(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, nc.Timeout)
	defer cancel()

	notifications, err := nc.Notifications.List(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "notifications": notifications})
}

// MarkNotificationAsRead marks one notification of the authenticated user as read
func (nc *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, nc.Timeout)
	defer cancel()

	if err := nc.Notifications.MarkRead(ctx, middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(lib.MessageResponse("Notification marked as read"))
}
