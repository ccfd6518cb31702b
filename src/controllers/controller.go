package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/lib"
)

const defaultTimeout = 10 * time.Second

// requestContext bounds the store work of one request.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(lib.HTTPStatus(err)).JSON(lib.ErrorResponse(err))
}
