package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/middleware"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/services"
)

type FriendshipController struct {
	Friendships *services.FriendshipService
	Timeout     time.Duration
}

type friendActionBody struct {
	Username  string `json:"username"`
	RequestID string `json:"requestId"`
}

// FriendAction creates, cancels, accepts or rejects a friendship request
func (fc *FriendshipController) FriendAction(c *fiber.Ctx) error {
	action, err := models.ParseFriendAction(c.Params("action"))
	if err != nil {
		return fail(c, lib.Validation("Invalid query"))
	}

	var body friendActionBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return fail(c, lib.Validation("Invalid request body"))
		}
	}

	ctx, cancel := requestContext(c, fc.Timeout)
	defer cancel()

	result, err := fc.Friendships.Action(ctx, middleware.UserID(c), services.FriendActionRequest{
		Action:    action,
		Username:  body.Username,
		RequestID: body.RequestID,
	})
	if err != nil {
		return fail(c, err)
	}

	status := fiber.StatusOK
	if action == models.ActionCreate {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success":    true,
		"message":    result.Message,
		"friendship": result.Friendship,
	})
}

// GetFriendList returns one page of the authenticated user's relationships
func (fc *FriendshipController) GetFriendList(c *fiber.Ctx) error {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fail(c, lib.Validation("Page must be a number"))
		}
		page = parsed
	}
	ref := models.ParseFriendListRef(c.Query("ref"))

	ctx, cancel := requestContext(c, fc.Timeout)
	defer cancel()

	friendList, err := fc.Friendships.List(ctx, middleware.UserID(c), ref, page)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"page":       page,
		"pageSize":   fc.Friendships.PageSize(),
		"friendList": friendList,
	})
}

// GetFriendshipStatus returns the relationship between the authenticated user and another user
func (fc *FriendshipController) GetFriendshipStatus(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, fc.Timeout)
	defer cancel()

	status, err := fc.Friendships.Status(ctx, middleware.UserID(c), c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"status":    status.Status,
		"requestId": status.RequestID,
	})
}
