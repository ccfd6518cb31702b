package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/middleware"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/services"
)

type UserController struct {
	Profiles *services.ProfileService
	Timeout  time.Duration
}

type updateProfileBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type updateAvatarBody struct {
	URI string `json:"uri"`
}

// GetOwnProfile returns the authenticated user's profile, email included
func (uc *UserController) GetOwnProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, uc.Timeout)
	defer cancel()

	profile, err := uc.Profiles.GetProfile(ctx, middleware.UserID(c), "")
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "profile": profile})
}

// GetPublicProfile returns the public profile of a user by username
func (uc *UserController) GetPublicProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return fail(c, lib.Validation("Username missing"))
	}

	ctx, cancel := requestContext(c, uc.Timeout)
	defer cancel()

	profile, err := uc.Profiles.GetProfile(ctx, middleware.UserID(c), username)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "profile": profile})
}

// UpdateProfile updates one field of the authenticated user's profile
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var body updateProfileBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, lib.Validation("Invalid request body"))
	}

	ctx, cancel := requestContext(c, uc.Timeout)
	defer cancel()

	message, err := uc.Profiles.UpdateProfile(ctx, middleware.UserID(c), models.ProfileField(body.Field), body.Value)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lib.MessageResponse(message))
}

// UpdateAvatar replaces the authenticated user's avatar URI
func (uc *UserController) UpdateAvatar(c *fiber.Ctx) error {
	var body updateAvatarBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, lib.Validation("Invalid request body"))
	}

	ctx, cancel := requestContext(c, uc.Timeout)
	defer cancel()

	message, err := uc.Profiles.UpdateAvatar(ctx, middleware.UserID(c), body.URI)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lib.MessageResponse(message))
}
