package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/controllers"
)

// UserRoutes sets up profile routes: own profile, public profile, field update and avatar update
func UserRoutes(api fiber.Router, protect fiber.Handler, uc *controllers.UserController) {
	user := api.Group("/users", protect)

	user.Get("/me", uc.GetOwnProfile)
	user.Put("/profile", uc.UpdateProfile)
	user.Put("/avatar", uc.UpdateAvatar)
	user.Get("/:username", uc.GetPublicProfile)
}
