package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talent-nest-friends/src/controllers"
)

// FriendshipRoutes sets up friend actions, the paginated friend list and the relationship status lookup
func FriendshipRoutes(api fiber.Router, protect fiber.Handler, fc *controllers.FriendshipController) {
	friends := api.Group("/friends", protect)

	friends.Get("/", fc.GetFriendList)
	friends.Get("/status/:username", fc.GetFriendshipStatus)
	friends.Post("/:action", fc.FriendAction)
}
