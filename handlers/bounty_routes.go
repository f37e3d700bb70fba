// handlers/bounty_routes.go
package handlers

import (
	"errors"

	"project-review-system/middleware"
	"project-review-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService) {
	// 🔓 Public listing — Gateway auth only, no user context needed
	app.Get("/bounties", func(c *fiber.Ctx) error {
		bounties, err := bountyService.List("")
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bounties)
	})

	app.Get("/bounties/:id", func(c *fiber.Ctx) error {
		bounty, err := bountyService.Get("", c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bounty)
	})

	// 🔐 Claiming requires user context; the middleware sits on the route so
	// the public GETs above stay token-free
	app.Post("/bounties/:id/claim", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		result, err := bountyService.Claim(ident, c.Params("id"))
		if err != nil {
			// a conflict still reports the current claim state so a
			// double-submitting user sees "already claimed" with counts
			var ce *services.ConflictError
			if errors.As(err, &ce) && result != nil {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":          ce.Reason,
					"claimed_count":  result.ClaimedCount,
					"caller_claimed": result.CallerClaimed,
				})
			}
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	// 👀 Authenticated listing carries the caller-claimed flag
	app.Get("/me/bounties", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		bounties, err := bountyService.List(ident.UserID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bounties)
	})
}
