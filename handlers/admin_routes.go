// handlers/admin_routes.go
package handlers

import (
	"project-review-system/middleware"
	"project-review-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, adminService *services.AdminService, reviewService *services.ReviewService, bountyService *services.BountyService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	// 🏆 Grant flow: shipped ↔ granted
	admin.Post("/projects/:id/grant", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		project, err := adminService.GrantProject(ident, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	admin.Post("/projects/:id/ungrant", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		project, err := adminService.UngrantProject(ident, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	admin.Delete("/projects/:id", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		if err := adminService.DeleteProject(ident, c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "project deleted", "id": c.Params("id")})
	})

	admin.Delete("/reviews/:id", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		if err := reviewService.DeleteReview(ident, c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "review deleted", "id": c.Params("id")})
	})

	// 💰 Bounty administration
	admin.Post("/bounties", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var input services.BountyInput
		if err := c.BodyParser(&input); err != nil {
			return badJSON(c)
		}

		bounty, err := bountyService.CreateBounty(ident, input)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(bounty)
	})

	admin.Patch("/bounties/:id", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var upd services.BountyUpdate
		if err := c.BodyParser(&upd); err != nil {
			return badJSON(c)
		}

		bounty, err := bountyService.UpdateBounty(ident, c.Params("id"), upd)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bounty)
	})

	admin.Post("/bounties/:id/complete", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		bounty, err := bountyService.MarkCompleted(ident, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bounty)
	})
}
