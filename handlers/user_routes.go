// handlers/user_routes.go
package handlers

import (
	"errors"

	"project-review-system/middleware"
	"project-review-system/models"
	"project-review-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupUserRoutes(app *fiber.App, db *gorm.DB, hackatimeService *services.HackatimeService) {
	users := app.Group("/users", middleware.UserContextMiddleware())

	users.Get("/me", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var user models.User
		if err := db.First(&user, "external_user_id = ?", ident.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// sync worker has not mirrored this account yet; answer from
				// the session claims so first-login users are not blocked
				return c.JSON(fiber.Map{
					"external_user_id": ident.UserID,
					"username":         ident.Username,
					"email":            ident.Email,
					"role":             ident.Role,
					"synced":           false,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(user)
	})

	// ⏱️ Coding-hour totals from the external time tracker (display only)
	users.Get("/me/hours", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		hackatimeID := ident.HackatimeID
		if hackatimeID == "" {
			// the synced row may carry an id the session token predates
			var user models.User
			if err := db.First(&user, "external_user_id = ?", ident.UserID).Error; err == nil && user.HackatimeID != nil {
				hackatimeID = *user.HackatimeID
			}
		}

		hours, err := hackatimeService.HoursForUser(c.Context(), hackatimeID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"projects": hours})
	})
}
