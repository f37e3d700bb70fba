// handlers/project_routes.go
package handlers

import (
	"path/filepath"

	"project-review-system/middleware"
	"project-review-system/services"
	"project-review-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupProjectRoutes(app *fiber.App, projectService *services.ProjectService, reviewService *services.ReviewService) {
	// 🔐 Session context is scoped to its own prefixes; a "/" group would leak
	// the middleware onto every route registered after it, public ones included
	projects := app.Group("/projects", middleware.UserContextMiddleware())

	projects.Post("/", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var input services.ProjectInput
		if err := c.BodyParser(&input); err != nil {
			return badJSON(c)
		}

		project, err := projectService.Create(ident, input)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(project)
	})

	projects.Get("/", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		list, err := projectService.ListOwn(ident)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	projects.Get("/:id", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		project, err := projectService.Get(ident, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"project":      project,
			"editor_label": services.EditorLabel(project),
		})
	})

	projects.Patch("/:id", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var upd services.ProjectUpdate
		if err := c.BodyParser(&upd); err != nil {
			return badJSON(c)
		}

		project, err := projectService.Update(ident, c.Params("id"), upd)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	// ✅ Review history + owner feedback channel
	projects.Get("/:id/reviews", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		reviews, err := reviewService.ListForProject(ident, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reviews)
	})

	projects.Post("/:id/comments", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var body struct {
			Comment string `json:"comment"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badJSON(c)
		}

		result, err := reviewService.SubmitOwnerComment(ident, c.Params("id"), body.Comment)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	// 🔍 Reviewer-only surface
	projects.Post("/:id/reviews", middleware.RequireReviewer(), func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var body struct {
			Decision string `json:"decision"`
			Comment  string `json:"comment"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badJSON(c)
		}

		result, err := reviewService.SubmitReview(ident, c.Params("id"), body.Decision, body.Comment)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	reviews := app.Group("/reviews", middleware.UserContextMiddleware(), middleware.RequireReviewer())

	reviews.Get("/queue", func(c *fiber.Ctx) error {
		ident, err := middleware.IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		list, err := projectService.ListInReview(ident)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	// 🖼️ Screenshot upload → R2, returns the public URL for the project form
	app.Post("/uploads/screenshots", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		if _, err := middleware.IdentityFrom(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		file, err := c.FormFile("screenshot")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "screenshot file is required"})
		}
		if file.Size > 10*1024*1024 { // 10MB
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "screenshot too large (max 10MB)"})
		}

		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := "screenshots/" + uuid.NewString() + ext
		publicURL, err := utils.UploadFileToR2(file, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload screenshot"})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": publicURL})
	})
}
