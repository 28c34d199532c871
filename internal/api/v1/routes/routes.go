// Package routes defines the API routes and URL structure
package routes

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/climateview/mapgen/internal/api/v1/handlers"
)

// APIv1Prefix is the prefix for all API endpoints
const APIv1Prefix = "/api/v1"

// RegisterRoutes configures all the v1 routes.
//
// NOTE: route ordering matters because routes match in registration order.
// The proxy route must be registered before the fingerprint listing route so
// "proxy" is not interpreted as a fingerprint.
func RegisterRoutes(
	app *fiber.App,
	requestHandler *handlers.RequestHandler,
	fileHandler *handlers.FileHandler,
	progressHandler *handlers.ProgressHandler,
	userHandler *handlers.UserHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group(APIv1Prefix)

	// Request endpoints
	requests := v1.Group("/requests")
	requests.Get("/", requestHandler.ListRequests)
	requests.Get("/:fingerprint", requestHandler.GetRequest)
	requests.Post("/", requestHandler.SubmitRequest)

	// File endpoints
	files := v1.Group("/files")
	files.Get("/proxy/:fingerprint/:filename", fileHandler.ProxyFile)
	files.Get("/:fingerprint", fileHandler.ListFiles)

	// Progress streaming endpoints
	progress := v1.Group("/progress")
	progress.Get("/stream", progressHandler.StreamProgress)
	progress.Get("/stream/:fingerprint", progressHandler.StreamProgress)

	// User endpoints
	users := v1.Group("/users")
	users.Get("/", userHandler.GetUsers)
	users.Get("/:id", userHandler.GetUserByID)
	users.Post("/", userHandler.CreateUser)
	users.Delete("/:id", userHandler.DeleteUser)
}
