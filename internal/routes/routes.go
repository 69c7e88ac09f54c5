package routes

import (
	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/handlers"
	mw "github.com/deltabots-com-br/api-log/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SetupRoutes configures the application routes.
func SetupRoutes(
	app *fiber.App,
	cfg *config.Config,
	logger *zap.Logger,
	logHandler *handlers.LogHandler,
	healthHandler *handlers.HealthHandler,
) {
	logger.Info("Setting up application routes...")

	// --- Public Routes ---

	// Health Check / liveness report. The only route outside the API key guard.
	app.Get("/", healthHandler.Check)

	// --- Protected Routes (Requires X-API-Key) ---
	protected := app.Group("/", mw.Protected(cfg.APIKey)) // Middleware applied to this group

	// Unified log routes: POST /logs and GET /logs, dispatched on 'type'
	logHandler.SetupLogRoutes(protected)
}
