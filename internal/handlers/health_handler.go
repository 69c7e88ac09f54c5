package handlers

import (
	"time"

	"github.com/deltabots-com-br/api-log/internal/middleware"
	"github.com/deltabots-com-br/api-log/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthHandler reports process and storage-connectivity health.
type HealthHandler struct {
	logRepo repositories.LogRepository
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(logRepo repositories.LogRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logRepo: logRepo,
		logger:  logger,
	}
}

// Check handles GET / requests. It is unauthenticated and never fails the
// HTTP call itself: storage connectivity is reported as a field value.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	lg := middleware.GetRequestFileLogger(c)

	mongoStatus := "conectado"
	if err := h.logRepo.Ping(c.Context()); err != nil {
		mongoStatus = "desconectado"
		lg.Warn("Health check: MongoDB ping failed", zap.Error(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"current_time":   time.Now().Format(time.RFC3339Nano),
		"api_status":     "operacional",
		"mongodb_status": mongoStatus,
	})
}
