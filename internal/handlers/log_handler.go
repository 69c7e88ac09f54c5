package handlers

import (
	"errors"

	"github.com/deltabots-com-br/api-log/internal/middleware"
	"github.com/deltabots-com-br/api-log/internal/models"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	"github.com/deltabots-com-br/api-log/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogHandler handles the unified /logs ingestion and query requests
type LogHandler struct {
	logService services.LogService
	logger     *zap.Logger
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(logService services.LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		logService: logService,
		logger:     logger,
	}
}

// ReceiveLog handles POST /logs requests. The body field 'type' selects the
// RPA or iPaaS schema and storage collection.
func (h *LogHandler) ReceiveLog(c *fiber.Ctx) error {
	// Get request-scoped loggers
	lg := middleware.GetRequestFileLogger(c)
	mongoLg := middleware.GetRequestMongoLogger(c)

	result, err := h.logService.Ingest(c.Context(), c.Body(), c.IP())
	if err != nil {
		return writeServiceError(c, lg, mongoLg, err, "Failed to write to the database.")
	}

	lg.Info("Log record ingested",
		zap.String("log_type", string(result.LogType)),
		zap.String("log_id", result.LogID),
	)
	// Business event for the api_events collection (level-gated, Nop when disabled)
	mongoLg.Info("Log record ingested",
		zap.String("log_type", string(result.LogType)),
		zap.String("log_id", result.LogID),
		zap.String("source_ip", c.IP()),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":             "sucesso",
		"log_type_processed": result.LogType,
		"log_id":             result.LogID,
	})
}

// QueryLogs handles GET /logs requests. The query parameter 'type' selects
// the category; robo_codigo / ipaas_codigo, data_inicio and data_fim narrow
// the result set.
func (h *LogHandler) QueryLogs(c *fiber.Ctx) error {
	lg := middleware.GetRequestFileLogger(c)
	mongoLg := middleware.GetRequestMongoLogger(c)

	params := services.QueryParams{
		Type:        c.Query("type"),
		RoboCodigo:  c.Query("robo_codigo"),
		IpaasCodigo: c.Query("ipaas_codigo"),
		DataInicio:  c.Query("data_inicio"),
		DataFim:     c.Query("data_fim"),
	}

	result, err := h.logService.Query(c.Context(), params)
	if err != nil {
		return writeServiceError(c, lg, mongoLg, err, "Failed to query the database.")
	}

	mongoLg.Info("Logs queried",
		zap.String("log_type", params.Type),
		zap.Int("results", result.Total),
	)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":            "sucesso",
		"total_resultados":  result.Total,
		"filtros_aplicados": result.AppliedFilters,
		"logs":              result.Logs,
	})
}

// writeServiceError converts a service/repository error to the structured
// error envelope. Every failure is mapped here so nothing escapes as an
// unstructured response.
func writeServiceError(c *fiber.Ctx, lg, mongoLg *zap.Logger, err error, internalMsg string) error {
	var vErr *services.ValidationError

	switch {
	case errors.Is(err, repositories.ErrStorageUnavailable):
		lg.Warn("Request rejected: storage unavailable", zap.String("path", c.Path()))
		mongoLg.Warn("Request rejected: storage unavailable", zap.String("path", c.Path()))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Service unavailable. Database connection failed.",
		})
	case errors.Is(err, services.ErrMissingType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request.",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrMissingTypeParam):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Missing parameter.",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidLogType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid log type.",
			"message": "The 'type' value must be 'rpa' or 'ipaas'.",
		})
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request.",
			"message": vErr.Message,
		})
	default:
		lg.Error("Storage operation failed", zap.String("path", c.Path()), zap.Error(err))
		mongoLg.Error("Storage operation failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   internalMsg,
			"details": err.Error(),
		})
	}
}

// SetupLogRoutes registers the unified log routes with the Fiber app (protected)
func (h *LogHandler) SetupLogRoutes(router fiber.Router) {
	// Assuming the router passed here is already under the API key middleware
	router.Post("/logs", h.ReceiveLog)
	router.Get("/logs", h.QueryLogs)
}
