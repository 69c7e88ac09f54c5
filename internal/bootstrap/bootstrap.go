package bootstrap

import (
	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/database"
	"github.com/deltabots-com-br/api-log/internal/handlers"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	"github.com/deltabots-com-br/api-log/internal/services"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AppComponents holds the initialized components like handlers, services, and the monitor.
type AppComponents struct {
	LogHandler     *handlers.LogHandler
	HealthHandler  *handlers.HealthHandler
	LogService     services.LogService
	LogRepo        repositories.LogRepository
	StorageMonitor *database.StorageMonitor
}

// InitializeAppComponents wires up the application's core components around the
// already-created repository: services, handlers and the background storage
// monitor. The Mongo client may be nil when startup connectivity failed; the
// repository is nil-safe and the monitor reconnects later.
func InitializeAppComponents(
	cfg *config.Config,
	logger *zap.Logger,
	client *mongo.Client, // Can be nil if startup connectivity failed
	logRepo repositories.LogRepository,
) *AppComponents {

	logger.Info("Initializing application components: Services, Handlers, Monitor...")

	// --- 1. Initialize Services ---
	logService := services.NewLogService(logRepo, logger)
	logger.Info("Services initialized.")

	// --- 2. Initialize Handlers ---
	logHandler := handlers.NewLogHandler(logService, logger)
	healthHandler := handlers.NewHealthHandler(logRepo, logger)
	logger.Info("Handlers initialized.")

	// --- 3. Initialize Storage Monitor ---
	storageMonitor := database.NewStorageMonitor(cfg, logRepo, client, logger)
	logger.Info("Storage monitor initialized.")

	logger.Info("Application components initialization complete.")

	return &AppComponents{
		LogHandler:     logHandler,
		HealthHandler:  healthHandler,
		LogService:     logService,
		LogRepo:        logRepo,
		StorageMonitor: storageMonitor,
	}
}
