package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/deltabots-com-br/api-log/internal/bootstrap"
	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/database"
	"github.com/deltabots-com-br/api-log/internal/logging"
	"github.com/deltabots-com-br/api-log/internal/middleware"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	routes "github.com/deltabots-com-br/api-log/internal/routes"
	"github.com/deltabots-com-br/api-log/internal/utils"

	"github.com/DeRuina/timberjack"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Run initializes and starts the application
func Run() {
	// <<<< Record start time for App initialization
	initAppStartTime := time.Now()

	// --- 1. Load Configuration ---
	tempConfigLogger, _ := zap.NewProduction(zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	defer tempConfigLogger.Sync()

	cfg, err := config.LoadConfig(tempConfigLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- 2. Create SHARED File Writer/Syncer for timberjack ---
	logDir := filepath.Dir(cfg.LogFilePath)
	if logDir != "." && logDir != "/" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to ensure log directory %s exists: %v\n", logDir, err)
			os.Exit(1)
		}
	}
	timberJackLogger := &timberjack.Logger{
		Filename:         cfg.LogFilePath,
		MaxSize:          cfg.LogMaxSize,
		MaxBackups:       cfg.LogMaxBackups,
		MaxAge:           cfg.LogMaxAge,
		Compress:         cfg.LogCompress,
		LocalTime:        true,
		RotationInterval: time.Duration(cfg.LogRotateInterval) * time.Hour,
	}
	fileSyncer := zapcore.AddSync(timberJackLogger)

	// --- 3. Initialize LogRepository (with nil Mongo handle initially) ---
	// Repository methods must be nil-safe for the handle during this early
	// phase; they report ErrStorageUnavailable until a handle is set.
	logRepo := repositories.NewMongoLogRepository(nil, cfg.MongoOpTimeout, tempConfigLogger)
	tempConfigLogger.Info("LogRepository initially created (Mongo handle is nil, using temp logger).")

	// --- 4. Initialize Main Application Loggers (File/Console and Mongo-dedicated) ---
	appLoggers, err := logging.InitializeLoggers(cfg, logRepo, fileSyncer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize application loggers: %v\n", err)
		os.Exit(1)
	}
	fileLogger := appLoggers.File
	mongoLogger := appLoggers.Mongo

	// --- 5. Set Global Loggers ---
	logging.SetGlobalLoggers(fileLogger, mongoLogger)
	fileLogger.Info("Global application loggers (file/console and Mongo-dedicated) have been set.")

	// Re-point the repository at the real logger; it was created with the
	// temporary one before the file/console tee existed.
	logRepo.SetLogger(fileLogger)

	// --- 6. Trace Config Details (using the final fileLogger) ---
	utils.TraceConfigDetails(fileLogger, cfg)

	// --- 7. Initialize MongoDB ---
	// A failed connection does NOT abort startup: the service runs degraded
	// (storage routes answer 503) and the monitor keeps retrying.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.MongoConnectTimeout+2*time.Second)
	client, db, err := database.InitMongo(connectCtx, cfg, fileLogger)
	cancelConnect()
	if err != nil {
		fileLogger.Error("MongoDB unavailable at startup; starting in degraded mode. Storage-dependent routes will return 503 until the connection is established.", zap.Error(err))
	} else {
		logRepo.SetDatabase(db)
		fileLogger.Info("MongoDB handle has been set in LogRepository.")
	}

	// --- 8. Initialize Fiber App ---
	fileLogger.Info("Initializing Fiber application...")
	appFiber := fiber.New(fiber.Config{
		AppName: "Deltabots Unified Log API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			lg := middleware.GetRequestFileLogger(c)
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) && e != nil {
				code = e.Code
			}
			fields := []zap.Field{
				zap.Int("status", code),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("ip", c.IP()),
				zap.Error(err),
			}
			if reqIDStr, ok := c.Locals(middleware.RequestIDKey).(string); ok && reqIDStr != "" {
				fields = append(fields, zap.String("request_id", reqIDStr))
			}
			if code == fiber.StatusNotFound {
				lg.Warn("Resource not found", fields...)
			} else {
				lg.Error("Generic ErrorHandler", fields...)
			}
			resp := fiber.Map{"error": "An unexpected error occurred"}
			if cfg.AppEnv != "production" && err != nil {
				resp["details"] = err.Error()
			}
			return c.Status(code).JSON(resp)
		},
	})

	// --- 9. Initialize Remaining Application Components (Bootstrap) ---
	components := bootstrap.InitializeAppComponents(cfg, fileLogger, client, logRepo)

	// --- 10. Register Middleware ---
	appFiber.Use(recover.New(recover.Config{
		EnableStackTrace: strings.ToLower(cfg.LogLevel) == "debug",
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger := middleware.GetRequestFileLogger(c)
			if logger == nil {
				logger = logging.GetFileLogger()
			}
			logger.Error("Panic recovered", zap.Any("panic_value", e))
		},
	}))
	fileLogger.Info("Configuring CORS", zap.String("origins", cfg.CORSAllowOrigins), zap.String("methods", cfg.CORSAllowMethods), zap.String("headers", cfg.CORSAllowHeaders))
	appFiber.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}))
	appFiber.Use(middleware.RequestLoggers(fileLogger, mongoLogger))
	if strings.ToLower(cfg.LogLevel) == "debug" {
		appFiber.Use(middleware.RequestDebugLogger())
	}
	appFiber.Use(fiberzap.New(fiberzap.Config{
		Logger: fileLogger,
		Fields: []string{"status", "method", "url", "ip", "latency", "error"}, // Keep desired standard fields
		FieldsFunc: func(c *fiber.Ctx) []zap.Field {
			fields := []zap.Field{zap.String("log_type", "access")}
			reqID := ""
			if idVal := c.Locals(middleware.RequestIDKey); idVal != nil {
				if idStr, ok := idVal.(string); ok {
					reqID = idStr
				}
			}
			if reqID == "" {
				reqID = c.Get(middleware.RequestIDHeader)
			}
			if reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			return fields
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/" // Skip access logs for liveness probes
		},
	}))

	// --- 11. Setup Application Routes ---
	routes.SetupRoutes(appFiber, cfg, fileLogger, components.LogHandler, components.HealthHandler)

	// --- 12. Start Storage Monitor ---
	components.StorageMonitor.Start()

	// --- 13. Start Server & Graceful Shutdown ---
	serverCtx, cancelServerCtx := context.WithCancel(context.Background())
	defer cancelServerCtx()
	serverStopped := make(chan struct{})

	// <<<< Calculate initialization duration >>>>
	initAppDurationMs := time.Since(initAppStartTime).Milliseconds()

	go func() {
		defer close(serverStopped)
		listenAddr := ":" + cfg.Port
		fileLogger.Info(fmt.Sprintf("Completed initialization application in %d ms.", initAppDurationMs))
		fileLogger.Info("Starting Fiber server...",
			zap.String("address", listenAddr),
			zap.Int("pid", os.Getpid()),
			zap.String("app_env", cfg.AppEnv),
		)

		if err := appFiber.Listen(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fileLogger.Error("Server listener failed", zap.String("address", listenAddr), zap.Error(err))
			cancelServerCtx()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case s := <-sig:
		fileLogger.Info("Shutdown signal received.", zap.String("signal", s.String()))
	case <-serverCtx.Done():
		fileLogger.Info("Server context cancelled, initiating shutdown.")
	}

	fileLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Stop the storage monitor first; it also disconnects the Mongo client.
	components.StorageMonitor.Stop()

	if err := appFiber.ShutdownWithContext(shutdownCtx); err != nil {
		fileLogger.Error("Fiber server shutdown failed", zap.Error(err))
	} else {
		fileLogger.Info("Fiber server gracefully stopped.")
	}
	<-serverStopped
	fileLogger.Info("HTTP listener goroutine stopped.")

	fileLogger.Info("Syncing file/console logger before shutdown...")
	if errSync := fileLogger.Sync(); errSync != nil {
		errMsg := errSync.Error()
		if strings.Contains(errMsg, "handle is invalid") || strings.Contains(errMsg, "sync /dev/stdout") {
			// Often expected when stdout isn't available at exit.
			fileLogger.Debug("Logger sync warning for stdout (handle likely invalid during shutdown).", zap.Error(errSync))
		} else {
			fileLogger.Warn("Error syncing file/console logger.", zap.Error(errSync))
			fmt.Fprintf(os.Stderr, "[WARN] Error syncing file/console logger: %v\n", errSync)
		}
	}

	fmt.Println("[INFO] Application shutdown complete.")
}
