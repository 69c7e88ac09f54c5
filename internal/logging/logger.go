package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync" // Import sync for mutex
	"time"

	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/models"
	"github.com/deltabots-com-br/api-log/internal/repositories"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalFileLogger  *zap.Logger
	globalMongoLogger *zap.Logger // Can be nil
	globalLoggersMu   sync.RWMutex
)

// AppLoggers holds the different logger instances for the application.
type AppLoggers struct {
	File  *zap.Logger // For general logging (console, file)
	Mongo *zap.Logger // For dedicated Mongo app-event logging (can be Nop if disabled)
}

// Custom level encoder function
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]") // Format with brackets
}

// Custom level encoder function with color for console
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var colorPrefix, colorSuffix string
	switch level {
	case zapcore.DebugLevel:
		colorPrefix = "\x1b[35m" // Magenta
		colorSuffix = "\x1b[0m"
	case zapcore.InfoLevel:
		colorPrefix = "\x1b[32m" // Green
		colorSuffix = "\x1b[0m"
	case zapcore.WarnLevel:
		colorPrefix = "\x1b[33m" // Yellow
		colorSuffix = "\x1b[0m"
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		colorPrefix = "\x1b[31m" // Red
		colorSuffix = "\x1b[0m"
	default:
		colorPrefix = ""
		colorSuffix = ""
	}
	enc.AppendString(colorPrefix + "[" + level.CapitalString() + "]" + colorSuffix)
}

// CreateFileConsoleEncoderConfigs sets up the encoder configurations.
func CreateFileConsoleEncoderConfigs() (zapcore.EncoderConfig, zapcore.EncoderConfig) {
	// Console Encoder (human-readable, colored)
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.EncodeLevel = customColorLevelEncoder
	consoleEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	// File Encoder
	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeLevel = customLevelEncoder
	fileEncoderCfg.TimeKey = "timestamp"
	fileEncoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	fileEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	return consoleEncoderCfg, fileEncoderCfg
}

// InitializeLoggers creates the file/console application logger
// and a dedicated Mongo app-event logger.
func InitializeLoggers(cfg *config.Config, logRepo repositories.LogRepository, fileSyncer zapcore.WriteSyncer) (*AppLoggers, error) {
	appLoggers := &AppLoggers{}

	// --- Initialize File/Console Logger ---
	var fileLogLevel zapcore.Level
	if err := fileLogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Invalid LOG_LEVEL '%s' for file/console logger, defaulting to info: %v\n", cfg.LogLevel, err)
		fileLogLevel = zapcore.InfoLevel
	}

	consoleEncoderCfg, fileEncoderCfg := CreateFileConsoleEncoderConfigs()
	consoleSyncer := zapcore.Lock(os.Stdout)

	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), consoleSyncer, fileLogLevel)
	fileOutputCore := zapcore.NewCore(zapcore.NewConsoleEncoder(fileEncoderCfg), fileSyncer, fileLogLevel)

	fileAndConsoleLoggerCore := zapcore.NewTee(consoleCore, fileOutputCore)
	appLoggers.File = zap.New(fileAndConsoleLoggerCore, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	appLoggers.File.Info("======================================================================================")
	appLoggers.File.Info("File/Console application logger initialized",
		zap.String("environment", cfg.AppEnv),
		zap.String("configuredLevel", cfg.LogLevel),
		zap.String("effectiveLevel", fileLogLevel.String()),
		zap.String("logFile", cfg.LogFilePath),
	)

	// --- Initialize Dedicated Mongo App-Event Logger ---
	if cfg.MongoLogEnabled {
		var mongoLogLevel zapcore.Level
		if err := mongoLogLevel.UnmarshalText([]byte(cfg.MongoLogLevel)); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Invalid MONGO_LOG_LEVEL '%s', defaulting to warn: %v\n", cfg.MongoLogLevel, err)
			mongoLogLevel = zapcore.WarnLevel
		}
		// The Mongo logger uses a JSON encoder config as it feeds structured
		// documents, not human-readable lines.
		mongoEncoderConfig := zap.NewProductionEncoderConfig()
		mongoEncoderConfig.TimeKey = "timestamp"
		mongoEncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		mongoEncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		mongoJSONEncoder := zapcore.NewJSONEncoder(mongoEncoderConfig)
		mongoOnlyCore := NewMongoCore(mongoLogLevel, mongoJSONEncoder, mongoEncoderConfig, logRepo)

		appLoggers.Mongo = zap.New(mongoOnlyCore, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
		appLoggers.File.Info("Dedicated Mongo app-event logger initialized",
			zap.String("effectiveLevel", mongoLogLevel.String()),
		)
	} else {
		appLoggers.File.Info("Dedicated Mongo app-event logger is disabled by configuration.")
		appLoggers.Mongo = zap.NewNop() // Provide a no-op logger if disabled
	}

	return appLoggers, nil
}

// --- Custom Mongo Zap Core ---

// mongoCore implements zapcore.Core and writes logs to the api_events
// collection via a LogRepository. It must never fail a request path: storage
// errors are reported to stderr and dropped.
type mongoCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	cfg     zapcore.EncoderConfig // Stored config for accessing keys
	repo    repositories.LogRepository
	fields  []zapcore.Field // Fields added via logger.With()
}

// NewMongoCore creates a new core for writing logs to MongoDB.
func NewMongoCore(enab zapcore.LevelEnabler, enc zapcore.Encoder, cfg zapcore.EncoderConfig, repo repositories.LogRepository) zapcore.Core {
	return &mongoCore{
		LevelEnabler: enab,
		encoder:      enc.Clone(),
		cfg:          cfg,
		repo:         repo,
		fields:       make([]zapcore.Field, 0),
	}
}

func (c *mongoCore) Enabled(level zapcore.Level) bool {
	return c.LevelEnabler.Enabled(level)
}

func (c *mongoCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *mongoCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *mongoCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	allFields := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	allFields = append(allFields, c.fields...)
	allFields = append(allFields, fields...)

	var fieldMap map[string]interface{}
	mapEncoder := zapcore.NewMapObjectEncoder()
	for _, field := range allFields {
		field.AddTo(mapEncoder)
	}
	fieldMap = mapEncoder.Fields

	logEntry := models.AppLogEntry{
		Timestamp: ent.Time.UTC(),
		Level:     ent.Level.String(), // Mongo stores the plain level string
		Message:   ent.Message,
		Fields:    "{}",
	}

	if len(fieldMap) > 0 {
		fieldBytes, err := json.Marshal(fieldMap)
		if err == nil {
			logEntry.Fields = string(fieldBytes)
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to marshal custom fields map for Mongo app log: %v\n", err)
			logEntry.Fields = fmt.Sprintf(`{"marshal_error": "%v", "original_message": "%s"}`, err, ent.Message)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.repo.InsertAppEvent(ctx, logEntry); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to insert app log entry into MongoDB: %v\n", err)
	}

	return nil
}

func (c *mongoCore) Sync() error {
	return nil
}

func (c *mongoCore) clone() *mongoCore {
	return &mongoCore{
		LevelEnabler: c.LevelEnabler,
		encoder:      c.encoder.Clone(),
		cfg:          c.cfg,
		repo:         c.repo,
		fields:       append([]zapcore.Field(nil), c.fields...),
	}
}

// --- Global Logger Access ---

// SetGlobalLoggers sets the global logger instances.
func SetGlobalLoggers(fileLogger, mongoLogger *zap.Logger) {
	globalLoggersMu.Lock()
	defer globalLoggersMu.Unlock()
	globalFileLogger = fileLogger
	if mongoLogger != nil {
		globalMongoLogger = mongoLogger
	} else {
		globalMongoLogger = zap.NewNop() // Ensure it's not nil
	}
}

// GetFileLogger returns the initialized global file/console logger.
func GetFileLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalFileLogger
	globalLoggersMu.RUnlock()

	if l == nil {
		fallbackLogger, _ := zap.NewProduction()
		fallbackLogger.Warn("Global file/console logger accessed before being set!")
		return fallbackLogger
	}
	return l
}

// GetMongoLogger returns the initialized global Mongo app-event logger.
// Returns a Nop logger if Mongo app logging was disabled or not initialized.
func GetMongoLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalMongoLogger
	globalLoggersMu.RUnlock()

	if l == nil {
		return zap.NewNop()
	}
	return l
}
