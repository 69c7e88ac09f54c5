package utils

import (
	"fmt"

	"github.com/deltabots-com-br/api-log/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TraceConfigDetails(logger *zap.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		fmt.Println("[WARN] logger or config is nil in TraceConfigDetails")
		return
	}
	fields := []zapcore.Field{
		zap.String("AppEnv", cfg.AppEnv),
		zap.String("Port", cfg.Port),
		zap.String("APIKey", MaskSecret(cfg.APIKey)),
		zap.String("MongoURI", MaskMongoURI(cfg.MongoURI)),
		zap.String("MongoDBName", cfg.MongoDBName),
		zap.Duration("MongoConnectTimeout", cfg.MongoConnectTimeout),
		zap.Duration("MongoOpTimeout", cfg.MongoOpTimeout),
		zap.Duration("MongoReconnectInterval", cfg.MongoReconnectInterval),
		zap.String("LogFilePath", cfg.LogFilePath),
		zap.String("LogLevel", cfg.LogLevel),
		zap.Int("LogRotateIntervalHours", cfg.LogRotateInterval),
		zap.Int("LogMaxSizeMB", cfg.LogMaxSize),
		zap.Int("LogMaxBackups", cfg.LogMaxBackups),
		zap.Int("LogMaxAgeDays", cfg.LogMaxAge),
		zap.Bool("LogCompress", cfg.LogCompress),
		zap.String("CORS_AllowOrigins", cfg.CORSAllowOrigins),
		zap.String("CORS_AllowMethods", cfg.CORSAllowMethods),
		zap.String("CORS_AllowHeaders", cfg.CORSAllowHeaders),
		zap.Bool("DedicatedMongoLog_Enabled", cfg.MongoLogEnabled),
		zap.String("DedicatedMongoLog_Level", cfg.MongoLogLevel),
	}
	logger.Debug("Loaded application configuration details", fields...)
}
