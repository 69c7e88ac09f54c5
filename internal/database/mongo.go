package database

import (
	"context"
	"fmt"

	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// InitMongo establishes the MongoDB connection and verifies it with a ping.
// A failure here must NOT crash the process: callers start in degraded mode
// with a nil database handle and let the storage monitor retry.
func InitMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	logger.Info("Initializing MongoDB connection...",
		zap.String("uri", utils.MaskMongoURI(cfg.MongoURI)),
		zap.String("database", cfg.MongoDBName),
	)

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(cfg.MongoConnectTimeout).
		SetConnectTimeout(cfg.MongoConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("Failed to configure MongoDB client", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to configure mongo client: %w", err)
	}

	// Verify connectivity now so degraded mode is decided at startup,
	// not on the first request.
	pingCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		// Release the client's resources; the monitor builds a fresh one later.
		_ = client.Disconnect(context.Background())
		logger.Error("Failed to ping MongoDB after connect", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDBName)
	logger.Info("MongoDB connection initialized successfully",
		zap.String("database", cfg.MongoDBName),
		zap.Strings("collections", []string{"rpa_events", "ipaas_events"}),
	)
	return client, db, nil
}
