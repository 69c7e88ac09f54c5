package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync" // Import sync for mutex
	"time"

	"github.com/deltabots-com-br/api-log/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ErrStorageUnavailable is returned when an operation cannot run because the
// Mongo connection is absent at call time (degraded mode).
var ErrStorageUnavailable = errors.New("mongodb connection unavailable")

// Collection names. Mongo creates each collection on first insert.
const (
	RPACollection       = "rpa_events"
	IPaaSCollection     = "ipaas_events"
	AppEventsCollection = "api_events"
)

// MaxQueryResults is the hard ceiling on records returned by a single query.
// Not configurable, no pagination cursor.
const MaxQueryResults = 100

// LogRepository defines the interface for log data operations
type LogRepository interface {
	// InsertLog persists one document into the collection for logType and
	// returns the generated record identifier as an opaque string.
	InsertLog(ctx context.Context, logType models.LogType, doc any) (string, error)
	// FindLogs returns at most MaxQueryResults documents matching filter,
	// sorted by insertion timestamp descending.
	FindLogs(ctx context.Context, logType models.LogType, filter bson.M) ([]bson.M, error)
	// InsertAppEvent stores one of the service's own application log records.
	InsertAppEvent(ctx context.Context, entry models.AppLogEntry) error
	// Ping issues a lightweight round-trip probe to the store.
	Ping(ctx context.Context) error

	// SetDatabase needs to be part of the interface for the storage monitor to call it
	SetDatabase(db *mongo.Database)
	// SetLogger swaps the repository logger once the application loggers
	// exist; the repository is created before them, with a temporary logger.
	SetLogger(logger *zap.Logger)
}

// mongoLogRepository implements LogRepository backed by a MongoDB database handle.
// The handle may be nil when the service started degraded; every method is
// nil-safe and reports ErrStorageUnavailable in that case.
type mongoLogRepository struct {
	db        *mongo.Database // Can be nil initially or if connection fails
	opTimeout time.Duration
	logger    *zap.Logger
	mu        sync.RWMutex // Mutex to protect concurrent access to db
}

// NewMongoLogRepository creates a new LogRepository
func NewMongoLogRepository(db *mongo.Database, opTimeout time.Duration, logger *zap.Logger) LogRepository {
	if logger == nil {
		fallbackLogger, _ := zap.NewDevelopment()
		logger = fallbackLogger
		logger.Warn("NewMongoLogRepository received nil logger, using fallback.")
	}
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}
	return &mongoLogRepository{
		db:        db, // Initial handle (can be nil)
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// SetDatabase swaps the database handle. Called by the storage monitor after
// a successful reconnect.
func (r *mongoLogRepository) SetDatabase(db *mongo.Database) {
	r.mu.Lock()
	r.db = db
	r.mu.Unlock()
	r.log().Info("LogRepository: MongoDB handle updated.")
}

// SetLogger swaps the repository logger. A nil logger is ignored.
func (r *mongoLogRepository) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// database returns the current handle under a read lock.
func (r *mongoLogRepository) database() *mongo.Database {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}

// log returns the current logger under a read lock.
func (r *mongoLogRepository) log() *zap.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

func collectionFor(logType models.LogType) string {
	if logType == models.LogTypeRPA {
		return RPACollection
	}
	return IPaaSCollection
}

// findOptions builds the options applied to every log search: newest first,
// capped at MaxQueryResults.
func findOptions() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "timestamp_utc", Value: -1}}).
		SetLimit(MaxQueryResults)
}

// InsertLog persists one log document into the collection for its category.
func (r *mongoLogRepository) InsertLog(ctx context.Context, logType models.LogType, doc any) (string, error) {
	db := r.database()
	if db == nil {
		r.log().Warn("Skipping Mongo insert: database handle is currently nil in repository")
		return "", ErrStorageUnavailable
	}

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	result, err := db.Collection(collectionFor(logType)).InsertOne(opCtx, doc)
	if err != nil {
		r.log().Error("Failed to insert log into MongoDB",
			zap.String("log_type", string(logType)), zap.Error(err))
		return "", fmt.Errorf("mongo insert failed: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

// FindLogs runs the filter against the category collection, newest first,
// capped at MaxQueryResults.
func (r *mongoLogRepository) FindLogs(ctx context.Context, logType models.LogType, filter bson.M) ([]bson.M, error) {
	db := r.database()
	if db == nil {
		r.log().Warn("Skipping Mongo query: database handle is currently nil in repository")
		return nil, ErrStorageUnavailable
	}

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	cursor, err := db.Collection(collectionFor(logType)).Find(opCtx, filter, findOptions())
	if err != nil {
		r.log().Error("Failed to query logs from MongoDB",
			zap.String("log_type", string(logType)), zap.Error(err))
		return nil, fmt.Errorf("mongo query failed: %w", err)
	}
	defer cursor.Close(opCtx)

	var docs []bson.M
	if err := cursor.All(opCtx, &docs); err != nil {
		r.log().Error("Error decoding MongoDB cursor", zap.Error(err))
		return nil, fmt.Errorf("mongo cursor decode failed: %w", err)
	}
	return docs, nil
}

// InsertAppEvent stores one application log record into api_events.
func (r *mongoLogRepository) InsertAppEvent(ctx context.Context, entry models.AppLogEntry) error {
	db := r.database()
	if db == nil {
		// The Mongo zap core must never block or fail a request path.
		return ErrStorageUnavailable
	}

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if _, err := db.Collection(AppEventsCollection).InsertOne(opCtx, entry); err != nil {
		return fmt.Errorf("mongo app event insert failed: %w", err)
	}
	return nil
}

// Ping probes the server with a short round trip.
func (r *mongoLogRepository) Ping(ctx context.Context) error {
	db := r.database()
	if db == nil {
		return ErrStorageUnavailable
	}

	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := db.Client().Ping(opCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}
