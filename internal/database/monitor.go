package database

import (
	"context"
	"sync"
	"time"

	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StorageMonitor watches MongoDB connectivity in the background. When the
// service started degraded (or the connection was lost later), it retries the
// connection on a ticker and swaps the fresh database handle into the
// repository, so the service leaves degraded mode without a restart.
// It never retries individual storage operations.
type StorageMonitor struct {
	cfg       *config.Config
	logRepo   repositories.LogRepository
	logger    *zap.Logger
	ticker    *time.Ticker
	stopChan  chan struct{}
	isRunning bool

	mu     sync.Mutex
	client *mongo.Client // current client, so a replaced one can be disconnected
}

// NewStorageMonitor creates a new StorageMonitor instance. The initial client
// may be nil when startup connectivity failed.
func NewStorageMonitor(cfg *config.Config, logRepo repositories.LogRepository, client *mongo.Client, logger *zap.Logger) *StorageMonitor {
	return &StorageMonitor{
		cfg:      cfg,
		logRepo:  logRepo,
		logger:   logger,
		client:   client,
		stopChan: make(chan struct{}),
	}
}

// Start begins the connectivity check loop in a separate goroutine
func (m *StorageMonitor) Start() {
	if m.isRunning {
		m.logger.Warn("Storage monitor already running")
		return
	}
	m.ticker = time.NewTicker(m.cfg.MongoReconnectInterval)
	m.isRunning = true
	go m.run()
	m.logger.Info("MongoDB storage monitor started", zap.Duration("interval", m.cfg.MongoReconnectInterval))
}

// Stop signals the monitor loop to terminate and disconnects the current client.
func (m *StorageMonitor) Stop() {
	if !m.isRunning {
		m.logger.Warn("Storage monitor not running")
		return
	}
	m.logger.Info("Stopping MongoDB storage monitor...")
	select {
	case <-m.stopChan:
		// Already closed
	default:
		close(m.stopChan)
	}
	if m.ticker != nil {
		m.ticker.Stop()
	}
	m.isRunning = false

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()
	if client != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			m.logger.Warn("Error disconnecting MongoDB client during shutdown", zap.Error(err))
		}
	}
	m.logger.Info("Storage monitor stopped.")
}

// run is the main loop that periodically verifies connectivity
func (m *StorageMonitor) run() {
	for {
		select {
		case <-m.ticker.C:
			tickCtx, cancel := context.WithTimeout(context.Background(), m.cfg.MongoConnectTimeout+m.cfg.MongoOpTimeout)
			m.checkConnection(tickCtx)
			cancel()
		case <-m.stopChan:
			m.logger.Info("Received stop signal, exiting storage monitor loop.")
			return
		}
	}
}

// checkConnection pings through the repository; when the ping fails (or the
// handle is absent) it attempts a full reconnect and hands the new database
// handle to the repository.
func (m *StorageMonitor) checkConnection(ctx context.Context) {
	if err := m.logRepo.Ping(ctx); err == nil {
		return
	}

	m.logger.Warn("MongoDB unreachable, attempting to reconnect...")
	client, db, err := InitMongo(ctx, m.cfg, m.logger)
	if err != nil {
		m.logger.Error("MongoDB reconnect attempt failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	old := m.client
	m.client = client
	m.mu.Unlock()

	m.logRepo.SetDatabase(db)
	m.logger.Info("MongoDB reconnected, repository handle updated; leaving degraded mode.")

	if old != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := old.Disconnect(disconnectCtx); err != nil {
			m.logger.Debug("Error disconnecting stale MongoDB client", zap.Error(err))
		}
	}
}
