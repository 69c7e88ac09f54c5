package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deltabots-com-br/api-log/internal/config"
	"github.com/deltabots-com-br/api-log/internal/handlers"
	"github.com/deltabots-com-br/api-log/internal/logging"
	"github.com/deltabots-com-br/api-log/internal/middleware"
	"github.com/deltabots-com-br/api-log/internal/models"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	"github.com/deltabots-com-br/api-log/internal/routes"
	"github.com/deltabots-com-br/api-log/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testAPIKey = "test-secret-key"

// stubLogRepo backs the full handler stack in tests.
type stubLogRepo struct {
	insertCalls int
	insertErr   error
	findDocs    []bson.M
	findErr     error
	pingErr     error
	appEvents   []models.AppLogEntry
}

func (s *stubLogRepo) InsertLog(ctx context.Context, logType models.LogType, doc any) (string, error) {
	s.insertCalls++
	if s.insertErr != nil {
		return "", s.insertErr
	}
	return "65a0000000000000000000bb", nil
}

func (s *stubLogRepo) FindLogs(ctx context.Context, logType models.LogType, filter bson.M) ([]bson.M, error) {
	return s.findDocs, s.findErr
}

func (s *stubLogRepo) InsertAppEvent(ctx context.Context, entry models.AppLogEntry) error {
	s.appEvents = append(s.appEvents, entry)
	return nil
}
func (s *stubLogRepo) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubLogRepo) SetDatabase(db *mongo.Database) {}
func (s *stubLogRepo) SetLogger(logger *zap.Logger)   {}

func newTestApp(repo repositories.LogRepository) *fiber.App {
	logger := zap.NewNop()
	cfg := &config.Config{APIKey: testAPIKey}

	// App-event logger over the real Mongo core, open at info so business
	// events are captured by the stub repository.
	encoderCfg := zap.NewProductionEncoderConfig()
	mongoCore := logging.NewMongoCore(zapcore.InfoLevel, zapcore.NewJSONEncoder(encoderCfg), encoderCfg, repo)
	mongoLogger := zap.New(mongoCore)

	app := fiber.New()
	app.Use(middleware.RequestLoggers(logger, mongoLogger))

	logService := services.NewLogService(repo, logger)
	logHandler := handlers.NewLogHandler(logService, logger)
	healthHandler := handlers.NewHealthHandler(repo, logger)

	routes.SetupRoutes(app, cfg, logger, logHandler, healthHandler)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body, apiKey string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("%s %s: response is not JSON: %q", method, target, raw)
	}
	return resp, decoded
}

// --- Access guard ---

func TestLogsMissingAPIKey(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=rpa", "", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "Access denied" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "X-API-Key") {
		t.Fatalf("message must name the expected header, got %v", body["message"])
	}
}

func TestLogsInvalidAPIKey(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=rpa", "", "wrong-key")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if body["error"] != "Access denied" || body["message"] != "Invalid API key." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestGuardRejectsBeforeValidation(t *testing.T) {
	// A garbage body with a bad key must produce the key failure, not a 400.
	repo := &stubLogRepo{}
	app := newTestApp(repo)

	resp, _ := doRequest(t, app, http.MethodPost, "/logs", "not json", "wrong-key")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if repo.insertCalls != 0 {
		t.Fatal("guard rejection must not reach storage")
	}
}

// --- Ingestion ---

func TestReceiveLogRPA(t *testing.T) {
	repo := &stubLogRepo{}
	app := newTestApp(repo)

	resp, body := doRequest(t, app, http.MethodPost, "/logs",
		`{"type":"rpa","level":"error","message":{"summary":{"robo_codigo":"R1"}}}`, testAPIKey)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "sucesso" {
		t.Fatalf("unexpected status: %v", body)
	}
	if body["log_type_processed"] != "rpa" {
		t.Fatalf("unexpected log type: %v", body)
	}
	if id, _ := body["log_id"].(string); id == "" {
		t.Fatalf("expected a log id, got %v", body)
	}
	if repo.insertCalls != 1 {
		t.Fatalf("expected one insert, got %d", repo.insertCalls)
	}
}

func TestReceiveLogIPaaSMissingCode(t *testing.T) {
	repo := &stubLogRepo{}
	app := newTestApp(repo)

	resp, body := doRequest(t, app, http.MethodPost, "/logs",
		`{"type":"ipaas","data":{}}`, testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid request." {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if repo.insertCalls != 0 {
		t.Fatal("rejected payload must not be persisted")
	}
}

func TestReceiveLogMissingType(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodPost, "/logs", `{"level":"info","message":"m"}`, testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid request." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestReceiveLogUnknownType(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodPost, "/logs", `{"type":"sap","level":"x","message":"y"}`, testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid log type." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestReceiveLogStorageUnavailable(t *testing.T) {
	repo := &stubLogRepo{insertErr: repositories.ErrStorageUnavailable}
	app := newTestApp(repo)

	resp, body := doRequest(t, app, http.MethodPost, "/logs",
		`{"type":"rpa","level":"info","message":"m"}`, testAPIKey)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if body["error"] != "Service unavailable. Database connection failed." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

// --- Query ---

func TestQueryLogsSuccess(t *testing.T) {
	repo := &stubLogRepo{findDocs: []bson.M{
		{"log_type": "ipaas", "ipaas_codigo": "X1"},
		{"log_type": "ipaas", "ipaas_codigo": "X2"},
	}}
	app := newTestApp(repo)

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=ipaas&ipaas_codigo=X1", "", testAPIKey)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "sucesso" {
		t.Fatalf("unexpected status: %v", body)
	}
	if total, _ := body["total_resultados"].(float64); total != 2 {
		t.Fatalf("expected total 2, got %v", body["total_resultados"])
	}
	filters, _ := body["filtros_aplicados"].(map[string]any)
	if filters["type"] != "ipaas" || filters["ipaas_codigo"] != "X1" {
		t.Fatalf("unexpected applied filters: %v", filters)
	}
	logs, _ := body["logs"].([]any)
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %v", body["logs"])
	}
}

func TestQueryLogsMissingType(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/logs", "", testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Missing parameter." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestQueryLogsUnknownType(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=crm", "", testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid log type." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestQueryLogsInvalidDate(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=rpa&data_inicio=yesterday", "", testAPIKey)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "data_inicio") {
		t.Fatalf("message must name the offending parameter, got %v", body)
	}
}

func TestQueryLogsStorageUnavailable(t *testing.T) {
	repo := &stubLogRepo{findErr: repositories.ErrStorageUnavailable}
	app := newTestApp(repo)

	resp, body := doRequest(t, app, http.MethodGet, "/logs?type=rpa", "", testAPIKey)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if body["error"] != "Service unavailable. Database connection failed." {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

// --- Application log events ---

func TestReceiveLogEmitsAppEvent(t *testing.T) {
	repo := &stubLogRepo{}
	app := newTestApp(repo)

	resp, _ := doRequest(t, app, http.MethodPost, "/logs",
		`{"type":"rpa","level":"info","message":"m"}`, testAPIKey)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(repo.appEvents) == 0 {
		t.Fatal("expected a business event in api_events after ingestion")
	}
	entry := repo.appEvents[len(repo.appEvents)-1]
	if entry.Message != "Log record ingested" {
		t.Fatalf("unexpected app event message %q", entry.Message)
	}
	if entry.Level != "info" {
		t.Fatalf("unexpected app event level %q", entry.Level)
	}
	if !strings.Contains(entry.Fields, `"log_type":"rpa"`) {
		t.Fatalf("app event fields missing log_type: %q", entry.Fields)
	}
	if !strings.Contains(entry.Fields, `"request_id"`) {
		t.Fatalf("app event fields missing request_id: %q", entry.Fields)
	}
}

func TestStorageUnavailableEmitsAppEvent(t *testing.T) {
	repo := &stubLogRepo{insertErr: repositories.ErrStorageUnavailable}
	app := newTestApp(repo)

	resp, _ := doRequest(t, app, http.MethodPost, "/logs",
		`{"type":"rpa","level":"info","message":"m"}`, testAPIKey)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if len(repo.appEvents) == 0 {
		t.Fatal("expected a warn event in api_events for the rejected request")
	}
	entry := repo.appEvents[len(repo.appEvents)-1]
	if entry.Level != "warn" {
		t.Fatalf("unexpected app event level %q", entry.Level)
	}
	if entry.Message != "Request rejected: storage unavailable" {
		t.Fatalf("unexpected app event message %q", entry.Message)
	}
}

// --- Liveness ---

func TestHealthCheckConnected(t *testing.T) {
	app := newTestApp(&stubLogRepo{})

	resp, body := doRequest(t, app, http.MethodGet, "/", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["api_status"] != "operacional" || body["mongodb_status"] != "conectado" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if _, ok := body["current_time"].(string); !ok {
		t.Fatalf("expected current_time, got %v", body)
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	app := newTestApp(&stubLogRepo{pingErr: repositories.ErrStorageUnavailable})

	resp, body := doRequest(t, app, http.MethodGet, "/", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("health must stay 200 when storage is down, got %d", resp.StatusCode)
	}
	if body["mongodb_status"] != "desconectado" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}
