package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/deltabots-com-br/api-log/internal/models"
	"github.com/deltabots-com-br/api-log/internal/pkg/validation"
	"github.com/deltabots-com-br/api-log/internal/repositories"
	"github.com/deltabots-com-br/api-log/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrMissingType is returned when an ingestion body carries no 'type' discriminator.
	ErrMissingType = errors.New("the 'type' field is required ('rpa' or 'ipaas')")
	// ErrMissingTypeParam is returned when a query carries no 'type' parameter.
	// Deliberately distinct from ErrMissingType and from the unknown-type error.
	ErrMissingTypeParam = errors.New("the 'type' query parameter is required ('rpa' or 'ipaas')")
)

// ValidationError carries a category-specific message for a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IngestResult is the outcome of a successful ingestion.
type IngestResult struct {
	LogType models.LogType
	LogID   string
}

// QueryParams are the raw query-string values for a log search.
// Empty string means the parameter was absent. Which code parameter applies
// is decided by the resolved type: robo_codigo for RPA, ipaas_codigo for iPaaS.
type QueryParams struct {
	Type        string
	RoboCodigo  string
	IpaasCodigo string
	DataInicio  string
	DataFim     string
}

// QueryResult is the outcome of a log search.
type QueryResult struct {
	Total          int
	AppliedFilters map[string]string
	Logs           []map[string]any
}

// LogService defines the interface for log ingestion and query operations
type LogService interface {
	// Ingest validates and normalizes a raw JSON log payload, persists it and
	// returns the generated record identifier.
	Ingest(ctx context.Context, body []byte, sourceIP string) (*IngestResult, error)
	// Query builds a filter from the query parameters and retrieves matching
	// records, newest first, capped at repositories.MaxQueryResults.
	Query(ctx context.Context, params QueryParams) (*QueryResult, error)
}

type logServiceImpl struct {
	logRepo    repositories.LogRepository
	fileLogger *zap.Logger
}

// NewLogService creates a new LogService
func NewLogService(logRepo repositories.LogRepository, fileLogger *zap.Logger) LogService {
	return &logServiceImpl{
		logRepo:    logRepo,
		fileLogger: fileLogger,
	}
}

// Ingest handles the write path for both log categories.
func (s *logServiceImpl) Ingest(ctx context.Context, body []byte, sourceIP string) (*IngestResult, error) {
	payload, err := parsePayload(body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var doc any
	switch payload.Type {
	case models.LogTypeRPA:
		doc = models.RPADocument{
			TimestampUTC: now,
			SourceIP:     sourceIP,
			LogType:      models.LogTypeRPA,
			Level:        payload.RPA.Level,
			Message:      payload.RPA.Message,
		}
	case models.LogTypeIPaaS:
		doc = models.IPaaSDocument{
			TimestampUTC:     now,
			SourceIP:         sourceIP,
			LogType:          models.LogTypeIPaaS,
			IpaasCodigo:      payload.IPaaS.IpaasCodigo,
			ExecutionDetails: payload.IPaaS.ExecutionDetails,
		}
	}

	logID, err := s.logRepo.InsertLog(ctx, payload.Type, doc)
	if err != nil {
		if errors.Is(err, repositories.ErrStorageUnavailable) {
			s.fileLogger.Warn("Ingestion rejected: storage unavailable", zap.String("log_type", string(payload.Type)))
		} else {
			s.fileLogger.Error("Failed to persist log", zap.String("log_type", string(payload.Type)), zap.Error(err))
		}
		return nil, err
	}

	s.fileLogger.Debug("Log ingested",
		zap.String("log_type", string(payload.Type)),
		zap.String("log_id", logID),
		zap.String("source_ip", sourceIP),
	)
	return &IngestResult{LogType: payload.Type, LogID: logID}, nil
}

// parsePayload dispatches the raw body on the 'type' discriminator and builds
// the validated payload variant for its category.
func parsePayload(body []byte) (*models.LogPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, &ValidationError{Message: "request body is not valid JSON"}
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return nil, ErrMissingType
	}
	var typeStr string
	if err := json.Unmarshal(typeRaw, &typeStr); err != nil || typeStr == "" {
		return nil, ErrMissingType
	}

	logType, err := models.ParseLogType(typeStr)
	if err != nil {
		return nil, err
	}

	switch logType {
	case models.LogTypeRPA:
		return parseRPAPayload(raw)
	default:
		return parseIPaaSPayload(raw)
	}
}

// parseRPAPayload requires the 'level' and 'message' keys. Their values are
// free-form and not type-checked beyond presence.
func parseRPAPayload(raw map[string]json.RawMessage) (*models.LogPayload, error) {
	levelRaw, hasLevel := raw["level"]
	messageRaw, hasMessage := raw["message"]
	if !hasLevel || !hasMessage {
		return nil, &ValidationError{Message: "logs of type 'rpa' must contain 'level' and 'message'"}
	}

	rpa := &models.RPALogPayload{}
	if err := json.Unmarshal(levelRaw, &rpa.Level); err != nil {
		return nil, &ValidationError{Message: "request body is not valid JSON"}
	}
	if err := json.Unmarshal(messageRaw, &rpa.Message); err != nil {
		return nil, &ValidationError{Message: "request body is not valid JSON"}
	}
	return &models.LogPayload{Type: models.LogTypeRPA, RPA: rpa}, nil
}

// parseIPaaSPayload requires the 'ipaas_codigo' and 'data' keys.
// 'ipaas_codigo' must be a non-empty string. 'data' must be a JSON object;
// an empty object or an explicit null is accepted (null is stored as an
// empty document), any other value is rejected.
func parseIPaaSPayload(raw map[string]json.RawMessage) (*models.LogPayload, error) {
	codeRaw, hasCode := raw["ipaas_codigo"]
	dataRaw, hasData := raw["data"]
	if !hasCode || !hasData {
		return nil, &ValidationError{Message: "logs of type 'ipaas' must contain 'ipaas_codigo' and 'data'"}
	}

	ipaas := &models.IPaaSLogPayload{}
	if err := json.Unmarshal(codeRaw, &ipaas.IpaasCodigo); err != nil {
		return nil, &ValidationError{Message: "'ipaas_codigo' must be a non-empty string"}
	}
	if validationErrors := validation.ValidateStruct(ipaas); validationErrors != nil {
		return nil, &ValidationError{Message: "'ipaas_codigo' must be a non-empty string"}
	}

	if err := json.Unmarshal(dataRaw, &ipaas.ExecutionDetails); err != nil {
		return nil, &ValidationError{Message: "'data' must be a JSON object"}
	}
	if ipaas.ExecutionDetails == nil {
		ipaas.ExecutionDetails = map[string]any{}
	}
	return &models.LogPayload{Type: models.LogTypeIPaaS, IPaaS: ipaas}, nil
}

// Query handles the read path for both log categories.
func (s *logServiceImpl) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	if params.Type == "" {
		return nil, ErrMissingTypeParam
	}
	logType, err := models.ParseLogType(params.Type)
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	applied := map[string]string{"type": string(logType)}

	code := params.IpaasCodigo
	if logType == models.LogTypeRPA {
		code = params.RoboCodigo
	}
	if code != "" {
		filter[logType.CodeFieldPath()] = code
		applied[logType.CodeFilterKey()] = code
	}

	dateFilter := bson.M{}
	if params.DataInicio != "" {
		applied["data_inicio"] = params.DataInicio
		inicio, _, err := utils.ParseDate(params.DataInicio)
		if err != nil {
			return nil, &ValidationError{Message: "invalid date format for 'data_inicio'"}
		}
		// Lower bound is always inclusive at the exact instant.
		dateFilter["$gte"] = inicio
	}
	if params.DataFim != "" {
		applied["data_fim"] = params.DataFim
		fim, timeProvided, err := utils.ParseDate(params.DataFim)
		if err != nil {
			return nil, &ValidationError{Message: "invalid date format for 'data_fim'"}
		}
		if !timeProvided {
			// Date-only upper bound means "through the end of that calendar
			// day": advance one day and compare exclusively.
			dateFilter["$lt"] = fim.AddDate(0, 0, 1)
		} else {
			dateFilter["$lte"] = fim
		}
	}
	if len(dateFilter) > 0 {
		filter["timestamp_utc"] = dateFilter
	}

	docs, err := s.logRepo.FindLogs(ctx, logType, filter)
	if err != nil {
		if errors.Is(err, repositories.ErrStorageUnavailable) {
			s.fileLogger.Warn("Query rejected: storage unavailable", zap.String("log_type", string(logType)))
		} else {
			s.fileLogger.Error("Failed to query logs", zap.String("log_type", string(logType)), zap.Error(err))
		}
		return nil, err
	}

	results := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		results = append(results, renderDocument(doc))
	}

	s.fileLogger.Debug("Logs queried",
		zap.String("log_type", string(logType)),
		zap.Int("results", len(results)),
	)
	return &QueryResult{
		Total:          len(results),
		AppliedFilters: applied,
		Logs:           results,
	}, nil
}

// renderDocument converts storage-internal values to their wire representation:
// the record identifier becomes an opaque hex string and the insertion
// timestamp an ISO-8601 UTC string with an explicit "Z" suffix.
func renderDocument(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	if oid, ok := out["_id"].(primitive.ObjectID); ok {
		out["_id"] = oid.Hex()
	}
	switch ts := out["timestamp_utc"].(type) {
	case primitive.DateTime:
		out["timestamp_utc"] = ts.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		out["timestamp_utc"] = ts.UTC().Format(time.RFC3339Nano)
	}
	return out
}
