package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogType is the category discriminator selecting the RPA or iPaaS schema
// and the Mongo collection the record lands in.
type LogType string

const (
	LogTypeRPA   LogType = "rpa"
	LogTypeIPaaS LogType = "ipaas"
)

// ErrInvalidLogType is returned when the discriminator is not one of the known values.
var ErrInvalidLogType = errors.New("log type must be 'rpa' or 'ipaas'")

// ParseLogType resolves a raw discriminator string (case-insensitive) to a LogType.
// Callers decide separately how to report an absent discriminator; this only
// rejects unknown values.
func ParseLogType(raw string) (LogType, error) {
	switch LogType(strings.ToLower(raw)) {
	case LogTypeRPA:
		return LogTypeRPA, nil
	case LogTypeIPaaS:
		return LogTypeIPaaS, nil
	default:
		return "", fmt.Errorf("unknown log type %q: %w", raw, ErrInvalidLogType)
	}
}

// CodeFilterKey returns the human-facing query parameter name used to filter
// records of this type by their identifying code.
func (t LogType) CodeFilterKey() string {
	if t == LogTypeRPA {
		return "robo_codigo"
	}
	return "ipaas_codigo"
}

// CodeFieldPath returns the stored document field path the code filter maps to.
// RPA robots report their code nested inside the free-form message payload;
// iPaaS records carry it as a top-level field.
func (t LogType) CodeFieldPath() string {
	if t == LogTypeRPA {
		return "message.summary.robo_codigo"
	}
	return "ipaas_codigo"
}

// RPALogPayload is the validated field set of a type=rpa ingestion request.
// Both values are free-form: level is conventionally a severity string and
// message an arbitrary structured value, but neither is type-checked beyond
// key presence.
type RPALogPayload struct {
	Level   any `json:"level"`
	Message any `json:"message"`
}

// IPaaSLogPayload is the validated field set of a type=ipaas ingestion request.
type IPaaSLogPayload struct {
	IpaasCodigo      string         `json:"ipaas_codigo" validate:"required"`
	ExecutionDetails map[string]any `json:"data"`
}

// LogPayload is the tagged union of category payloads. Exactly one of RPA or
// IPaaS is non-nil, matching Type.
type LogPayload struct {
	Type  LogType
	RPA   *RPALogPayload
	IPaaS *IPaaSLogPayload
}

// RPADocument is the persisted shape of an RPA log event in rpa_events.
type RPADocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	TimestampUTC time.Time          `bson:"timestamp_utc" json:"timestamp_utc"`
	SourceIP     string             `bson:"source_ip" json:"source_ip"`
	LogType      LogType            `bson:"log_type" json:"log_type"`
	Level        any                `bson:"level" json:"level"`
	Message      any                `bson:"message" json:"message"`
}

// IPaaSDocument is the persisted shape of an iPaaS execution event in ipaas_events.
type IPaaSDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	TimestampUTC     time.Time          `bson:"timestamp_utc" json:"timestamp_utc"`
	SourceIP         string             `bson:"source_ip" json:"source_ip"`
	LogType          LogType            `bson:"log_type" json:"log_type"`
	IpaasCodigo      string             `bson:"ipaas_codigo" json:"ipaas_codigo"`
	ExecutionDetails map[string]any     `bson:"execution_details" json:"execution_details"`
}
