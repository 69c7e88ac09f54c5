package models

import "time"

// AppLogEntry represents one of the service's own application log records,
// written to the api_events collection when Mongo application logging is enabled.
type AppLogEntry struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Level     string    `bson:"level" json:"level"`
	Message   string    `bson:"message" json:"message"`
	Fields    string    `bson:"fields,omitempty" json:"fields,omitempty"` // Extra zap fields as a JSON string
}
