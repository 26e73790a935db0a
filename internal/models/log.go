package models

import "time"

// LogEntry represents a log record stored in the local SQLite tbl_log
// and optionally shipped to the Oracle archive tbl_log.
type LogEntry struct {
	ID        int64     `json:"-"` // SQLite Row ID
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    string    `json:"fields,omitempty"` // JSON representation of extra fields
}
