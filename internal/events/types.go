// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	// DealsRefreshed is emitted after a batch was fetched from the sheet source
	DealsRefreshed EventType = "DEALS_REFRESHED"
	// DealsRefreshFailed is emitted when the sheet source could not be read
	DealsRefreshFailed EventType = "DEALS_REFRESH_FAILED"
	// SnapshotsCleaned is emitted after expired snapshots were removed
	SnapshotsCleaned EventType = "SNAPSHOTS_CLEANED"
	// ErrorOccurred is a generic error event
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type the stream can carry
var AllTypes = []EventType{
	DealsRefreshed,
	DealsRefreshFailed,
	SnapshotsCleaned,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
