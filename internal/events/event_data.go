package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// DealsRefreshedData contains data for DealsRefreshed events
type DealsRefreshedData struct {
	BatchID   string    `json:"batch_id"`
	Deals     int       `json:"deals"`
	Skipped   int       `json:"skipped"`
	Warnings  int       `json:"warnings"`
	FetchedAt time.Time `json:"fetched_at"`
	Trigger   string    `json:"trigger"`
}

// EventType returns the event type for DealsRefreshedData
func (d *DealsRefreshedData) EventType() EventType {
	return DealsRefreshed
}

// DealsRefreshFailedData contains data for DealsRefreshFailed events
type DealsRefreshFailedData struct {
	Error       string `json:"error"`
	ServedStale bool   `json:"served_stale"`
	Trigger     string `json:"trigger"`
}

// EventType returns the event type for DealsRefreshFailedData
func (d *DealsRefreshFailedData) EventType() EventType {
	return DealsRefreshFailed
}

// SnapshotsCleanedData contains data for SnapshotsCleaned events
type SnapshotsCleanedData struct {
	Deleted int64 `json:"deleted"`
}

// EventType returns the event type for SnapshotsCleanedData
func (d *SnapshotsCleanedData) EventType() EventType {
	return SnapshotsCleaned
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// GetTypedData converts the Data map back to its typed form.
// Returns nil when the type is unknown or the map does not decode.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case DealsRefreshed:
		data = &DealsRefreshedData{}
	case DealsRefreshFailed:
		data = &DealsRefreshFailedData{}
	case SnapshotsCleaned:
		data = &SnapshotsCleanedData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

// convertMapToStruct converts a map[string]interface{} to a struct
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

// convertEventDataToMap converts typed EventData to the map carried by Event
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}

	return result
}
