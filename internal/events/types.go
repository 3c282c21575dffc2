// Package events provides the in-process event bus and event management.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	// SnapshotIngested fires after a host snapshot replaces the latest one.
	SnapshotIngested EventType = "SNAPSHOT_INGESTED"
	// ReportReady fires after the overlay report is rebuilt.
	ReportReady EventType = "REPORT_READY"
	// HistoryRecorded fires after a CPS sample is stored.
	HistoryRecorded EventType = "HISTORY_RECORDED"
	// HistoryPruned fires after old CPS samples are deleted.
	HistoryPruned EventType = "HISTORY_PRUNED"
	// ErrorOccurred reports a failure in a background consumer.
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// StreamedTypes are the event types forwarded to overlay clients.
var StreamedTypes = []EventType{
	SnapshotIngested,
	ReportReady,
	HistoryRecorded,
	HistoryPruned,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`

	// typed is the payload as emitted for in-process subscribers; it may carry
	// values that are not serialized.
	typed EventData
}

// GetTypedData returns the event's typed payload, decoding Data when the
// event was emitted without one. Returns nil for unknown types.
func (e *Event) GetTypedData() EventData {
	if e.typed != nil {
		return e.typed
	}
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case SnapshotIngested:
		data = &SnapshotIngestedData{}
	case ReportReady:
		data = &ReportReadyData{}
	case HistoryRecorded:
		data = &HistoryRecordedData{}
	case HistoryPruned:
		data = &HistoryPrunedData{}
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

func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

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
