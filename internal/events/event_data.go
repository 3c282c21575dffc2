package events

import (
	"github.com/aristath/comptroller/internal/domain"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SnapshotIngestedData contains data for SnapshotIngested events
type SnapshotIngestedData struct {
	SnapshotID  string  `json:"snapshot_id"`
	HostVersion string  `json:"host_version"`
	Cookies     float64 `json:"cookies"`
	CookiesPs   float64 `json:"cookies_ps"`
	Warnings    int     `json:"warnings"`

	// Snapshot is only set in process.
	Snapshot *domain.Snapshot `json:"-"`
}

// EventType returns the event type for SnapshotIngestedData
func (d *SnapshotIngestedData) EventType() EventType {
	return SnapshotIngested
}

// ReportReadyData contains data for ReportReady events
type ReportReadyData struct {
	SnapshotID string `json:"snapshot_id"`
	Buildings  int    `json:"buildings"`
	Upgrades   int    `json:"upgrades"`
	Stale      bool   `json:"stale"`
}

// EventType returns the event type for ReportReadyData
func (d *ReportReadyData) EventType() EventType {
	return ReportReady
}

// HistoryRecordedData contains data for HistoryRecorded events
type HistoryRecordedData struct {
	SampleID  string  `json:"sample_id"`
	CookiesPs float64 `json:"cookies_ps"`
}

// EventType returns the event type for HistoryRecordedData
func (d *HistoryRecordedData) EventType() EventType {
	return HistoryRecorded
}

// HistoryPrunedData contains data for HistoryPruned events
type HistoryPrunedData struct {
	Deleted int64  `json:"deleted"`
	Cutoff  string `json:"cutoff"`
}

// EventType returns the event type for HistoryPrunedData
func (d *HistoryPrunedData) EventType() EventType {
	return HistoryPruned
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
