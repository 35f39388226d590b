package models

import "fmt"

// ProgressStatus is the closed set of batch progress statuses.
type ProgressStatus string

const (
	StatusStarted   ProgressStatus = "started"
	StatusDone      ProgressStatus = "done"
	StatusFailed    ProgressStatus = "failed"
	StatusCancelled ProgressStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusStarted, StatusDone, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ProgressEvent is one discrete notification emitted by the orchestrator.
//
// SegmentIndex is 0 for the batch start notification, the 1-based segment
// position for per-segment events and TotalSegments for batch completion, so
// indexes never decrease within a batch. Message is always human readable.
type ProgressEvent struct {
	SegmentIndex  int            `json:"segment_index"`
	TotalSegments int            `json:"total_segments"`
	StartLabel    string         `json:"start_label,omitempty"`
	EndLabel      string         `json:"end_label,omitempty"`
	Filename      string         `json:"filename,omitempty"`
	Status        ProgressStatus `json:"status"`
	SizeString    string         `json:"size,omitempty"`
	Error         string         `json:"error,omitempty"`
	Message       string         `json:"message"`
}

// String returns the event message prefixed with its status.
func (e ProgressEvent) String() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}
