// Package models provides core data structures for the splitter.
package models

import (
	"fmt"
)

// Segment is one contiguous time slice of the source video.
//
// Index is 0-based. Start and End are in seconds and use float64 so the
// final segment can end on the fractional source duration.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the segment in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Validate checks that the segment describes a non-empty forward range.
//
// Returns an error if:
//   - Index is negative
//   - Start is negative
//   - Start >= End
func (s Segment) Validate() error {
	if s.Index < 0 {
		return fmt.Errorf("index cannot be negative")
	}

	if s.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}

	if s.Start >= s.End {
		return fmt.Errorf("start must be less than end")
	}

	return nil
}

// SegmentPlan is the ordered list of segments for one batch.
//
// A plan covers [0, total) without gaps or overlaps. It is computed once at
// the start of a batch and never modified afterwards.
type SegmentPlan []Segment

// Len returns the number of planned segments.
func (p SegmentPlan) Len() int {
	return len(p)
}

// Total returns the end of the last segment, which equals the source duration.
func (p SegmentPlan) Total() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].End
}
