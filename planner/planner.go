// Package planner divides a source duration into contiguous fixed-length
// segments.
package planner

import (
	"errors"
	"fmt"
	"math"

	"splitter/models"
)

const (
	// DefaultSegmentMinutes is the segment length used when none is configured.
	DefaultSegmentMinutes = 10

	// MinSegmentMinutes is the shortest segment that still gets a unique
	// HH:MM file name.
	MinSegmentMinutes = 1

	// coverageTolerance absorbs float rounding when checking plan coverage.
	coverageTolerance = 1e-6
)

// ErrInvalidPlan is matched by every PlanningError.
var ErrInvalidPlan = errors.New("invalid segment plan")

// PlanningError reports inputs that cannot produce a useful plan.
type PlanningError struct {
	TotalDuration float64
	SegmentLength float64
	Reason        string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("cannot plan %.2fs into %.2fs segments: %s", e.TotalDuration, e.SegmentLength, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPlan) true for any PlanningError.
func (e *PlanningError) Is(target error) bool {
	return target == ErrInvalidPlan
}

// Plan splits totalDuration seconds into segments of segmentLength seconds.
//
// Every segment except the last is exactly segmentLength long; the last one
// ends at totalDuration. The number of segments is the ceiling of
// totalDuration / segmentLength.
//
// Returns a *PlanningError when either input is not a positive finite number,
// or when segmentLength >= totalDuration (splitting would yield a single copy
// of the source).
//
// Example:
//
//	plan, err := planner.Plan(1500, 600)
//	// plan: [0,600) [600,1200) [1200,1500)
func Plan(totalDuration, segmentLength float64) (models.SegmentPlan, error) {
	fail := func(reason string) (models.SegmentPlan, error) {
		return nil, &PlanningError{TotalDuration: totalDuration, SegmentLength: segmentLength, Reason: reason}
	}

	if math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) || totalDuration <= 0 {
		return fail("total duration must be a positive finite number")
	}
	if math.IsNaN(segmentLength) || math.IsInf(segmentLength, 0) || segmentLength <= 0 {
		return fail("segment length must be a positive finite number")
	}
	if segmentLength >= totalDuration {
		return fail("segment length must be shorter than the video")
	}

	// Ceiling division
	count := int(totalDuration / segmentLength)
	if totalDuration > float64(count)*segmentLength {
		count++
	}

	plan := make(models.SegmentPlan, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * segmentLength
		end := start + segmentLength

		// Last segment ends at the actual duration, keeping fractional seconds
		if end > totalDuration || i == count-1 {
			end = totalDuration
		}

		seg := models.Segment{Index: i, Start: start, End: end}
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid segment %d: %w", i+1, err)
		}
		plan = append(plan, seg)
	}

	return plan, nil
}

// Validate checks that plan covers [0, totalDuration) with sequential
// indexes and no gaps or overlaps.
func Validate(plan models.SegmentPlan, totalDuration float64) error {
	if len(plan) == 0 {
		return fmt.Errorf("segment plan is empty")
	}

	for i, seg := range plan {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d is invalid: %w", i, err)
		}
		if seg.Index != i {
			return fmt.Errorf("segment %d has incorrect index: expected %d, got %d", i, i, seg.Index)
		}
	}

	if plan[0].Start != 0 {
		return fmt.Errorf("plan starts at %.2f, expected 0", plan[0].Start)
	}

	for i := 0; i < len(plan)-1; i++ {
		currentEnd := plan[i].End
		nextStart := plan[i+1].Start

		if currentEnd > nextStart+coverageTolerance {
			return fmt.Errorf("segments %d and %d overlap: segment %d ends at %.2f, segment %d starts at %.2f",
				i+1, i+2, i+1, currentEnd, i+2, nextStart)
		}
		if nextStart > currentEnd+coverageTolerance {
			return fmt.Errorf("gap between segments %d and %d: segment %d ends at %.2f, segment %d starts at %.2f",
				i+1, i+2, i+1, currentEnd, i+2, nextStart)
		}
	}

	if last := plan.Total(); math.Abs(last-totalDuration) > coverageTolerance {
		return fmt.Errorf("plan ends at %.2f, expected %.2f", last, totalDuration)
	}

	return nil
}
