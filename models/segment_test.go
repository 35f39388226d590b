package models

import (
	"strings"
	"testing"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name          string
		segment       Segment
		WantError     bool
		ErrorContains string
	}{
		{name: "Valid segment", segment: Segment{Index: 0, Start: 0, End: 600}, WantError: false},
		{name: "Fractional end", segment: Segment{Index: 2, Start: 1200, End: 1500.53}, WantError: false},
		{name: "Start == End", segment: Segment{Index: 0, Start: 10, End: 10}, WantError: true, ErrorContains: "start must be less than end"},
		{name: "Start > End", segment: Segment{Index: 0, Start: 100, End: 50}, WantError: true, ErrorContains: "start must be less than end"},
		{name: "Negative start", segment: Segment{Index: 0, Start: -1, End: 50}, WantError: true, ErrorContains: "start cannot be negative"},
		{name: "Negative index", segment: Segment{Index: -1, Start: 0, End: 50}, WantError: true, ErrorContains: "index cannot be negative"},
		{name: "Zero value", segment: Segment{}, WantError: true, ErrorContains: "start must be less than end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.Validate()
			if tt.WantError {
				if err == nil {
					t.Errorf("Expected error but got nil")
				} else if !strings.Contains(err.Error(), tt.ErrorContains) {
					t.Errorf("Expected error to contain '%s', but got '%s'", tt.ErrorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestSegment_Duration(t *testing.T) {
	tests := []struct {
		name     string
		segment  Segment
		expected float64
	}{
		{"Full segment", Segment{Start: 0, End: 600}, 600},
		{"Clamped last segment", Segment{Start: 1200, End: 1500}, 300},
		{"Sub-second precision", Segment{Start: 1.25, End: 2.75}, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.segment.Duration(); got != tt.expected {
				t.Errorf("Expected duration %.2f, got %.2f", tt.expected, got)
			}
		})
	}
}

func TestSegmentPlan_Total(t *testing.T) {
	var empty SegmentPlan
	if empty.Total() != 0 {
		t.Errorf("Empty plan total should be 0, got %.2f", empty.Total())
	}
	if empty.Len() != 0 {
		t.Errorf("Empty plan length should be 0, got %d", empty.Len())
	}

	plan := SegmentPlan{
		{Index: 0, Start: 0, End: 600},
		{Index: 1, Start: 600, End: 1200},
		{Index: 2, Start: 1200, End: 1500},
	}
	if plan.Total() != 1500 {
		t.Errorf("Expected total 1500, got %.2f", plan.Total())
	}
	if plan.Len() != 3 {
		t.Errorf("Expected 3 segments, got %d", plan.Len())
	}
}
