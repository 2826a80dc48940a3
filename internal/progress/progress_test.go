package progress

import (
	"errors"
	"testing"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{name: "standard tracker", label: "Classifying bug-fix commits", total: 100},
		{name: "zero total", label: "No bug-fix commits", total: 0},
		{name: "single item", label: "One commit", total: 1},
		{name: "large total", label: "Many commits", total: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(tt.label, tt.total)
			if tracker == nil {
				t.Fatal("NewTracker() returned nil")
			}
			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
			if tracker.label != tt.label {
				t.Errorf("tracker.label = %q, want %q", tracker.label, tt.label)
			}
		})
	}
}

func TestNewSpinner(t *testing.T) {
	tests := []string{"Walking commit DAG", "", "Collecting a very long-running repository import"}

	for _, label := range tests {
		t.Run(label, func(t *testing.T) {
			tracker := NewSpinner(label)
			if tracker == nil {
				t.Fatal("NewSpinner() returned nil")
			}
			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
		})
	}
}

func TestTrackerTick(t *testing.T) {
	tracker := NewTracker("commits", 10)
	for i := 0; i < 10; i++ {
		tracker.Tick()
	}
	tracker.FinishSuccess()
}

func TestTrackerDescribeUpdatesSpinnerLabel(t *testing.T) {
	tracker := NewSpinner("szz collect")
	tracker.Describe("szz collect (%d changes buffered)", 4200)
	tracker.FinishSuccess()
}

func TestTrackerFinishError(t *testing.T) {
	tracker := NewTracker("commits", 10)
	tracker.Tick()
	tracker.FinishError(errors.New("failed to resolve parent commit"))
}

func TestTrackerZeroTotal(t *testing.T) {
	tracker := NewTracker("Zero total", 0)
	tracker.Tick()
	tracker.Tick()
	tracker.FinishSuccess()
}

func TestTrackerFinishSuccessMultipleCalls(t *testing.T) {
	tracker := NewTracker("Multiple finish", 10)
	tracker.Tick()
	tracker.FinishSuccess()
	tracker.FinishSuccess()
}
