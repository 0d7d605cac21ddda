package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestShift_Slots(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	shift := &Shift{
		BaseModel:   NewBaseModel(),
		Title:       "早班",
		Start:       mustTime(t, "2026-09-01T09:00:00Z"),
		End:         mustTime(t, "2026-09-01T17:00:00Z"),
		Capacity:    3,
		AssignedIDs: []uuid.UUID{a, b},
	}

	if got := shift.AssignedCount(); got != 2 {
		t.Errorf("Expected 2 assigned, got %d", got)
	}
	if got := shift.SlotsRemaining(); got != 1 {
		t.Errorf("Expected 1 slot remaining, got %d", got)
	}
	if shift.IsFull() {
		t.Error("Expected shift not full")
	}
	if !shift.HasAssigned(a) {
		t.Error("Expected HasAssigned true for assigned employee")
	}
	if shift.HasAssigned(uuid.New()) {
		t.Error("Expected HasAssigned false for stranger")
	}
}

func TestShift_DurationHours(t *testing.T) {
	shift := &Shift{
		Start: mustTime(t, "2026-09-01T22:00:00Z"),
		End:   mustTime(t, "2026-09-02T06:00:00Z"),
	}
	if got := shift.DurationHours(); got != 8 {
		t.Errorf("Expected 8 hours, got %.1f", got)
	}
}

func TestShift_IsPast(t *testing.T) {
	shift := &Shift{
		Start: mustTime(t, "2026-09-01T09:00:00Z"),
		End:   mustTime(t, "2026-09-01T17:00:00Z"),
	}
	if shift.IsPast(mustTime(t, "2026-09-01T12:00:00Z")) {
		t.Error("Expected in-progress shift not past")
	}
	if !shift.IsPast(mustTime(t, "2026-09-01T17:00:00Z").Add(time.Minute)) {
		t.Error("Expected ended shift to be past")
	}
}
