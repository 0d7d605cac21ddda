package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", s, err)
	}
	return parsed
}

func shiftFor(t *testing.T, title, start, end string, empIDs ...uuid.UUID) *model.Shift {
	t.Helper()
	return &model.Shift{
		BaseModel:   model.NewBaseModel(),
		Title:       title,
		Start:       mustTime(t, start),
		End:         mustTime(t, end),
		Capacity:    len(empIDs),
		AssignedIDs: empIDs,
	}
}

func TestGini(t *testing.T) {
	// 完全均等分布
	if got := Gini([]float64{10, 10, 10}); got != 0 {
		t.Errorf("Expected Gini 0 for equal distribution, got %.3f", got)
	}
	// 完全集中分布的基尼系数趋近 (n-1)/n
	got := Gini([]float64{0, 0, 30})
	if math.Abs(got-2.0/3.0) > 0.01 {
		t.Errorf("Expected Gini ~0.667 for concentrated distribution, got %.3f", got)
	}
	if got := Gini(nil); got != 0 {
		t.Errorf("Expected Gini 0 for empty input, got %.3f", got)
	}
}

func TestAnalyze_Workload(t *testing.T) {
	a := &model.Employee{BaseModel: model.NewBaseModel(), Name: "甲"}
	b := &model.Employee{BaseModel: model.NewBaseModel(), Name: "乙"}

	shifts := []*model.Shift{
		shiftFor(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", a.ID),
		shiftFor(t, "午班", "2026-09-02T09:00:00Z", "2026-09-02T17:00:00Z", a.ID),
		shiftFor(t, "晚班", "2026-09-03T09:00:00Z", "2026-09-03T13:00:00Z", b.ID),
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a, b})
	if m.MaxHours != 16 || m.MinHours != 4 {
		t.Errorf("Expected max 16 min 4, got %.1f/%.1f", m.MaxHours, m.MinHours)
	}
	if m.AvgHoursPerEmployee != 10 {
		t.Errorf("Expected average 10, got %.1f", m.AvgHoursPerEmployee)
	}
	if m.WorkloadGini <= 0 {
		t.Error("Expected positive Gini for unequal workload")
	}
	// 工时多的员工排前面
	if len(m.EmployeeStats) != 2 || m.EmployeeStats[0].EmployeeID != a.ID {
		t.Error("Expected stats sorted by hours descending")
	}
	if m.EmployeeStats[0].Deviation <= 0 || m.EmployeeStats[1].Deviation >= 0 {
		t.Error("Expected positive deviation for overloaded, negative for underloaded")
	}
}

func TestAnalyze_NightAndWeekend(t *testing.T) {
	a := &model.Employee{BaseModel: model.NewBaseModel(), Name: "甲"}

	shifts := []*model.Shift{
		// 2026-09-05 是周六
		shiftFor(t, "周末班", "2026-09-05T09:00:00Z", "2026-09-05T17:00:00Z", a.ID),
		shiftFor(t, "夜班", "2026-09-01T22:00:00Z", "2026-09-02T06:00:00Z", a.ID),
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a})
	if m.EmployeeStats[0].WeekendShifts != 1 {
		t.Errorf("Expected 1 weekend shift, got %d", m.EmployeeStats[0].WeekendShifts)
	}
	if m.EmployeeStats[0].NightShifts != 1 {
		t.Errorf("Expected 1 night shift, got %d", m.EmployeeStats[0].NightShifts)
	}
}

func TestAnalyze_PerfectlyFair(t *testing.T) {
	a := &model.Employee{BaseModel: model.NewBaseModel(), Name: "甲"}
	b := &model.Employee{BaseModel: model.NewBaseModel(), Name: "乙"}

	shifts := []*model.Shift{
		shiftFor(t, "周二早", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", a.ID),
		shiftFor(t, "周三早", "2026-09-02T09:00:00Z", "2026-09-02T17:00:00Z", b.ID),
	}

	m := NewFairnessAnalyzer().Analyze(shifts, []*model.Employee{a, b})
	if m.WorkloadGini != 0 {
		t.Errorf("Expected Gini 0, got %.3f", m.WorkloadGini)
	}
	if m.OverallFairnessScore != 100 {
		t.Errorf("Expected perfect score 100, got %.1f", m.OverallFairnessScore)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	m := NewFairnessAnalyzer().Analyze(nil, nil)
	if m.OverallFairnessScore != 100 {
		t.Errorf("Expected score 100 for empty schedule, got %.1f", m.OverallFairnessScore)
	}
}
