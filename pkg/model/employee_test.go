package model

import (
	"testing"
)

func TestEmployee_Skills(t *testing.T) {
	emp := &Employee{
		BaseModel: NewBaseModel(),
		Name:      "张三",
		Status:    EmployeeStatusActive,
		Skills:    []string{"收银", "理货"},
	}

	if !emp.HasSkill("收银") {
		t.Error("Expected employee to have skill")
	}
	if emp.HasSkill("开叉车") {
		t.Error("Expected employee not to have unlisted skill")
	}
	if !emp.HasAllSkills([]string{"收银", "理货"}) {
		t.Error("Expected employee to have all listed skills")
	}
	if emp.HasAllSkills([]string{"收银", "开叉车"}) {
		t.Error("Expected partial skill set to fail")
	}
	if !emp.HasAllSkills(nil) {
		t.Error("Expected empty requirement to pass")
	}
}

func TestEmployee_Reliability(t *testing.T) {
	emp := &Employee{NoShowProbability: 0.15}
	if got := emp.Reliability(); got != 0.85 {
		t.Errorf("Expected reliability 0.85, got %.2f", got)
	}
}

func TestEmployee_ExperienceFor(t *testing.T) {
	emp := &Employee{Experience: map[string]float64{"婚宴": 0.7}}
	if got := emp.ExperienceFor("婚宴"); got != 0.7 {
		t.Errorf("Expected 0.7, got %.2f", got)
	}
	// 无记录时为 0
	if got := emp.ExperienceFor("会议"); got != 0 {
		t.Errorf("Expected 0 for unknown type, got %.2f", got)
	}
}

func TestWithinAnyWindow(t *testing.T) {
	emp := &Employee{BaseModel: NewBaseModel()}
	windows := []*AvailabilityWindow{
		{EmployeeID: emp.ID, Range: newRange(t, "2026-09-01T08:00:00Z", "2026-09-01T18:00:00Z")},
		{EmployeeID: emp.ID, Range: newRange(t, "2026-09-02T08:00:00Z", "2026-09-02T12:00:00Z")},
	}

	inside := newRange(t, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if !WithinAnyWindow(inside, windows) {
		t.Error("Expected shift inside first window to pass")
	}

	// 跨窗口不算：必须被单个窗口完整包含
	spanning := newRange(t, "2026-09-01T17:00:00Z", "2026-09-02T09:00:00Z")
	if WithinAnyWindow(spanning, windows) {
		t.Error("Expected window-spanning shift to fail")
	}

	partial := newRange(t, "2026-09-02T10:00:00Z", "2026-09-02T14:00:00Z")
	if WithinAnyWindow(partial, windows) {
		t.Error("Expected partially covered shift to fail")
	}
}

func TestStrictlyInsideAnyWindow(t *testing.T) {
	windows := []*AvailabilityWindow{
		{Range: newRange(t, "2026-09-01T08:00:00Z", "2026-09-01T18:00:00Z")},
	}

	strict := newRange(t, "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	if !StrictlyInsideAnyWindow(strict, windows) {
		t.Error("Expected interior shift to pass strict containment")
	}

	touching := newRange(t, "2026-09-01T08:00:00Z", "2026-09-01T17:00:00Z")
	if StrictlyInsideAnyWindow(touching, windows) {
		t.Error("Expected boundary-touching shift to fail strict containment")
	}
}
