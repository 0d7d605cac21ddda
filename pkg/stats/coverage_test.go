package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

func TestCoverage_Overall(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	full := shiftFor(t, "满员班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", a, b)
	short := &model.Shift{
		BaseModel:      model.NewBaseModel(),
		Title:          "缺人班",
		Start:          mustTime(t, "2026-09-02T09:00:00Z"),
		End:            mustTime(t, "2026-09-02T17:00:00Z"),
		Capacity:       3,
		RequiredSkills: []string{"收银"},
		AssignedIDs:    []uuid.UUID{a},
	}

	m := NewCoverageAnalyzer().Analyze([]*model.Shift{full, short})

	if m.TotalSlots != 5 || m.AssignedSlots != 3 {
		t.Errorf("Expected 3/5 slots, got %d/%d", m.AssignedSlots, m.TotalSlots)
	}
	if m.OverallCoverage != 60 {
		t.Errorf("Expected 60%% coverage, got %.1f", m.OverallCoverage)
	}
	if len(m.UncoveredShifts) != 1 || m.UncoveredShifts[0].Missing != 2 {
		t.Errorf("Expected 1 uncovered shift missing 2, got %+v", m.UncoveredShifts)
	}
	if got := m.SkillCoverage["收银"]; got < 33.3 || got > 33.4 {
		t.Errorf("Expected skill coverage ~33.3%%, got %.1f", got)
	}

	day1 := m.DailyCoverage["2026-09-01"]
	if day1.CoverageRate != 100 || day1.TotalHours != 16 {
		t.Errorf("Expected full day coverage with 16 hours, got %+v", day1)
	}
}

func TestCoverage_Empty(t *testing.T) {
	m := NewCoverageAnalyzer().Analyze(nil)
	if m.OverallCoverage != 100 {
		t.Errorf("Expected 100%% for empty schedule, got %.1f", m.OverallCoverage)
	}
}
