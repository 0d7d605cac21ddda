package swap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", s, err)
	}
	return parsed
}

func newEmployee(name string, skills ...string) *model.Employee {
	return &model.Employee{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    model.EmployeeStatusActive,
		Skills:    skills,
	}
}

func newShift(t *testing.T, title, start, end string, skills ...string) *model.Shift {
	t.Helper()
	return &model.Shift{
		BaseModel:      model.NewBaseModel(),
		Title:          title,
		Start:          mustTime(t, start),
		End:            mustTime(t, end),
		Capacity:       1,
		RequiredSkills: skills,
	}
}

func newWindow(t *testing.T, emp *model.Employee, start, end string) *model.AvailabilityWindow {
	t.Helper()
	return &model.AvailabilityWindow{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Range:      model.TimeRange{Start: mustTime(t, start), End: mustTime(t, end)},
	}
}

func newEvaluator() *Evaluator {
	return NewEvaluator(constraint.DefaultConfig(), score.DefaultConfig())
}

func TestEvaluate_FeasibleTakeover(t *testing.T) {
	from := newEmployee("张三", "收银")
	to := newEmployee("李四", "收银")
	shift := newShift(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", "收银")
	shift.AssignedIDs = []uuid.UUID{from.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{from, to},
		Shifts:    []*model.Shift{shift},
		Windows: []*model.AvailabilityWindow{
			newWindow(t, to, "2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z"),
		},
	}

	result := newEvaluator().Evaluate(snapshot, &Request{
		Shift: shift, FromEmployee: from, ToEmployee: to,
	})
	if !result.Feasible {
		t.Fatalf("Expected feasible takeover, got issues %+v", result.Issues)
	}
	if result.Impact.FromHoursChange != -8 || result.Impact.ToHoursChange != 8 {
		t.Errorf("Expected hours change -8/+8, got %.1f/%.1f",
			result.Impact.FromHoursChange, result.Impact.ToHoursChange)
	}
}

func TestEvaluate_SkillMismatch(t *testing.T) {
	from := newEmployee("张三", "收银")
	to := newEmployee("李四")
	shift := newShift(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", "收银")
	shift.AssignedIDs = []uuid.UUID{from.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{from, to},
		Shifts:    []*model.Shift{shift},
	}

	result := newEvaluator().Evaluate(snapshot, &Request{
		Shift: shift, FromEmployee: from, ToEmployee: to,
	})
	if result.Feasible {
		t.Error("Expected skill mismatch to make swap infeasible")
	}
	if len(result.Issues) == 0 || result.Issues[0].Type != string(constraint.ReasonSkillMismatch) {
		t.Errorf("Expected SKILL_MISMATCH issue, got %+v", result.Issues)
	}
}

func TestEvaluate_OverlapWithExistingShift(t *testing.T) {
	from := newEmployee("张三")
	to := newEmployee("李四")
	shift := newShift(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	shift.AssignedIDs = []uuid.UUID{from.ID}
	conflicting := newShift(t, "并行班", "2026-09-01T12:00:00Z", "2026-09-01T20:00:00Z")
	conflicting.AssignedIDs = []uuid.UUID{to.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{from, to},
		Shifts:    []*model.Shift{shift, conflicting},
		Windows: []*model.AvailabilityWindow{
			newWindow(t, to, "2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z"),
		},
	}

	result := newEvaluator().Evaluate(snapshot, &Request{
		Shift: shift, FromEmployee: from, ToEmployee: to,
	})
	if result.Feasible {
		t.Error("Expected overlap with existing shift to make swap infeasible")
	}
}

func TestEvaluate_Exchange(t *testing.T) {
	a := newEmployee("张三")
	b := newEmployee("李四")
	shiftA := newShift(t, "周二班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	shiftA.AssignedIDs = []uuid.UUID{a.ID}
	shiftB := newShift(t, "周四班", "2026-09-03T09:00:00Z", "2026-09-03T13:00:00Z")
	shiftB.AssignedIDs = []uuid.UUID{b.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{a, b},
		Shifts:    []*model.Shift{shiftA, shiftB},
		Windows: []*model.AvailabilityWindow{
			newWindow(t, a, "2026-09-01T00:00:00Z", "2026-09-04T00:00:00Z"),
			newWindow(t, b, "2026-09-01T00:00:00Z", "2026-09-04T00:00:00Z"),
		},
	}

	result := newEvaluator().Evaluate(snapshot, &Request{
		Shift: shiftA, FromEmployee: a, ToEmployee: b, ExchangeShift: shiftB,
	})
	if !result.Feasible {
		t.Fatalf("Expected feasible exchange, got issues %+v", result.Issues)
	}
	// 甲 -8+4、乙 +8-4
	if result.Impact.FromHoursChange != -4 || result.Impact.ToHoursChange != 4 {
		t.Errorf("Expected hours change -4/+4, got %.1f/%.1f",
			result.Impact.FromHoursChange, result.Impact.ToHoursChange)
	}
}

func TestEvaluate_InvalidRequests(t *testing.T) {
	from := newEmployee("张三")
	inactive := newEmployee("李四")
	inactive.Status = model.EmployeeStatusLeave
	shift := newShift(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z")
	shift.AssignedIDs = []uuid.UUID{from.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{from, inactive},
		Shifts:    []*model.Shift{shift},
	}
	e := newEvaluator()

	if ok, _ := e.CanSwap(snapshot, &Request{Shift: shift, FromEmployee: from, ToEmployee: inactive}); ok {
		t.Error("Expected swap to inactive employee to be rejected")
	}
	if ok, _ := e.CanSwap(snapshot, &Request{Shift: shift, FromEmployee: from, ToEmployee: from}); ok {
		t.Error("Expected self-swap to be rejected")
	}
	if ok, _ := e.CanSwap(snapshot, nil); ok {
		t.Error("Expected nil request to be rejected")
	}
}

func TestRecommendTargets(t *testing.T) {
	from := newEmployee("张三", "收银")
	good := newEmployee("李四", "收银")
	unskilled := newEmployee("王五")
	shift := newShift(t, "早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", "收银")
	shift.AssignedIDs = []uuid.UUID{from.ID}

	snapshot := &Snapshot{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{from, good, unskilled},
		Shifts:    []*model.Shift{shift},
		Windows: []*model.AvailabilityWindow{
			newWindow(t, good, "2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z"),
		},
	}

	r := NewRecommender(constraint.DefaultConfig(), score.DefaultConfig())
	results := r.RecommendTargets(snapshot, shift, from, nil)
	if len(results) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(results))
	}
	if results[0].Employee.ID != good.ID {
		t.Error("Expected skilled employee to be recommended")
	}

	best := r.FindBestTarget(snapshot, shift, from)
	if best == nil || best.Employee.ID != good.ID {
		t.Error("Expected FindBestTarget to return the skilled employee")
	}
}
