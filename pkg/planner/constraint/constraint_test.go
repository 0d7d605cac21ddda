package constraint

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestEmployee(name string, skills ...string) *model.Employee {
	return &model.Employee{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    model.EmployeeStatusActive,
		Skills:    skills,
	}
}

func newTestShift(title, start, end string, capacity int, skills ...string) *model.Shift {
	return &model.Shift{
		BaseModel:      model.NewBaseModel(),
		Title:          title,
		Start:          mustTime(start),
		End:            mustTime(end),
		Capacity:       capacity,
		RequiredSkills: skills,
	}
}

func newTestContext(employees []*model.Employee, shifts []*model.Shift) *Context {
	ctx := NewContext(uuid.New())
	ctx.SetEmployees(employees)
	ctx.SetShifts(shifts)
	return ctx
}

func TestSkillCheck(t *testing.T) {
	emp := newTestEmployee("张三", "收银")
	shift := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1, "收银", "理货")
	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{shift})

	check := &SkillCheck{}
	ok, _ := check.Check(ctx, emp, shift)
	if ok {
		t.Error("Expected skill check to fail for missing skill")
	}

	emp.Skills = append(emp.Skills, "理货")
	ok, _ = check.Check(ctx, emp, shift)
	if !ok {
		t.Error("Expected skill check to pass with all required skills")
	}

	// 无技能要求的班次任何人都可以上
	open := newTestShift("晚班", "2026-09-01T18:00:00Z", "2026-09-01T22:00:00Z", 1)
	ok, _ = check.Check(ctx, newTestEmployee("李四"), open)
	if !ok {
		t.Error("Expected skill check to pass for shift without required skills")
	}
}

func TestAvailabilityCheck(t *testing.T) {
	emp := newTestEmployee("张三")
	shift := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1)
	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{shift})
	check := &AvailabilityCheck{}

	// 未提交任何窗口的员工不可被分配
	ok, _ := check.Check(ctx, emp, shift)
	if ok {
		t.Error("Expected availability check to fail for employee without windows")
	}

	// 班次未被任何窗口完整包含
	ctx.SetWindows([]*model.AvailabilityWindow{
		{EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-09-01T10:00:00Z"),
			End:   mustTime("2026-09-01T20:00:00Z"),
		}},
	})
	ok, _ = check.Check(ctx, emp, shift)
	if ok {
		t.Error("Expected availability check to fail when shift spills out of window")
	}

	// 完整包含（边界重合也算）
	ctx.SetWindows([]*model.AvailabilityWindow{
		{EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-09-01T09:00:00Z"),
			End:   mustTime("2026-09-01T17:00:00Z"),
		}},
	})
	ok, _ = check.Check(ctx, emp, shift)
	if !ok {
		t.Error("Expected availability check to pass when window exactly covers shift")
	}
}

func TestOverlapCheck(t *testing.T) {
	emp := newTestEmployee("张三")
	assigned := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1)
	assigned.AssignedIDs = []uuid.UUID{emp.ID}
	overlapping := newTestShift("午班", "2026-09-01T16:00:00Z", "2026-09-01T20:00:00Z", 1)
	adjacent := newTestShift("晚班", "2026-09-01T17:00:00Z", "2026-09-01T21:00:00Z", 1)

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{assigned, overlapping, adjacent})
	check := &OverlapCheck{}

	ok, _ := check.Check(ctx, emp, overlapping)
	if ok {
		t.Error("Expected overlap check to fail for overlapping shift")
	}

	// 半开区间：首尾相接不算重叠
	ok, _ = check.Check(ctx, emp, adjacent)
	if !ok {
		t.Error("Expected overlap check to pass for back-to-back shift")
	}
}

func TestBreakCheck(t *testing.T) {
	emp := newTestEmployee("张三")
	assigned := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1)
	assigned.AssignedIDs = []uuid.UUID{emp.ID}
	tooSoon := newTestShift("晚班", "2026-09-01T21:00:00Z", "2026-09-02T01:00:00Z", 1)
	nextDay := newTestShift("次日班", "2026-09-02T09:00:00Z", "2026-09-02T17:00:00Z", 1)

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{assigned, tooSoon, nextDay})
	check := &BreakCheck{MinHours: 8}

	// 间隔 4 小时不足 8 小时
	ok, _ := check.Check(ctx, emp, tooSoon)
	if ok {
		t.Error("Expected break check to fail for 4 hour gap")
	}

	// 间隔 16 小时
	ok, _ = check.Check(ctx, emp, nextDay)
	if !ok {
		t.Error("Expected break check to pass for 16 hour gap")
	}
}

func TestDailyHoursCheck(t *testing.T) {
	emp := newTestEmployee("张三")
	morning := newTestShift("早班", "2026-09-01T06:00:00Z", "2026-09-01T12:00:00Z", 1)
	morning.AssignedIDs = []uuid.UUID{emp.ID}
	evening := newTestShift("晚班", "2026-09-01T14:00:00Z", "2026-09-01T21:00:00Z", 1)
	short := newTestShift("补班", "2026-09-01T14:00:00Z", "2026-09-01T19:00:00Z", 1)

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{morning, evening, short})
	check := &DailyHoursCheck{MaxHours: 12}

	// 6 + 7 = 13 超过 12 小时
	ok, _ := check.Check(ctx, emp, evening)
	if ok {
		t.Error("Expected daily hours check to fail at 13 hours")
	}

	// 6 + 5 = 11 未超
	ok, _ = check.Check(ctx, emp, short)
	if !ok {
		t.Error("Expected daily hours check to pass at 11 hours")
	}
}

func TestDailyHoursCheck_Overnight(t *testing.T) {
	emp := newTestEmployee("张三")
	day := newTestShift("白班", "2026-09-01T08:00:00Z", "2026-09-01T18:00:00Z", 1)
	day.AssignedIDs = []uuid.UUID{emp.ID}
	// 跨午夜：当日只算 22:00-24:00 的 2 小时
	overnight := newTestShift("夜班", "2026-09-01T22:00:00Z", "2026-09-02T06:00:00Z", 1)

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{day, overnight})
	check := &DailyHoursCheck{MaxHours: 12}

	ok, _ := check.Check(ctx, emp, overnight)
	if !ok {
		t.Error("Expected overnight shift hours to be split across days")
	}
}

func TestCapacityCheck(t *testing.T) {
	a := newTestEmployee("张三")
	b := newTestEmployee("李四")
	shift := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1)
	shift.AssignedIDs = []uuid.UUID{a.ID}

	ctx := newTestContext([]*model.Employee{a, b}, []*model.Shift{shift})
	check := &CapacityCheck{}

	ok, _ := check.Check(ctx, b, shift)
	if ok {
		t.Error("Expected capacity check to fail for full shift")
	}
}

func TestChecker_Order(t *testing.T) {
	checker := NewChecker(DefaultConfig())

	codes := make([]ReasonCode, 0)
	for _, c := range checker.Checks() {
		codes = append(codes, c.Code())
	}
	expected := []ReasonCode{
		ReasonSkillMismatch,
		ReasonOutsideAvailability,
		ReasonOverlap,
		ReasonInsufficientBreak,
		ReasonDailyHoursExceeded,
		ReasonShiftFull,
	}
	for i, code := range expected {
		if codes[i] != code {
			t.Errorf("Check %d: expected code %s, got %s", i, code, codes[i])
		}
	}
}

func TestChecker_ShortCircuit(t *testing.T) {
	// 同时违反技能和容量约束时，返回顺序靠前的技能原因
	emp := newTestEmployee("张三")
	other := newTestEmployee("李四", "收银")
	shift := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1, "收银")
	shift.AssignedIDs = []uuid.UUID{other.ID}

	ctx := newTestContext([]*model.Employee{emp, other}, []*model.Shift{shift})
	checker := NewChecker(DefaultConfig())

	rej := checker.IsFeasible(ctx, emp, shift)
	if rej == nil {
		t.Fatal("Expected rejection")
	}
	if rej.Code != ReasonSkillMismatch {
		t.Errorf("Expected SKILL_MISMATCH, got %s", rej.Code)
	}
}

func TestChecker_Feasible(t *testing.T) {
	emp := newTestEmployee("张三", "收银")
	shift := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1, "收银")

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{shift})
	ctx.SetWindows([]*model.AvailabilityWindow{
		{EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-09-01T08:00:00Z"),
			End:   mustTime("2026-09-01T18:00:00Z"),
		}},
	})
	checker := NewChecker(DefaultConfig())

	if rej := checker.IsFeasible(ctx, emp, shift); rej != nil {
		t.Errorf("Expected feasible candidate, got rejection %s", rej.Code)
	}
}

func TestContext_SeededState(t *testing.T) {
	emp := newTestEmployee("张三")
	s1 := newTestShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 2)
	s1.AssignedIDs = []uuid.UUID{emp.ID}

	ctx := newTestContext([]*model.Employee{emp}, []*model.Shift{s1})

	if got := ctx.EmployeeHours(emp.ID); got != 8 {
		t.Errorf("Expected 8 seeded hours, got %.1f", got)
	}
	if got := ctx.AssignedCount(s1.ID); got != 1 {
		t.Errorf("Expected assigned count 1, got %d", got)
	}

	s2 := newTestShift("晚班", "2026-09-02T09:00:00Z", "2026-09-02T13:00:00Z", 1)
	ctx.Assign(emp.ID, s2)
	if got := ctx.EmployeeHours(emp.ID); got != 12 {
		t.Errorf("Expected 12 hours after assign, got %.1f", got)
	}
	if emp.AccumulatedHours != 12 {
		t.Errorf("Expected employee accumulated hours synced, got %.1f", emp.AccumulatedHours)
	}
}
