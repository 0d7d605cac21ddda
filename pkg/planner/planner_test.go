package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newEmployee(name string, skills ...string) *model.Employee {
	return &model.Employee{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    model.EmployeeStatusActive,
		Skills:    skills,
	}
}

func newShift(title, start, end string, capacity int, skills ...string) *model.Shift {
	return &model.Shift{
		BaseModel:      model.NewBaseModel(),
		Title:          title,
		Start:          mustTime(start),
		End:            mustTime(end),
		Capacity:       capacity,
		RequiredSkills: skills,
	}
}

// windowsFor 为每名员工生成一个覆盖 [start, end) 的可用窗口
func windowsFor(start, end string, emps ...*model.Employee) []*model.AvailabilityWindow {
	windows := make([]*model.AvailabilityWindow, 0, len(emps))
	for _, e := range emps {
		windows = append(windows, &model.AvailabilityWindow{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: e.ID,
			Range:      model.TimeRange{Start: mustTime(start), End: mustTime(end)},
		})
	}
	return windows
}

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func diagFor(t *testing.T, result *Result, shiftID uuid.UUID) ShiftDiagnostic {
	t.Helper()
	for _, d := range result.Diagnostics {
		if d.ShiftID == shiftID {
			return d
		}
	}
	t.Fatalf("No diagnostic for shift %s", shiftID)
	return ShiftDiagnostic{}
}

// 场景：一个容量 2 的班次，三名条件相同、工时分别为 0/5/10 的员工，
// 工时少的两人胜出
func TestPlan_FairnessWinsTies(t *testing.T) {
	low := newEmployee("低工时")
	mid := newEmployee("中工时")
	high := newEmployee("高工时")

	seedMid := newShift("已排1", "2026-08-28T09:00:00Z", "2026-08-28T14:00:00Z", 1)
	seedMid.AssignedIDs = []uuid.UUID{mid.ID}
	seedHigh := newShift("已排2", "2026-08-27T08:00:00Z", "2026-08-27T18:00:00Z", 1)
	seedHigh.AssignedIDs = []uuid.UUID{high.ID}
	target := newShift("目标", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 2)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{low, mid, high},
		Shifts:    []*model.Shift{seedMid, seedHigh, target},
		Windows:   windowsFor("2026-08-27T00:00:00Z", "2026-09-02T00:00:00Z", low, mid, high),
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	committed := make(map[uuid.UUID]bool)
	for _, a := range result.Assignments {
		if a.ShiftID == target.ID {
			committed[a.EmployeeID] = true
		}
	}
	if len(committed) != 2 {
		t.Fatalf("Expected 2 assignments for target shift, got %d", len(committed))
	}
	if !committed[low.ID] || !committed[mid.ID] {
		t.Error("Expected the two least-loaded employees to be assigned")
	}
	if committed[high.ID] {
		t.Error("Expected most-loaded employee to be skipped")
	}
	if diagFor(t, result, target.ID).Status != StatusFilled {
		t.Error("Expected target shift FILLED")
	}
}

// 场景：已排 9:00-17:00，候选班次 23:00-次日7:00，间隔 6 小时不足 8 小时
func TestPlan_InsufficientBreak(t *testing.T) {
	emp := newEmployee("张三")
	seeded := newShift("白班", "2026-09-01T09:00:00Z", "2026-09-01T17:00:00Z", 1)
	seeded.AssignedIDs = []uuid.UUID{emp.ID}
	night := newShift("夜班", "2026-09-01T23:00:00Z", "2026-09-02T07:00:00Z", 1)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{seeded, night},
		Windows:   windowsFor("2026-09-01T00:00:00Z", "2026-09-03T00:00:00Z", emp),
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	diag := diagFor(t, result, night.ID)
	if diag.Status != StatusPartiallyFilled {
		t.Errorf("Expected PARTIALLY_FILLED, got %s", diag.Status)
	}
	if len(diag.Rejected) != 1 || diag.Rejected[0].Code != constraint.ReasonInsufficientBreak {
		t.Errorf("Expected INSUFFICIENT_BREAK rejection, got %+v", diag.Rejected)
	}
}

// 场景：班次要求技能，唯一员工不具备
func TestPlan_SkillMismatch(t *testing.T) {
	emp := newEmployee("张三", "收银")
	wedding := newShift("婚宴", "2026-09-05T17:00:00Z", "2026-09-05T23:00:00Z", 1, "婚宴服务")

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{wedding},
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	diag := diagFor(t, result, wedding.ID)
	if diag.Status != StatusPartiallyFilled {
		t.Errorf("Expected PARTIALLY_FILLED, got %s", diag.Status)
	}
	if diag.UnfilledSlots != 1 {
		t.Errorf("Expected 1 unfilled slot, got %d", diag.UnfilledSlots)
	}
	if len(diag.Rejected) != 1 || diag.Rejected[0].Code != constraint.ReasonSkillMismatch {
		t.Errorf("Expected SKILL_MISMATCH rejection, got %+v", diag.Rejected)
	}
	if len(result.Assignments) != 0 {
		t.Errorf("Expected no assignments, got %d", len(result.Assignments))
	}
}

// 场景：可用窗口为周一到周三 9:00-18:00，班次在周四
func TestPlan_OutsideAvailability(t *testing.T) {
	emp := newEmployee("张三")
	// 2026-08-31 是周一
	windows := []*model.AvailabilityWindow{
		{BaseModel: model.NewBaseModel(), EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-08-31T09:00:00Z"), End: mustTime("2026-08-31T18:00:00Z")}},
		{BaseModel: model.NewBaseModel(), EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-09-01T09:00:00Z"), End: mustTime("2026-09-01T18:00:00Z")}},
		{BaseModel: model.NewBaseModel(), EmployeeID: emp.ID, Range: model.TimeRange{
			Start: mustTime("2026-09-02T09:00:00Z"), End: mustTime("2026-09-02T18:00:00Z")}},
	}
	thursday := newShift("周四班", "2026-09-03T14:00:00Z", "2026-09-03T18:00:00Z", 1)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{thursday},
		Windows:   windows,
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	diag := diagFor(t, result, thursday.ID)
	if len(diag.Rejected) != 1 || diag.Rejected[0].Code != constraint.ReasonOutsideAvailability {
		t.Errorf("Expected OUTSIDE_AVAILABILITY rejection, got %+v", diag.Rejected)
	}
}

// 场景：员工未提交任何可用窗口，任何班次都不得分配给他
func TestPlan_NoWindowsNeverAssigned(t *testing.T) {
	emp := newEmployee("张三")
	shift := newShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 1)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{shift},
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(result.Assignments) != 0 {
		t.Fatalf("Expected no assignments for employee without windows, got %d", len(result.Assignments))
	}
	diag := diagFor(t, result, shift.ID)
	if diag.Status != StatusPartiallyFilled {
		t.Errorf("Expected PARTIALLY_FILLED, got %s", diag.Status)
	}
	if len(diag.Rejected) != 1 || diag.Rejected[0].Code != constraint.ReasonOutsideAvailability {
		t.Errorf("Expected OUTSIDE_AVAILABILITY rejection, got %+v", diag.Rejected)
	}
}

// 场景：容量 1、两名得分完全相同的候选，ID 字典序小者胜出
func TestPlan_LexicographicTieBreak(t *testing.T) {
	a := newEmployee("甲")
	b := newEmployee("乙")
	target := newShift("目标", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 1)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{a, b},
		Shifts:    []*model.Shift{target},
		Windows:   windowsFor("2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z", a, b),
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(result.Assignments))
	}

	expected := a.ID
	if strings.Compare(b.ID.String(), a.ID.String()) < 0 {
		expected = b.ID
	}
	if result.Assignments[0].EmployeeID != expected {
		t.Error("Expected lexicographically smaller employee ID to win the tie")
	}
}

// 场景：结束时间早于开始时间的班次使整次运行中止，无部分输出
func TestPlan_MalformedShift(t *testing.T) {
	emp := newEmployee("张三")
	good := newShift("正常班", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 1)
	bad := newShift("坏班", "2026-09-02T17:00:00Z", "2026-09-02T09:00:00Z", 1)

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{good, bad},
	}

	result, err := newPlanner(t).Plan(input)
	if err == nil {
		t.Fatal("Expected validation error for malformed shift")
	}
	if !errors.Is(err, errors.CodeInvalidTimeRange) {
		t.Errorf("Expected INVALID_TIME_RANGE, got %v", err)
	}
	if !strings.Contains(err.Error(), bad.ID.String()) {
		t.Error("Expected error to identify the offending shift")
	}
	if result != nil {
		t.Error("Expected no partial output on validation failure")
	}
}

func TestPlan_InvalidCapacity(t *testing.T) {
	bad := newShift("零容量", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 0)
	input := &Input{CompanyID: uuid.New(), Shifts: []*model.Shift{bad}}

	_, err := newPlanner(t).Plan(input)
	if !errors.Is(err, errors.CodeInvalidCapacity) {
		t.Errorf("Expected INVALID_CAPACITY, got %v", err)
	}
}

func TestPlan_UnknownSkill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkillVocabulary = []string{"收银", "理货"}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	shift := newShift("班次", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 1, "开叉车")
	input := &Input{CompanyID: uuid.New(), Shifts: []*model.Shift{shift}}

	_, err = p.Plan(input)
	if !errors.Is(err, errors.CodeUnknownSkill) {
		t.Errorf("Expected UNKNOWN_SKILL, got %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Constraints.MinBreakHours = -1
	if _, err := New(cfg); !errors.Is(err, errors.CodeInvalidConfig) {
		t.Errorf("Expected INVALID_CONFIG for negative break hours, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Scoring.Weights.Fairness = -0.5
	if _, err := New(cfg); !errors.Is(err, errors.CodeInvalidConfig) {
		t.Errorf("Expected INVALID_CONFIG for negative weight, got %v", err)
	}
}

// 相同输入与配置的两次运行必须产生完全一致的输出
func TestPlan_Deterministic(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("甲", "收银"),
		newEmployee("乙", "收银", "理货"),
		newEmployee("丙", "理货"),
		newEmployee("丁"),
	}
	shifts := []*model.Shift{
		newShift("早班", "2026-09-01T06:00:00Z", "2026-09-01T12:00:00Z", 2, "收银"),
		newShift("午班", "2026-09-01T12:00:00Z", "2026-09-01T18:00:00Z", 2),
		newShift("理货班", "2026-09-02T08:00:00Z", "2026-09-02T14:00:00Z", 1, "理货"),
		newShift("晚班", "2026-09-02T16:00:00Z", "2026-09-02T22:00:00Z", 2),
	}
	input := &Input{
		CompanyID: uuid.New(),
		Employees: employees,
		Shifts:    shifts,
		Windows:   windowsFor("2026-08-31T00:00:00Z", "2026-09-03T00:00:00Z", employees...),
	}

	p := newPlanner(t)
	first, err := p.Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	second, err := p.Plan(input)
	if err != nil {
		t.Fatalf("Second plan failed: %v", err)
	}

	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("Assignment counts differ: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for i := range first.Assignments {
		if first.Assignments[i].EmployeeID != second.Assignments[i].EmployeeID ||
			first.Assignments[i].ShiftID != second.Assignments[i].ShiftID {
			t.Errorf("Assignment %d differs between runs", i)
		}
	}
	for i := range first.Diagnostics {
		if first.Diagnostics[i].ShiftID != second.Diagnostics[i].ShiftID ||
			first.Diagnostics[i].Status != second.Diagnostics[i].Status {
			t.Errorf("Diagnostic %d differs between runs", i)
		}
	}
}

// 输出计划必须满足全部硬约束
func TestPlan_HardConstraintsHold(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("甲", "收银"),
		newEmployee("乙", "收银"),
		newEmployee("丙"),
	}
	shifts := []*model.Shift{
		newShift("A", "2026-09-01T06:00:00Z", "2026-09-01T12:00:00Z", 2, "收银"),
		newShift("B", "2026-09-01T10:00:00Z", "2026-09-01T16:00:00Z", 1),
		newShift("C", "2026-09-01T20:00:00Z", "2026-09-02T02:00:00Z", 2),
		newShift("D", "2026-09-02T10:00:00Z", "2026-09-02T18:00:00Z", 3),
	}
	cfg := DefaultConfig()
	input := &Input{
		CompanyID: uuid.New(),
		Employees: employees,
		Shifts:    shifts,
		Windows:   windowsFor("2026-09-01T00:00:00Z", "2026-09-03T00:00:00Z", employees...),
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	shiftByID := make(map[uuid.UUID]*model.Shift)
	for _, s := range shifts {
		shiftByID[s.ID] = s
	}

	// 容量不变量
	perShift := make(map[uuid.UUID]int)
	for _, a := range result.Assignments {
		perShift[a.ShiftID]++
	}
	for id, count := range perShift {
		if count > shiftByID[id].Capacity {
			t.Errorf("Shift %s over capacity: %d > %d", id, count, shiftByID[id].Capacity)
		}
	}

	// 重叠、休息间隔、日工时不变量
	perEmp := make(map[uuid.UUID][]*model.Shift)
	for _, a := range result.Assignments {
		perEmp[a.EmployeeID] = append(perEmp[a.EmployeeID], shiftByID[a.ShiftID])
	}
	for empID, assigned := range perEmp {
		for i := 0; i < len(assigned); i++ {
			for j := i + 1; j < len(assigned); j++ {
				ri, rj := assigned[i].Range(), assigned[j].Range()
				if ri.Overlaps(rj) {
					t.Errorf("Employee %s has overlapping shifts %s and %s", empID, assigned[i].Title, assigned[j].Title)
				}
				if gap := ri.Gap(rj).Hours(); gap < cfg.Constraints.MinBreakHours {
					t.Errorf("Employee %s break %.1fh below minimum between %s and %s",
						empID, gap, assigned[i].Title, assigned[j].Title)
				}
			}
		}
		daily := make(map[string]float64)
		for _, s := range assigned {
			for _, day := range s.Range().Dates() {
				daily[day.Format("2006-01-02")] += s.Range().HoursOnDate(day)
			}
		}
		for day, hours := range daily {
			if hours > cfg.Constraints.MaxHoursPerDay {
				t.Errorf("Employee %s exceeds daily limit on %s: %.1fh", empID, day, hours)
			}
		}
	}
}

func TestPlan_SummaryAndFillRate(t *testing.T) {
	a := newEmployee("甲")
	b := newEmployee("乙")
	s1 := newShift("早班", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 2)
	s2 := newShift("专班", "2026-09-03T09:00:00Z", "2026-09-03T13:00:00Z", 2, "稀有技能")

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{a, b},
		Shifts:    []*model.Shift{s1, s2},
		Windows:   windowsFor("2026-09-01T00:00:00Z", "2026-09-04T00:00:00Z", a, b),
	}

	result, err := newPlanner(t).Plan(input)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	// 4 个名额填了 2 个
	if result.Summary.FillRatePercent != 50 {
		t.Errorf("Expected fill rate 50%%, got %.1f", result.Summary.FillRatePercent)
	}
	if result.Summary.TotalAssignedHours != 8 {
		t.Errorf("Expected 8 total hours, got %.1f", result.Summary.TotalAssignedHours)
	}
	if result.Summary.PerEmployeeHours[a.ID] != 4 || result.Summary.PerEmployeeHours[b.ID] != 4 {
		t.Errorf("Expected 4 hours each, got %+v", result.Summary.PerEmployeeHours)
	}
}

// 难度排序：技能要求多的班次先处理
func TestOrderByDifficulty(t *testing.T) {
	easy := newShift("普通", "2026-09-01T08:00:00Z", "2026-09-01T12:00:00Z", 1)
	hard := newShift("专业", "2026-09-01T14:00:00Z", "2026-09-01T18:00:00Z", 1, "技能1", "技能2")
	big := newShift("大组", "2026-09-01T10:00:00Z", "2026-09-01T14:00:00Z", 5)

	ordered := orderByDifficulty([]*model.Shift{easy, hard, big})
	if ordered[0].ID != hard.ID {
		t.Error("Expected skill-demanding shift first")
	}
	if ordered[1].ID != big.ID {
		t.Error("Expected high-capacity shift second")
	}
	if ordered[2].ID != easy.ID {
		t.Error("Expected plain shift last")
	}
}

func TestSuggest(t *testing.T) {
	a := newEmployee("甲", "收银")
	b := newEmployee("乙", "收银")
	c := newEmployee("丙")
	target := newShift("目标", "2026-09-01T09:00:00Z", "2026-09-01T13:00:00Z", 1, "收银")

	input := &Input{
		CompanyID: uuid.New(),
		Employees: []*model.Employee{a, b, c},
		Shifts:    []*model.Shift{target},
		Windows:   windowsFor("2026-09-01T00:00:00Z", "2026-09-02T00:00:00Z", a, b),
	}

	result, err := newPlanner(t).Suggest(input, target.ID, 5)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(result.Suggestions) != 2 {
		t.Errorf("Expected 2 feasible suggestions, got %d", len(result.Suggestions))
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Code != constraint.ReasonSkillMismatch {
		t.Errorf("Expected 1 SKILL_MISMATCH rejection, got %+v", result.Rejected)
	}

	if _, err := newPlanner(t).Suggest(input, uuid.New(), 5); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND for unknown shift, got %v", err)
	}
}
