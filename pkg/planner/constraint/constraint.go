package constraint

import (
	"fmt"

	"github.com/dingban/dingban/pkg/model"
)

// ReasonCode 硬约束拒绝原因代码
type ReasonCode string

const (
	ReasonSkillMismatch       ReasonCode = "SKILL_MISMATCH"
	ReasonOutsideAvailability ReasonCode = "OUTSIDE_AVAILABILITY"
	ReasonOverlap             ReasonCode = "OVERLAP"
	ReasonInsufficientBreak   ReasonCode = "INSUFFICIENT_BREAK"
	ReasonDailyHoursExceeded  ReasonCode = "DAILY_HOURS_EXCEEDED"
	ReasonShiftFull           ReasonCode = "SHIFT_FULL"
)

// Config 硬约束参数
type Config struct {
	MinBreakHours  float64 // 相邻班次之间的最短休息时间（小时）
	MaxHoursPerDay float64 // 单个自然日的工时上限（小时）
}

// DefaultConfig 返回默认硬约束参数
func DefaultConfig() Config {
	return Config{
		MinBreakHours:  8,
		MaxHoursPerDay: 12,
	}
}

// Check 硬约束检查接口
// 返回是否通过，未通过时附带说明
type Check interface {
	Name() string
	Code() ReasonCode
	Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string)
}

// Rejection 单次候选评估的拒绝结果
type Rejection struct {
	Code   ReasonCode
	Detail string
}

// Checker 按固定顺序执行全部硬约束检查
// 顺序：技能 > 可用时间 > 时间冲突 > 休息间隔 > 日工时 > 班次容量
type Checker struct {
	checks []Check
}

// NewChecker 创建检查器，注册全部内置硬约束
func NewChecker(cfg Config) *Checker {
	return &Checker{
		checks: []Check{
			&SkillCheck{},
			&AvailabilityCheck{},
			&OverlapCheck{},
			&BreakCheck{MinHours: cfg.MinBreakHours},
			&DailyHoursCheck{MaxHours: cfg.MaxHoursPerDay},
			&CapacityCheck{},
		},
	}
}

// Checks 返回注册的检查列表
func (c *Checker) Checks() []Check {
	return c.checks
}

// IsFeasible 评估候选分配，遇到第一个未通过的检查即返回拒绝结果
// 全部通过时返回 nil
func (c *Checker) IsFeasible(ctx *Context, emp *model.Employee, shift *model.Shift) *Rejection {
	for _, check := range c.checks {
		ok, detail := check.Check(ctx, emp, shift)
		if !ok {
			return &Rejection{Code: check.Code(), Detail: detail}
		}
	}
	return nil
}

// SkillCheck 技能检查：员工必须具备班次要求的全部技能
type SkillCheck struct{}

func (sc *SkillCheck) Name() string     { return "skill_match" }
func (sc *SkillCheck) Code() ReasonCode { return ReasonSkillMismatch }

func (sc *SkillCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	if len(shift.RequiredSkills) == 0 {
		return true, ""
	}
	for _, skill := range shift.RequiredSkills {
		if !emp.HasSkill(skill) {
			return false, fmt.Sprintf("员工缺少技能 %s", skill)
		}
	}
	return true, ""
}

// AvailabilityCheck 可用时间检查：班次必须完整落在某一个可用窗口内
// 员工没有提交任何窗口时不可被分配
type AvailabilityCheck struct{}

func (ac *AvailabilityCheck) Name() string     { return "availability" }
func (ac *AvailabilityCheck) Code() ReasonCode { return ReasonOutsideAvailability }

func (ac *AvailabilityCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	windows := ctx.EmployeeWindows(emp.ID)
	if len(windows) == 0 {
		return false, "员工未提交任何可用时间窗口"
	}
	if !model.WithinAnyWindow(shift.Range(), windows) {
		return false, fmt.Sprintf("班次 %s 不在任何可用时间窗口内", shift.Title)
	}
	return true, ""
}

// OverlapCheck 时间冲突检查：候选班次不能与已分配班次重叠
// 区间为半开区间，首尾相接不算重叠
type OverlapCheck struct{}

func (oc *OverlapCheck) Name() string     { return "no_overlap" }
func (oc *OverlapCheck) Code() ReasonCode { return ReasonOverlap }

func (oc *OverlapCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	candidate := shift.Range()
	for _, assigned := range ctx.EmployeeShifts(emp.ID) {
		if assigned.ID == shift.ID {
			continue
		}
		if candidate.Overlaps(assigned.Range()) {
			return false, fmt.Sprintf("与已分配班次 %s 时间重叠", assigned.Title)
		}
	}
	return true, ""
}

// BreakCheck 休息间隔检查：相邻班次之间必须有足够的休息时间
type BreakCheck struct {
	MinHours float64
}

func (bc *BreakCheck) Name() string     { return "min_break" }
func (bc *BreakCheck) Code() ReasonCode { return ReasonInsufficientBreak }

func (bc *BreakCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	if bc.MinHours <= 0 {
		return true, ""
	}
	candidate := shift.Range()
	for _, assigned := range ctx.EmployeeShifts(emp.ID) {
		if assigned.ID == shift.ID {
			continue
		}
		gap := candidate.Gap(assigned.Range()).Hours()
		if gap < bc.MinHours {
			return false, fmt.Sprintf("与班次 %s 的间隔 %.1f 小时不足 %.1f 小时", assigned.Title, gap, bc.MinHours)
		}
	}
	return true, ""
}

// DailyHoursCheck 日工时检查：分配后任一自然日的累计工时不得超过上限
// 跨午夜的班次按日拆分计算
type DailyHoursCheck struct {
	MaxHours float64
}

func (dc *DailyHoursCheck) Name() string     { return "max_daily_hours" }
func (dc *DailyHoursCheck) Code() ReasonCode { return ReasonDailyHoursExceeded }

func (dc *DailyHoursCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	if dc.MaxHours <= 0 {
		return true, ""
	}
	candidate := shift.Range()
	for _, day := range candidate.Dates() {
		total := ctx.EmployeeHoursOnDate(emp.ID, day) + candidate.HoursOnDate(day)
		if total > dc.MaxHours {
			return false, fmt.Sprintf("%s 工时 %.1f 小时超过上限 %.1f 小时",
				day.Format("2006-01-02"), total, dc.MaxHours)
		}
	}
	return true, ""
}

// CapacityCheck 容量检查：班次已分配人数不得达到容量上限
type CapacityCheck struct{}

func (cc *CapacityCheck) Name() string     { return "capacity" }
func (cc *CapacityCheck) Code() ReasonCode { return ReasonShiftFull }

func (cc *CapacityCheck) Check(ctx *Context, emp *model.Employee, shift *model.Shift) (bool, string) {
	if ctx.AssignedCount(shift.ID) >= shift.Capacity {
		return false, fmt.Sprintf("班次 %s 已满员（容量 %d）", shift.Title, shift.Capacity)
	}
	return true, ""
}
