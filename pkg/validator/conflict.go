// Package validator 提供已提交排班表的事后冲突检测
//
// 与规划阶段的硬约束检查不同，这里检查的是已经落库的排班数据，
// 包括人工改动和历史遗留数据，发现的问题以冲突列表返回而不是错误。
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"       // 时间重叠
	ConflictRestTime     ConflictType = "rest_time"     // 休息时间不足
	ConflictDailyHours   ConflictType = "daily_hours"   // 超过日工时上限
	ConflictSkill        ConflictType = "skill"         // 技能不匹配
	ConflictAvailability ConflictType = "availability"  // 不在可用时间内
)

// 冲突严重级别
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict 冲突信息
type Conflict struct {
	Type       ConflictType `json:"type"`
	Severity   string       `json:"severity"`
	EmployeeID uuid.UUID    `json:"employee_id"`
	Date       string       `json:"date,omitempty"`
	Message    string       `json:"message"`
	ShiftIDs   []uuid.UUID  `json:"shift_ids,omitempty"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinBreakHours     float64 // 最小休息时间（小时）
	MaxHoursPerDay    float64 // 日工时上限
	CheckSkills       bool
	CheckAvailability bool
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinBreakHours:     8,
		MaxHoursPerDay:    12,
		CheckSkills:       true,
		CheckAvailability: true,
	}
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// Schedule 待检测的排班表快照
type Schedule struct {
	Employees []*model.Employee
	Shifts    []*model.Shift
	Windows   []*model.AvailabilityWindow
}

// DetectAll 检测排班表中的全部冲突
// 输出按员工 ID 与冲突类型稳定排序
func (d *ConflictDetector) DetectAll(schedule *Schedule) []Conflict {
	empMap := make(map[uuid.UUID]*model.Employee)
	for _, e := range schedule.Employees {
		empMap[e.ID] = e
	}
	windowsByEmp := make(map[uuid.UUID][]*model.AvailabilityWindow)
	for _, w := range schedule.Windows {
		windowsByEmp[w.EmployeeID] = append(windowsByEmp[w.EmployeeID], w)
	}

	byEmployee := make(map[uuid.UUID][]*model.Shift)
	for _, s := range schedule.Shifts {
		for _, empID := range s.AssignedIDs {
			byEmployee[empID] = append(byEmployee[empID], s)
		}
	}

	var conflicts []Conflict
	for empID, shifts := range byEmployee {
		emp := empMap[empID]
		if emp == nil {
			continue
		}
		sortShiftsByStart(shifts)

		conflicts = append(conflicts, d.detectOverlaps(emp, shifts)...)
		conflicts = append(conflicts, d.detectRestViolations(emp, shifts)...)
		conflicts = append(conflicts, d.detectDailyHourViolations(emp, shifts)...)
		if d.config.CheckSkills {
			conflicts = append(conflicts, d.detectSkillMismatches(emp, shifts)...)
		}
		if d.config.CheckAvailability {
			conflicts = append(conflicts, d.detectAvailabilityViolations(emp, shifts, windowsByEmp[empID])...)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.EmployeeID != b.EmployeeID {
			return strings.Compare(a.EmployeeID.String(), b.EmployeeID.String()) < 0
		}
		return a.Type < b.Type
	})
	return conflicts
}

// DetectForShift 检测把某个班次交给某名员工是否与其现有排班冲突
func (d *ConflictDetector) DetectForShift(emp *model.Employee, candidate *model.Shift, assigned []*model.Shift) []Conflict {
	var conflicts []Conflict
	for _, existing := range assigned {
		if existing.ID == candidate.ID {
			continue
		}
		if candidate.Range().Overlaps(existing.Range()) {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictOverlap,
				Severity:   SeverityError,
				EmployeeID: emp.ID,
				Date:       candidate.Start.Format("2006-01-02"),
				Message:    fmt.Sprintf("班次 %s 与 %s 时间重叠", candidate.Title, existing.Title),
				ShiftIDs:   []uuid.UUID{candidate.ID, existing.ID},
			})
			continue
		}
		if gap := candidate.Range().Gap(existing.Range()).Hours(); gap < d.config.MinBreakHours {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictRestTime,
				Severity:   SeverityWarning,
				EmployeeID: emp.ID,
				Date:       candidate.Start.Format("2006-01-02"),
				Message:    fmt.Sprintf("班次 %s 与 %s 之间仅 %.1f 小时休息", candidate.Title, existing.Title, gap),
				ShiftIDs:   []uuid.UUID{candidate.ID, existing.ID},
			})
		}
	}
	return conflicts
}

// detectOverlaps 检测时间重叠（严重级别 error）
func (d *ConflictDetector) detectOverlaps(emp *model.Employee, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(shifts); i++ {
		for j := i + 1; j < len(shifts); j++ {
			if shifts[i].Range().Overlaps(shifts[j].Range()) {
				conflicts = append(conflicts, Conflict{
					Type:       ConflictOverlap,
					Severity:   SeverityError,
					EmployeeID: emp.ID,
					Date:       shifts[i].Start.Format("2006-01-02"),
					Message:    fmt.Sprintf("班次 %s 与 %s 时间重叠", shifts[i].Title, shifts[j].Title),
					ShiftIDs:   []uuid.UUID{shifts[i].ID, shifts[j].ID},
				})
			}
		}
	}
	return conflicts
}

// detectRestViolations 检测相邻班次的休息间隔（严重级别 warning）
func (d *ConflictDetector) detectRestViolations(emp *model.Employee, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict
	for i := 0; i+1 < len(shifts); i++ {
		cur, next := shifts[i], shifts[i+1]
		if cur.Range().Overlaps(next.Range()) {
			continue
		}
		if gap := cur.Range().Gap(next.Range()).Hours(); gap < d.config.MinBreakHours {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictRestTime,
				Severity:   SeverityWarning,
				EmployeeID: emp.ID,
				Date:       next.Start.Format("2006-01-02"),
				Message:    fmt.Sprintf("班次 %s 与 %s 之间仅 %.1f 小时休息（要求 %.1f 小时）", cur.Title, next.Title, gap, d.config.MinBreakHours),
				ShiftIDs:   []uuid.UUID{cur.ID, next.ID},
			})
		}
	}
	return conflicts
}

// detectDailyHourViolations 检测日工时超限（严重级别 warning）
func (d *ConflictDetector) detectDailyHourViolations(emp *model.Employee, shifts []*model.Shift) []Conflict {
	daily := make(map[string]float64)
	shiftsByDay := make(map[string][]uuid.UUID)
	for _, s := range shifts {
		for _, day := range s.Range().Dates() {
			key := day.Format("2006-01-02")
			daily[key] += s.Range().HoursOnDate(day)
			shiftsByDay[key] = append(shiftsByDay[key], s.ID)
		}
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)

	var conflicts []Conflict
	for _, day := range days {
		if daily[day] > d.config.MaxHoursPerDay {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictDailyHours,
				Severity:   SeverityWarning,
				EmployeeID: emp.ID,
				Date:       day,
				Message:    fmt.Sprintf("%s 工时 %.1f 小时超过上限 %.1f 小时", day, daily[day], d.config.MaxHoursPerDay),
				ShiftIDs:   shiftsByDay[day],
			})
		}
	}
	return conflicts
}

// detectSkillMismatches 检测技能不匹配（严重级别 error）
func (d *ConflictDetector) detectSkillMismatches(emp *model.Employee, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict
	for _, s := range shifts {
		for _, skill := range s.RequiredSkills {
			if !emp.HasSkill(skill) {
				conflicts = append(conflicts, Conflict{
					Type:       ConflictSkill,
					Severity:   SeverityError,
					EmployeeID: emp.ID,
					Date:       s.Start.Format("2006-01-02"),
					Message:    fmt.Sprintf("员工缺少班次 %s 要求的技能 %s", s.Title, skill),
					ShiftIDs:   []uuid.UUID{s.ID},
				})
			}
		}
	}
	return conflicts
}

// detectAvailabilityViolations 检测班次不在可用时间窗口内（严重级别 warning）
// 员工没有任何窗口时不检测
func (d *ConflictDetector) detectAvailabilityViolations(emp *model.Employee, shifts []*model.Shift, windows []*model.AvailabilityWindow) []Conflict {
	if len(windows) == 0 {
		return nil
	}
	var conflicts []Conflict
	for _, s := range shifts {
		if !model.WithinAnyWindow(s.Range(), windows) {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictAvailability,
				Severity:   SeverityWarning,
				EmployeeID: emp.ID,
				Date:       s.Start.Format("2006-01-02"),
				Message:    fmt.Sprintf("班次 %s 不在员工的可用时间窗口内", s.Title),
				ShiftIDs:   []uuid.UUID{s.ID},
			})
		}
	}
	return conflicts
}

// HasErrors 检查冲突列表中是否存在 error 级别的冲突
func HasErrors(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}

func sortShiftsByStart(shifts []*model.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Start.Equal(shifts[j].Start) {
			return shifts[i].Start.Before(shifts[j].Start)
		}
		return strings.Compare(shifts[i].ID.String(), shifts[j].ID.String()) < 0
	})
}
