package stats

import (
	"sort"

	"github.com/dingban/dingban/pkg/model"
)

// CoverageMetrics 覆盖率指标
// 覆盖率按名额计算：一个容量 3 只分配了 2 人的班次贡献 2/3
type CoverageMetrics struct {
	TotalSlots      int     `json:"total_slots"`      // 总需求名额
	AssignedSlots   int     `json:"assigned_slots"`   // 已分配名额
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率（%）

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"` // 按日期
	SkillCoverage map[string]float64     `json:"skill_coverage"` // 按技能要求

	UncoveredShifts []UncoveredShift `json:"uncovered_shifts"` // 未填满的班次
}

// DayCoverage 单日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSlots   int     `json:"total_slots"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"` // 当日已分配工时
}

// UncoveredShift 未填满的班次
type UncoveredShift struct {
	ShiftID        string   `json:"shift_id"`
	Title          string   `json:"title"`
	Date           string   `json:"date"`
	Missing        int      `json:"missing"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析排班表的覆盖率
func (c *CoverageAnalyzer) Analyze(shifts []*model.Shift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:   make(map[string]DayCoverage),
		SkillCoverage:   make(map[string]float64),
		UncoveredShifts: make([]UncoveredShift, 0),
	}
	if len(shifts) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	dailySlots := make(map[string]int)
	dailyAssigned := make(map[string]int)
	dailyHours := make(map[string]float64)
	skillSlots := make(map[string]int)
	skillAssigned := make(map[string]int)

	for _, shift := range shifts {
		assigned := shift.AssignedCount()
		if assigned > shift.Capacity {
			assigned = shift.Capacity
		}
		metrics.TotalSlots += shift.Capacity
		metrics.AssignedSlots += assigned

		day := shift.Start.Format("2006-01-02")
		dailySlots[day] += shift.Capacity
		dailyAssigned[day] += assigned
		dailyHours[day] += float64(assigned) * shift.DurationHours()

		for _, skill := range shift.RequiredSkills {
			skillSlots[skill] += shift.Capacity
			skillAssigned[skill] += assigned
		}

		if missing := shift.Capacity - assigned; missing > 0 {
			metrics.UncoveredShifts = append(metrics.UncoveredShifts, UncoveredShift{
				ShiftID:        shift.ID.String(),
				Title:          shift.Title,
				Date:           day,
				Missing:        missing,
				RequiredSkills: shift.RequiredSkills,
			})
		}
	}

	if metrics.TotalSlots > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedSlots) / float64(metrics.TotalSlots) * 100
	}

	for day, slots := range dailySlots {
		dc := DayCoverage{
			Date:       day,
			TotalSlots: slots,
			Assigned:   dailyAssigned[day],
			TotalHours: dailyHours[day],
		}
		if slots > 0 {
			dc.CoverageRate = float64(dc.Assigned) / float64(slots) * 100
		}
		metrics.DailyCoverage[day] = dc
	}

	for skill, slots := range skillSlots {
		if slots > 0 {
			metrics.SkillCoverage[skill] = float64(skillAssigned[skill]) / float64(slots) * 100
		}
	}

	sort.Slice(metrics.UncoveredShifts, func(i, j int) bool {
		if metrics.UncoveredShifts[i].Date != metrics.UncoveredShifts[j].Date {
			return metrics.UncoveredShifts[i].Date < metrics.UncoveredShifts[j].Date
		}
		return metrics.UncoveredShifts[i].ShiftID < metrics.UncoveredShifts[j].ShiftID
	})
	return metrics
}
