// Package stats 提供排班结果的统计分析
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	WorkloadGini        float64 `json:"workload_gini"` // 工时基尼系数（0=完全公平）
	WorkloadVariance    float64 `json:"workload_variance"`
	WorkloadStdDev      float64 `json:"workload_std_dev"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`
	HoursRange          float64 `json:"hours_range"`

	NightShiftGini   float64 `json:"night_shift_gini"`
	WeekendShiftGini float64 `json:"weekend_shift_gini"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合公平性评分（0-100）
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// EmployeeStat 单个员工的排班统计
type EmployeeStat struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与人均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	nightShiftStart int // 夜班起算小时
	nightShiftEnd   int // 夜班结束小时
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{
		nightShiftStart: 22,
		nightShiftEnd:   6,
	}
}

// Analyze 分析排班表的公平性
// 只统计出现在 AssignedIDs 中的分配，未分配名额不参与
func (f *FairnessAnalyzer) Analyze(shifts []*model.Shift, employees []*model.Employee) *FairnessMetrics {
	if len(shifts) == 0 || len(employees) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	stats := f.collectEmployeeStats(shifts, employees)

	hours := make([]float64, len(stats))
	nights := make([]float64, len(stats))
	weekends := make([]float64, len(stats))
	for i, s := range stats {
		hours[i] = s.TotalHours
		nights[i] = float64(s.NightShifts)
		weekends[i] = float64(s.WeekendShifts)
	}

	avg := mean(hours)
	variance := varianceOf(hours, avg)
	stdDev := math.Sqrt(variance)
	maxH, minH := rangeOf(hours)

	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (stats[i].TotalHours - avg) / avg * 100
		}
	}

	workloadGini := Gini(hours)
	nightGini := Gini(nights)
	weekendGini := Gini(weekends)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     variance,
		WorkloadStdDev:       stdDev,
		AvgHoursPerEmployee:  avg,
		MaxHours:             maxH,
		MinHours:             minH,
		HoursRange:           maxH - minH,
		NightShiftGini:       nightGini,
		WeekendShiftGini:     weekendGini,
		EmployeeStats:        stats,
		OverallFairnessScore: f.overallScore(workloadGini, nightGini, weekendGini, stdDev, avg),
	}
}

// collectEmployeeStats 汇总每名员工的工时、班次数、夜班与周末班数量
func (f *FairnessAnalyzer) collectEmployeeStats(shifts []*model.Shift, employees []*model.Employee) []EmployeeStat {
	statMap := make(map[uuid.UUID]*EmployeeStat)
	for _, e := range employees {
		statMap[e.ID] = &EmployeeStat{EmployeeID: e.ID, EmployeeName: e.Name}
	}

	for _, shift := range shifts {
		for _, empID := range shift.AssignedIDs {
			stat, ok := statMap[empID]
			if !ok {
				continue
			}
			stat.TotalHours += shift.DurationHours()
			stat.ShiftCount++
			if f.isNightShift(shift) {
				stat.NightShifts++
			}
			if isWeekend(shift.Start) {
				stat.WeekendShifts++
			}
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, s := range statMap {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].EmployeeID.String() < result[j].EmployeeID.String()
	})
	return result
}

// isNightShift 开始时间在 22 点后或结束时间在 6 点前视为夜班
func (f *FairnessAnalyzer) isNightShift(shift *model.Shift) bool {
	return shift.Start.Hour() >= f.nightShiftStart || shift.End.Hour() <= f.nightShiftEnd
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// overallScore 综合公平性评分
func (f *FairnessAnalyzer) overallScore(workloadGini, nightGini, weekendGini, stdDev, avg float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avg > 0 {
		cv := stdDev / avg
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// Gini 计算基尼系数，结果在 [0,1] 内
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func rangeOf(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}
