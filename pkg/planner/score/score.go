// Package score 实现候选分配的软约束加权评分
package score

import (
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
)

// 防止全员工时相等时除零
const epsilon = 1e-9

// Weights 软约束权重
// 各项权重不必归一化，评分只需要一致的相对排序
type Weights struct {
	Fairness          float64 `json:"fairness"`
	AvailabilityMatch float64 `json:"availability_match"`
	Reliability       float64 `json:"reliability"`
	SkillQuality      float64 `json:"skill_quality"`
	Clustering        float64 `json:"clustering"`
}

// DefaultWeights 返回默认权重
func DefaultWeights() Weights {
	return Weights{
		Fairness:          0.25,
		AvailabilityMatch: 0.30,
		Reliability:       0.25,
		SkillQuality:      0.15,
		Clustering:        0.05,
	}
}

// Config 评分参数
type Config struct {
	Weights Weights

	// 班次不严格位于可用窗口内部时的扣分比例
	AvailabilityPenalty float64

	// 聚类评分的位置距离阈值（公里）
	ClusterDistanceKm float64

	// 聚类评分的时间相邻阈值（小时）
	AdjacentGapHours float64
}

// DefaultConfig 返回默认评分参数
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeights(),
		AvailabilityPenalty: 0.3,
		ClusterDistanceKm:   5,
		AdjacentGapHours:    2,
	}
}

// Breakdown 单个候选的评分明细
type Breakdown struct {
	Fairness          float64 `json:"fairness"`
	AvailabilityMatch float64 `json:"availability_match"`
	Reliability       float64 `json:"reliability"`
	SkillQuality      float64 `json:"skill_quality"`
	Clustering        float64 `json:"clustering"`
	Total             float64 `json:"total"`
}

// Scorer 候选评分器
type Scorer struct {
	cfg Config
}

// NewScorer 创建评分器
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score 计算候选分配的加权总分及各项明细
func (s *Scorer) Score(ctx *constraint.Context, emp *model.Employee, shift *model.Shift) Breakdown {
	b := Breakdown{
		Fairness:          s.fairness(ctx, emp, shift),
		AvailabilityMatch: s.availabilityMatch(ctx, emp, shift),
		Reliability:       emp.Reliability(),
		SkillQuality:      emp.ExperienceFor(shift.ShiftType),
		Clustering:        s.clustering(ctx, emp, shift),
	}
	w := s.cfg.Weights
	b.Total = b.Fairness*w.Fairness +
		b.AvailabilityMatch*w.AvailabilityMatch +
		b.Reliability*w.Reliability +
		b.SkillQuality*w.SkillQuality +
		b.Clustering*w.Clustering
	return b
}

// fairness 公平性评分：工时越少的员工得分越高
// 按分配后的预计工时相对全员工时区间归一化
func (s *Scorer) fairness(ctx *constraint.Context, emp *model.Employee, shift *model.Shift) float64 {
	min, max := ctx.HoursBounds()
	projected := ctx.EmployeeHours(emp.ID) + shift.DurationHours()
	score := 1 - (projected-min)/(max-min+epsilon)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// availabilityMatch 可用时间匹配评分
// 班次严格位于某个窗口内部得满分，仅贴边或超出则扣分
// 扣分结果可为负值，拉低总分但不淘汰候选
func (s *Scorer) availabilityMatch(ctx *constraint.Context, emp *model.Employee, shift *model.Shift) float64 {
	windows := ctx.EmployeeWindows(emp.ID)
	if model.StrictlyInsideAnyWindow(shift.Range(), windows) {
		return 1
	}
	return -s.cfg.AvailabilityPenalty
}

// clustering 聚类评分：与本次运行中已分配的班次位置相近或时间相邻得满分
func (s *Scorer) clustering(ctx *constraint.Context, emp *model.Employee, shift *model.Shift) float64 {
	candidate := shift.Range()
	for _, assigned := range ctx.EmployeeShifts(emp.ID) {
		if assigned.ID == shift.ID {
			continue
		}
		if shift.Location != nil && assigned.Location != nil &&
			shift.Location.Distance(*assigned.Location) <= s.cfg.ClusterDistanceKm {
			return 1
		}
		if candidate.Gap(assigned.Range()).Hours() <= s.cfg.AdjacentGapHours {
			return 1
		}
	}
	return 0
}
