// Package planner 实现确定性的贪心排班分配算法
//
// 规划运行是单线程的纯内存计算，评分与校验过程中不做任何 I/O。
// 同一公司的并发运行必须由调用方串行化（见 internal/tenant 的运行锁），
// 不同公司的运行互不影响，可以并行。
package planner

import (
	"fmt"

	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// Config 规划运行参数
type Config struct {
	Constraints constraint.Config `json:"constraints"`
	Scoring     score.Config      `json:"scoring"`

	// 技能词表（可选）
	// 非空时，输入中引用的技能名必须在词表内
	SkillVocabulary []string `json:"skill_vocabulary,omitempty"`
}

// DefaultConfig 返回默认规划参数
func DefaultConfig() Config {
	return Config{
		Constraints: constraint.DefaultConfig(),
		Scoring:     score.DefaultConfig(),
	}
}

// Validate 校验规划参数
// 参数越界在任何班次处理之前拒绝
func (c Config) Validate() error {
	if c.Constraints.MinBreakHours < 0 {
		return errors.InvalidConfig("min_break_hours",
			fmt.Sprintf("不能为负数（当前 %.1f）", c.Constraints.MinBreakHours))
	}
	if c.Constraints.MaxHoursPerDay <= 0 {
		return errors.InvalidConfig("max_hours_per_day",
			fmt.Sprintf("必须大于 0（当前 %.1f）", c.Constraints.MaxHoursPerDay))
	}
	w := c.Scoring.Weights
	for _, item := range []struct {
		name  string
		value float64
	}{
		{"weights.fairness", w.Fairness},
		{"weights.availability_match", w.AvailabilityMatch},
		{"weights.reliability", w.Reliability},
		{"weights.skill_quality", w.SkillQuality},
		{"weights.clustering", w.Clustering},
	} {
		if item.value < 0 {
			return errors.InvalidConfig(item.name, fmt.Sprintf("权重不能为负数（当前 %.2f）", item.value))
		}
	}
	if c.Scoring.AvailabilityPenalty < 0 {
		return errors.InvalidConfig("availability_penalty",
			fmt.Sprintf("不能为负数（当前 %.2f）", c.Scoring.AvailabilityPenalty))
	}
	if c.Scoring.ClusterDistanceKm < 0 {
		return errors.InvalidConfig("cluster_distance_km",
			fmt.Sprintf("不能为负数（当前 %.1f）", c.Scoring.ClusterDistanceKm))
	}
	if c.Scoring.AdjacentGapHours < 0 {
		return errors.InvalidConfig("adjacent_gap_hours",
			fmt.Sprintf("不能为负数（当前 %.1f）", c.Scoring.AdjacentGapHours))
	}
	return nil
}

func (c Config) skillKnown(skill string) bool {
	if len(c.SkillVocabulary) == 0 {
		return true
	}
	for _, s := range c.SkillVocabulary {
		if s == skill {
			return true
		}
	}
	return false
}
