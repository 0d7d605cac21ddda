package swap

import (
	"sort"
	"strings"

	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// Recommendation 顶班候选推荐
type Recommendation struct {
	Employee *model.Employee `json:"employee"`
	Score    float64         `json:"score"`
	Reason   string          `json:"reason"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxResults int     // 最多返回的候选数
	MinScore   float64 // 低于该得分的候选不返回
}

// DefaultRecommendOptions 返回默认推荐选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{
		MaxResults: 5,
		MinScore:   0,
	}
}

// Recommender 顶班候选推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建推荐器
func NewRecommender(constraintCfg constraint.Config, scoreCfg score.Config) *Recommender {
	return &Recommender{
		evaluator: NewEvaluator(constraintCfg, scoreCfg),
	}
}

// RecommendTargets 为某个班次的转出请求推荐可行的接班候选
// 候选按得分降序返回，得分相同按 ID 字典序
func (r *Recommender) RecommendTargets(
	snapshot *Snapshot,
	shift *model.Shift,
	from *model.Employee,
	opts *RecommendOptions,
) []Recommendation {
	if opts == nil {
		opts = DefaultRecommendOptions()
	}

	recommendations := make([]Recommendation, 0)
	for _, emp := range snapshot.Employees {
		if emp.ID == from.ID || !emp.IsActive() || shift.HasAssigned(emp.ID) {
			continue
		}
		req := &Request{Shift: shift, FromEmployee: from, ToEmployee: emp}
		evaluation := r.evaluator.Evaluate(snapshot, req)
		if !evaluation.Feasible {
			continue
		}
		if evaluation.Impact.ToScore < opts.MinScore {
			continue
		}
		recommendations = append(recommendations, Recommendation{
			Employee: emp,
			Score:    evaluation.Impact.ToScore,
			Reason:   evaluation.Recommendation,
		})
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return strings.Compare(
			recommendations[i].Employee.ID.String(),
			recommendations[j].Employee.ID.String()) < 0
	})

	if opts.MaxResults > 0 && len(recommendations) > opts.MaxResults {
		recommendations = recommendations[:opts.MaxResults]
	}
	return recommendations
}

// FindBestTarget 返回得分最高的接班候选，没有可行候选时返回 nil
func (r *Recommender) FindBestTarget(snapshot *Snapshot, shift *model.Shift, from *model.Employee) *Recommendation {
	results := r.RecommendTargets(snapshot, shift, from, &RecommendOptions{MaxResults: 1})
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}
