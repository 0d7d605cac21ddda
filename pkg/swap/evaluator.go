// Package swap 提供换班/顶班的可行性评估与候选推荐
package swap

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// Request 换班请求
// ExchangeShift 为空时是单向顶班，非空时是双向互换
type Request struct {
	Shift         *model.Shift    `json:"shift"`          // 转出的班次
	FromEmployee  *model.Employee `json:"from_employee"`  // 原班员工
	ToEmployee    *model.Employee `json:"to_employee"`    // 接班员工
	ExchangeShift *model.Shift    `json:"exchange_shift"` // 互换时接班员工转出的班次
}

// Issue 评估中发现的问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Impact 换班对双方工时的影响
type Impact struct {
	FromHoursChange float64 `json:"from_hours_change"`
	ToHoursChange   float64 `json:"to_hours_change"`
	ToScore         float64 `json:"to_score"` // 接班员工对该班次的软约束得分
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible       bool    `json:"feasible"`
	Issues         []Issue `json:"issues"`
	Impact         Impact  `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// Evaluator 换班评估器
// 复用规划阶段的硬约束检查与软约束评分
type Evaluator struct {
	checker *constraint.Checker
	scorer  *score.Scorer
}

// NewEvaluator 创建换班评估器
func NewEvaluator(constraintCfg constraint.Config, scoreCfg score.Config) *Evaluator {
	return &Evaluator{
		checker: constraint.NewChecker(constraintCfg),
		scorer:  score.NewScorer(scoreCfg),
	}
}

// Evaluate 评估一次换班请求
//
// 在模拟执行换班后的排班状态上做硬约束检查，
// 硬约束违规使评估不可行，软约束只影响建议文案
func (e *Evaluator) Evaluate(snapshot *Snapshot, req *Request) *Evaluation {
	result := &Evaluation{Feasible: true, Issues: make([]Issue, 0)}

	if req == nil || req.Shift == nil || req.FromEmployee == nil || req.ToEmployee == nil {
		return e.reject(result, "invalid_request", "换班请求缺少必要字段")
	}
	if req.FromEmployee.ID == req.ToEmployee.ID {
		return e.reject(result, "invalid_request", "接班员工不能是原班员工")
	}
	if !req.Shift.HasAssigned(req.FromEmployee.ID) {
		return e.reject(result, "not_assigned", "原班员工未被分配到该班次")
	}
	if !req.ToEmployee.IsActive() {
		return e.reject(result, "employee_inactive", "接班员工不在职")
	}
	if req.ExchangeShift != nil && !req.ExchangeShift.HasAssigned(req.ToEmployee.ID) {
		return e.reject(result, "not_assigned", "接班员工未被分配到互换班次")
	}

	// 在换班已经发生的模拟状态上检查接班方向
	simCtx := e.simulate(snapshot, req)
	simShift := simCtx.GetShift(req.Shift.ID)
	if rej := e.checker.IsFeasible(simCtx, req.ToEmployee, simShift); rej != nil {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type:     string(rej.Code),
			Severity: "error",
			Message:  rej.Detail,
		})
	}
	if req.ExchangeShift != nil {
		simExchange := simCtx.GetShift(req.ExchangeShift.ID)
		if rej := e.checker.IsFeasible(simCtx, req.FromEmployee, simExchange); rej != nil {
			result.Feasible = false
			result.Issues = append(result.Issues, Issue{
				Type:     string(rej.Code),
				Severity: "error",
				Message:  fmt.Sprintf("反向换班不可行: %s", rej.Detail),
			})
		}
	}

	result.Impact = e.impact(req, simCtx)
	result.Recommendation = e.recommendation(result)
	return result
}

// CanSwap 快速检查换班是否可行
func (e *Evaluator) CanSwap(snapshot *Snapshot, req *Request) (bool, string) {
	result := e.Evaluate(snapshot, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行换班"
	}
	return true, ""
}

// Snapshot 评估所用的排班快照
type Snapshot struct {
	CompanyID uuid.UUID
	Employees []*model.Employee
	Shifts    []*model.Shift
	Windows   []*model.AvailabilityWindow
}

// simulate 构建换班已执行后的规划状态
// 被影响的班次做浅拷贝，不改动调用方的数据
func (e *Evaluator) simulate(snapshot *Snapshot, req *Request) *constraint.Context {
	shifts := make([]*model.Shift, 0, len(snapshot.Shifts))
	for _, s := range snapshot.Shifts {
		switch {
		case s.ID == req.Shift.ID:
			shifts = append(shifts, withoutAssignee(s, req.FromEmployee.ID))
		case req.ExchangeShift != nil && s.ID == req.ExchangeShift.ID:
			shifts = append(shifts, withoutAssignee(s, req.ToEmployee.ID))
		default:
			shifts = append(shifts, s)
		}
	}

	ctx := constraint.NewContext(snapshot.CompanyID)
	ctx.SetEmployees(snapshot.Employees)
	ctx.SetShifts(shifts)
	ctx.SetWindows(snapshot.Windows)
	return ctx
}

func withoutAssignee(s *model.Shift, empID uuid.UUID) *model.Shift {
	clone := *s
	clone.AssignedIDs = make([]uuid.UUID, 0, len(s.AssignedIDs))
	for _, id := range s.AssignedIDs {
		if id != empID {
			clone.AssignedIDs = append(clone.AssignedIDs, id)
		}
	}
	return &clone
}

// impact 计算换班对双方工时的影响及接班方的软约束得分
func (e *Evaluator) impact(req *Request, simCtx *constraint.Context) Impact {
	hours := req.Shift.DurationHours()
	impact := Impact{
		FromHoursChange: -hours,
		ToHoursChange:   hours,
	}
	if req.ExchangeShift != nil {
		exchange := req.ExchangeShift.DurationHours()
		impact.FromHoursChange += exchange
		impact.ToHoursChange -= exchange
	}
	if simShift := simCtx.GetShift(req.Shift.ID); simShift != nil {
		impact.ToScore = e.scorer.Score(simCtx, req.ToEmployee, simShift).Total
	}
	return impact
}

func (e *Evaluator) recommendation(result *Evaluation) string {
	if !result.Feasible {
		return "不建议进行此换班，存在硬约束冲突"
	}
	switch {
	case result.Impact.ToScore >= 0.7:
		return "推荐，接班员工与该班次匹配良好"
	case result.Impact.ToScore >= 0.4:
		return "可以进行，匹配度一般"
	default:
		return "谨慎进行，接班员工与该班次匹配度较低"
	}
}

func (e *Evaluator) reject(result *Evaluation, typ, message string) *Evaluation {
	result.Feasible = false
	result.Issues = append(result.Issues, Issue{Type: typ, Severity: "error", Message: message})
	result.Recommendation = "不建议进行此换班，存在硬约束冲突"
	return result
}
