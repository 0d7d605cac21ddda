package planner

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// Suggestion 单个候选的推荐结果
type Suggestion struct {
	EmployeeID uuid.UUID       `json:"employee_id"`
	Name       string          `json:"name"`
	Breakdown  score.Breakdown `json:"breakdown"`
}

// SuggestResult 单个班次的候选推荐
type SuggestResult struct {
	ShiftID     uuid.UUID           `json:"shift_id"`
	Suggestions []Suggestion        `json:"suggestions"`
	Rejected    []RejectedCandidate `json:"rejected,omitempty"`
}

// Suggest 为指定班次推荐得分最高的 topN 名可行候选
// 不提交任何分配，仅供管理员手工排班时参考
func (p *Planner) Suggest(input *Input, shiftID uuid.UUID, topN int) (*SuggestResult, error) {
	if err := input.Validate(p.cfg); err != nil {
		return nil, err
	}

	ctx := constraint.NewContext(input.CompanyID)
	ctx.SetEmployees(input.Employees)
	ctx.SetShifts(input.Shifts)
	ctx.SetWindows(input.Windows)

	shift := ctx.GetShift(shiftID)
	if shift == nil {
		return nil, errors.NotFound("班次", shiftID.String())
	}

	pool := make([]*model.Employee, 0, len(input.Employees))
	for _, e := range input.Employees {
		if e.Status == "" || e.IsActive() {
			pool = append(pool, e)
		}
	}
	sortEmployeesByID(pool)

	result := &SuggestResult{ShiftID: shiftID, Suggestions: make([]Suggestion, 0)}
	feasible := make([]candidate, 0)
	for _, emp := range pool {
		if shift.HasAssigned(emp.ID) {
			continue
		}
		if rej := p.checker.IsFeasible(ctx, emp, shift); rej != nil {
			result.Rejected = append(result.Rejected, RejectedCandidate{
				EmployeeID: emp.ID,
				Code:       rej.Code,
				Detail:     rej.Detail,
			})
			continue
		}
		feasible = append(feasible, candidate{
			emp:       emp,
			breakdown: p.scorer.Score(ctx, emp, shift),
			hours:     ctx.EmployeeHours(emp.ID),
		})
	}

	sort.Slice(feasible, func(i, j int) bool {
		a, b := feasible[i], feasible[j]
		if a.breakdown.Total != b.breakdown.Total {
			return a.breakdown.Total > b.breakdown.Total
		}
		if a.hours != b.hours {
			return a.hours < b.hours
		}
		return strings.Compare(a.emp.ID.String(), b.emp.ID.String()) < 0
	})

	if topN < 1 {
		topN = 5
	}
	for i := 0; i < topN && i < len(feasible); i++ {
		result.Suggestions = append(result.Suggestions, Suggestion{
			EmployeeID: feasible[i].emp.ID,
			Name:       feasible[i].emp.Name,
			Breakdown:  feasible[i].breakdown,
		})
	}
	return result, nil
}
