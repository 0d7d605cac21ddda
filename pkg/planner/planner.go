package planner

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/logger"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// ShiftStatus 单个班次在规划运行中的状态
type ShiftStatus string

const (
	StatusUnprocessed     ShiftStatus = "UNPROCESSED"
	StatusFilling         ShiftStatus = "FILLING"
	StatusFilled          ShiftStatus = "FILLED"
	StatusPartiallyFilled ShiftStatus = "PARTIALLY_FILLED"
)

// RejectedCandidate 被硬约束拒绝的候选
type RejectedCandidate struct {
	EmployeeID uuid.UUID             `json:"employee_id"`
	Code       constraint.ReasonCode `json:"code"`
	Detail     string                `json:"detail,omitempty"`
}

// ShiftDiagnostic 单个班次的规划诊断
type ShiftDiagnostic struct {
	ShiftID       uuid.UUID           `json:"shift_id"`
	Status        ShiftStatus         `json:"status"`
	UnfilledSlots int                 `json:"unfilled_slots"`
	Rejected      []RejectedCandidate `json:"rejected,omitempty"`
}

// Summary 规划运行的汇总统计
type Summary struct {
	TotalAssignedHours float64               `json:"total_assigned_hours"`
	PerEmployeeHours   map[uuid.UUID]float64 `json:"per_employee_hours"`
	FillRatePercent    float64               `json:"fill_rate_percent"`
}

// Result 一次规划运行的输出
type Result struct {
	Assignments []*model.Assignment `json:"assignments"`
	Diagnostics []ShiftDiagnostic   `json:"diagnostics"`
	Summary     Summary             `json:"summary"`
	Duration    time.Duration       `json:"duration"`
}

// Planner 贪心排班规划器
// 无内部状态，可在多个公司的运行之间复用；
// 单次运行的可变状态全部在 constraint.Context 中
type Planner struct {
	cfg     Config
	checker *constraint.Checker
	scorer  *score.Scorer
	log     *logger.PlannerLogger
}

// New 创建规划器，配置非法时返回错误
func New(cfg Config) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{
		cfg:     cfg,
		checker: constraint.NewChecker(cfg.Constraints),
		scorer:  score.NewScorer(cfg.Scoring),
		log:     logger.NewPlannerLogger(),
	}, nil
}

// candidate 评分阶段的内部候选
type candidate struct {
	emp       *model.Employee
	breakdown score.Breakdown
	hours     float64 // 评分时刻的累计工时，用于平分决胜
}

// Plan 执行一次完整的规划运行
//
// 输入非法时立即返回错误，不产生部分输出。
// 无法填满的班次不是错误，以 PARTIALLY_FILLED 诊断形式返回。
// 算法本身没有取消检查点，超时控制由调用方负责并整体丢弃未完成的结果。
func (p *Planner) Plan(input *Input) (*Result, error) {
	start := time.Now()
	if err := input.Validate(p.cfg); err != nil {
		return nil, err
	}

	p.log.StartPlan(input.CompanyID.String(), len(input.Employees), len(input.Shifts))

	ctx := constraint.NewContext(input.CompanyID)
	ctx.SetEmployees(input.Employees)
	ctx.SetShifts(input.Shifts)
	ctx.SetWindows(input.Windows)

	// 候选员工固定按 ID 升序遍历，保证输出可复现
	pool := make([]*model.Employee, 0, len(input.Employees))
	for _, e := range input.Employees {
		if e.Status == "" || e.IsActive() {
			pool = append(pool, e)
		}
	}
	sortEmployeesByID(pool)

	ordered := orderByDifficulty(input.Shifts)

	result := &Result{
		Assignments: make([]*model.Assignment, 0),
		Diagnostics: make([]ShiftDiagnostic, 0, len(ordered)),
	}

	for _, shift := range ordered {
		diag := p.fillShift(ctx, shift, pool, result)
		result.Diagnostics = append(result.Diagnostics, diag)
		if diag.Status == StatusPartiallyFilled {
			p.log.ShiftUnfilled(shift.ID.String(), diag.UnfilledSlots)
		}
	}

	result.Summary = p.summarize(ctx, input)
	result.Duration = time.Since(start)
	p.log.PlanComplete(input.CompanyID.String(), result.Duration, len(result.Assignments), result.Summary.FillRatePercent)
	return result, nil
}

// fillShift 为单个班次填充剩余名额
func (p *Planner) fillShift(ctx *constraint.Context, shift *model.Shift, pool []*model.Employee, result *Result) ShiftDiagnostic {
	diag := ShiftDiagnostic{ShiftID: shift.ID, Status: StatusFilling}

	feasible := make([]candidate, 0)
	for _, emp := range pool {
		if shift.HasAssigned(emp.ID) {
			continue
		}
		if rej := p.checker.IsFeasible(ctx, emp, shift); rej != nil {
			diag.Rejected = append(diag.Rejected, RejectedCandidate{
				EmployeeID: emp.ID,
				Code:       rej.Code,
				Detail:     rej.Detail,
			})
			p.log.CandidateRejected(shift.ID.String(), emp.ID.String(), string(rej.Code))
			continue
		}
		feasible = append(feasible, candidate{
			emp:       emp,
			breakdown: p.scorer.Score(ctx, emp, shift),
			hours:     ctx.EmployeeHours(emp.ID),
		})
	}

	// 总分降序；平分时工时少者优先；仍平分时 ID 字典序小者优先
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

	slots := shift.Capacity - ctx.AssignedCount(shift.ID)
	for i := 0; i < slots && i < len(feasible); i++ {
		c := feasible[i]
		ctx.Assign(c.emp.ID, shift)
		result.Assignments = append(result.Assignments, &model.Assignment{
			BaseModel:  model.NewBaseModel(),
			CompanyID:  shift.CompanyID,
			EmployeeID: c.emp.ID,
			ShiftID:    shift.ID,
			Status:     model.AssignmentPending,
		})
	}

	diag.UnfilledSlots = shift.Capacity - ctx.AssignedCount(shift.ID)
	if diag.UnfilledSlots > 0 {
		diag.Status = StatusPartiallyFilled
	} else {
		diag.Status = StatusFilled
	}
	return diag
}

// summarize 生成运行汇总
func (p *Planner) summarize(ctx *constraint.Context, input *Input) Summary {
	s := Summary{PerEmployeeHours: make(map[uuid.UUID]float64)}
	for _, e := range input.Employees {
		h := ctx.EmployeeHours(e.ID)
		s.PerEmployeeHours[e.ID] = h
		s.TotalAssignedHours += h
	}

	var capacityTotal, assignedTotal int
	for _, shift := range input.Shifts {
		capacityTotal += shift.Capacity
		assignedTotal += ctx.AssignedCount(shift.ID)
	}
	if capacityTotal > 0 {
		s.FillRatePercent = float64(assignedTotal) / float64(capacityTotal) * 100
	}
	return s
}

// orderByDifficulty 按填充难度降序排列班次
// 技能要求多者优先，其次容量大者，再次开始时间早者，最后按 ID 保证全序
func orderByDifficulty(shifts []*model.Shift) []*model.Shift {
	ordered := make([]*model.Shift, len(shifts))
	copy(ordered, shifts)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if len(a.RequiredSkills) != len(b.RequiredSkills) {
			return len(a.RequiredSkills) > len(b.RequiredSkills)
		}
		if a.Capacity != b.Capacity {
			return a.Capacity > b.Capacity
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
	return ordered
}

func sortEmployeesByID(employees []*model.Employee) {
	sort.Slice(employees, func(i, j int) bool {
		return strings.Compare(employees[i].ID.String(), employees[j].ID.String()) < 0
	})
}
