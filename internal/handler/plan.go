package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dingban/dingban/internal/config"
	"github.com/dingban/dingban/internal/metrics"
	"github.com/dingban/dingban/internal/tenant"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/planner"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
)

// PlanHandler 排班规划处理器
type PlanHandler struct {
	cfg     *config.Config
	tenants *tenant.Manager
}

// NewPlanHandler 创建排班规划处理器
func NewPlanHandler(cfg *config.Config, tenants *tenant.Manager) *PlanHandler {
	return &PlanHandler{cfg: cfg, tenants: tenants}
}

// RunRequest 规划运行请求
// Config 为空时使用服务端默认规划参数
type RunRequest struct {
	CompanyID string           `json:"company_id" validate:"required,uuid"`
	Employees []EmployeeInput  `json:"employees" validate:"required,min=1,dive"`
	Shifts    []ShiftInput     `json:"shifts" validate:"required,min=1,dive"`
	Windows   []WindowInput    `json:"windows,omitempty" validate:"dive"`
	Config    *PlannerOverride `json:"config,omitempty"`
}

// PlannerOverride 单次运行的规划参数覆盖
// 指针字段为空表示沿用服务端配置
type PlannerOverride struct {
	MinBreakHours       *float64 `json:"min_break_hours,omitempty" validate:"omitempty,gte=0"`
	MaxHoursPerDay      *float64 `json:"max_hours_per_day,omitempty" validate:"omitempty,gt=0"`
	AvailabilityPenalty *float64 `json:"availability_penalty,omitempty" validate:"omitempty,gte=0"`
	WeightFairness      *float64 `json:"weight_fairness,omitempty" validate:"omitempty,gte=0"`
	WeightAvailability  *float64 `json:"weight_availability,omitempty" validate:"omitempty,gte=0"`
	WeightReliability   *float64 `json:"weight_reliability,omitempty" validate:"omitempty,gte=0"`
	WeightSkillQuality  *float64 `json:"weight_skill_quality,omitempty" validate:"omitempty,gte=0"`
	WeightClustering    *float64 `json:"weight_clustering,omitempty" validate:"omitempty,gte=0"`
}

// RunResponse 规划运行响应
type RunResponse struct {
	Success     bool                      `json:"success"`
	Partial     bool                      `json:"partial,omitempty"` // 是否存在未满员班次
	Assignments []AssignmentOutput        `json:"assignments"`
	Diagnostics []planner.ShiftDiagnostic `json:"diagnostics"`
	Summary     SummaryOutput             `json:"summary"`
	Duration    string                    `json:"duration"`
}

// AssignmentOutput 分配输出
type AssignmentOutput struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
	Status     string `json:"status"`
}

// SummaryOutput 汇总输出
type SummaryOutput struct {
	TotalAssignedHours float64            `json:"total_assigned_hours"`
	PerEmployeeHours   map[string]float64 `json:"per_employee_hours"`
	FillRatePercent    float64            `json:"fill_rate_percent"`
}

// Run 执行一次规划运行
//
// 同一公司在任意时刻只允许一次运行，冲突时返回409。
// 超时由本层控制，超时的运行结果整体丢弃。
func (h *PlanHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req RunRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的公司ID格式"))
		return
	}

	p, appErr := h.newPlanner(req.Config)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	if err := h.tenants.TryAcquireRun(companyID); err != nil {
		respondError(w, err)
		return
	}
	defer h.tenants.ReleaseRun(companyID)

	input := &planner.Input{
		CompanyID: companyID,
		Employees: toModelEmployees(req.Employees),
		Shifts:    toModelShifts(companyID, req.Shifts),
		Windows:   toModelWindows(companyID, req.Windows),
	}

	start := time.Now()
	result, err := h.runWithTimeout(p, input)
	metrics.RecordPlanRun(companyID.String(), err == nil, time.Since(start))
	if err != nil {
		respondError(w, err)
		return
	}
	metrics.SetFillRate(companyID.String(), result.Summary.FillRatePercent)

	assignments := make([]AssignmentOutput, len(result.Assignments))
	for i, a := range result.Assignments {
		assignments[i] = AssignmentOutput{
			ID:         a.ID.String(),
			EmployeeID: a.EmployeeID.String(),
			ShiftID:    a.ShiftID.String(),
			Status:     string(a.Status),
		}
	}

	perEmployee := make(map[string]float64, len(result.Summary.PerEmployeeHours))
	for id, hours := range result.Summary.PerEmployeeHours {
		perEmployee[id.String()] = hours
	}

	partial := false
	for _, d := range result.Diagnostics {
		if d.Status == planner.StatusPartiallyFilled {
			partial = true
			break
		}
	}

	respondJSON(w, http.StatusOK, RunResponse{
		Success:     true,
		Partial:     partial,
		Assignments: assignments,
		Diagnostics: result.Diagnostics,
		Summary: SummaryOutput{
			TotalAssignedHours: result.Summary.TotalAssignedHours,
			PerEmployeeHours:   perEmployee,
			FillRatePercent:    result.Summary.FillRatePercent,
		},
		Duration: result.Duration.String(),
	})
}

// SuggestRequest 候选推荐请求
type SuggestRequest struct {
	CompanyID string          `json:"company_id" validate:"required,uuid"`
	ShiftID   string          `json:"shift_id" validate:"required,uuid"`
	TopN      int             `json:"top_n,omitempty" validate:"omitempty,min=1,max=50"`
	Employees []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Shifts    []ShiftInput    `json:"shifts" validate:"required,min=1,dive"`
	Windows   []WindowInput   `json:"windows,omitempty" validate:"dive"`
}

// Suggest 为指定班次推荐候选员工，不提交任何分配
func (h *PlanHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req SuggestRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的公司ID格式"))
		return
	}
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的班次ID格式"))
		return
	}

	p, appErr := h.newPlanner(nil)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	input := &planner.Input{
		CompanyID: companyID,
		Employees: toModelEmployees(req.Employees),
		Shifts:    toModelShifts(companyID, req.Shifts),
		Windows:   toModelWindows(companyID, req.Windows),
	}

	result, err := p.Suggest(input, shiftID, req.TopN)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// runWithTimeout 在超时限制下执行规划
// 算法内部没有取消点，超时后后台运行自然结束，结果被丢弃
func (h *PlanHandler) runWithTimeout(p *planner.Planner, input *planner.Input) (*planner.Result, error) {
	timeout := h.cfg.Planner.RunTimeout
	if timeout <= 0 {
		return p.Plan(input)
	}

	type outcome struct {
		result *planner.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := p.Plan(input)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-time.After(timeout):
		return nil, errors.New(errors.CodeTimeout, "规划运行超时，请减少员工或班次数量")
	}
}

// newPlanner 由服务端配置与请求覆盖构建规划器
func (h *PlanHandler) newPlanner(override *PlannerOverride) (*planner.Planner, *errors.AppError) {
	cfg := h.plannerConfig()
	if override != nil {
		applyOverride(&cfg, override)
	}

	p, err := planner.New(cfg)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "规划参数无效")
	}
	return p, nil
}

// plannerConfig 把服务端配置映射为规划参数
func (h *PlanHandler) plannerConfig() planner.Config {
	pc := h.cfg.Planner
	return planner.Config{
		Constraints: constraint.Config{
			MinBreakHours:  pc.MinBreakHours,
			MaxHoursPerDay: pc.MaxHoursPerDay,
		},
		Scoring: score.Config{
			Weights: score.Weights{
				Fairness:          pc.WeightFairness,
				AvailabilityMatch: pc.WeightAvailability,
				Reliability:       pc.WeightReliability,
				SkillQuality:      pc.WeightSkillQuality,
				Clustering:        pc.WeightClustering,
			},
			AvailabilityPenalty: pc.AvailabilityPenalty,
			ClusterDistanceKm:   pc.ClusterDistanceKm,
			AdjacentGapHours:    pc.AdjacentGapHours,
		},
		SkillVocabulary: pc.SkillVocabulary,
	}
}

func applyOverride(cfg *planner.Config, o *PlannerOverride) {
	if o.MinBreakHours != nil {
		cfg.Constraints.MinBreakHours = *o.MinBreakHours
	}
	if o.MaxHoursPerDay != nil {
		cfg.Constraints.MaxHoursPerDay = *o.MaxHoursPerDay
	}
	if o.AvailabilityPenalty != nil {
		cfg.Scoring.AvailabilityPenalty = *o.AvailabilityPenalty
	}
	if o.WeightFairness != nil {
		cfg.Scoring.Weights.Fairness = *o.WeightFairness
	}
	if o.WeightAvailability != nil {
		cfg.Scoring.Weights.AvailabilityMatch = *o.WeightAvailability
	}
	if o.WeightReliability != nil {
		cfg.Scoring.Weights.Reliability = *o.WeightReliability
	}
	if o.WeightSkillQuality != nil {
		cfg.Scoring.Weights.SkillQuality = *o.WeightSkillQuality
	}
	if o.WeightClustering != nil {
		cfg.Scoring.Weights.Clustering = *o.WeightClustering
	}
}
