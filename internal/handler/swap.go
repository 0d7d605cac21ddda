package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dingban/dingban/internal/config"
	"github.com/dingban/dingban/internal/metrics"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
	"github.com/dingban/dingban/pkg/planner/constraint"
	"github.com/dingban/dingban/pkg/planner/score"
	"github.com/dingban/dingban/pkg/swap"
)

// SwapHandler 换班处理器
type SwapHandler struct {
	cfg *config.Config
}

// NewSwapHandler 创建换班处理器
func NewSwapHandler(cfg *config.Config) *SwapHandler {
	return &SwapHandler{cfg: cfg}
}

// EvaluateRequest 换班评估请求
// ExchangeShiftID 为空时是单向顶班，非空时是双向互换
type EvaluateRequest struct {
	CompanyID       string          `json:"company_id" validate:"required,uuid"`
	ShiftID         string          `json:"shift_id" validate:"required,uuid"`
	FromEmployeeID  string          `json:"from_employee_id" validate:"required,uuid"`
	ToEmployeeID    string          `json:"to_employee_id" validate:"required,uuid"`
	ExchangeShiftID string          `json:"exchange_shift_id,omitempty" validate:"omitempty,uuid"`
	Employees       []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Shifts          []ShiftInput    `json:"shifts" validate:"required,min=1,dive"`
	Windows         []WindowInput   `json:"windows,omitempty" validate:"dive"`
}

// Evaluate 评估一次换班请求的可行性与影响
func (h *SwapHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req EvaluateRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	snapshot, appErr := h.buildSnapshot(req.CompanyID, req.Employees, req.Shifts, req.Windows)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	shift := findShift(snapshot.Shifts, req.ShiftID)
	if shift == nil {
		respondError(w, errors.NotFound("班次", req.ShiftID))
		return
	}
	from := findEmployee(snapshot.Employees, req.FromEmployeeID)
	if from == nil {
		respondError(w, errors.NotFound("员工", req.FromEmployeeID))
		return
	}
	to := findEmployee(snapshot.Employees, req.ToEmployeeID)
	if to == nil {
		respondError(w, errors.NotFound("员工", req.ToEmployeeID))
		return
	}

	swapReq := &swap.Request{Shift: shift, FromEmployee: from, ToEmployee: to}
	if req.ExchangeShiftID != "" {
		exchange := findShift(snapshot.Shifts, req.ExchangeShiftID)
		if exchange == nil {
			respondError(w, errors.NotFound("班次", req.ExchangeShiftID))
			return
		}
		swapReq.ExchangeShift = exchange
	}

	evaluator := swap.NewEvaluator(h.constraintConfig(), h.scoreConfig())
	evaluation := evaluator.Evaluate(snapshot, swapReq)
	metrics.RecordSwapEvaluation(evaluation.Feasible)

	respondJSON(w, http.StatusOK, evaluation)
}

// RecommendRequest 顶班候选推荐请求
type RecommendRequest struct {
	CompanyID      string          `json:"company_id" validate:"required,uuid"`
	ShiftID        string          `json:"shift_id" validate:"required,uuid"`
	FromEmployeeID string          `json:"from_employee_id" validate:"required,uuid"`
	MaxResults     int             `json:"max_results,omitempty" validate:"omitempty,min=1,max=50"`
	MinScore       float64         `json:"min_score,omitempty"`
	Employees      []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Shifts         []ShiftInput    `json:"shifts" validate:"required,min=1,dive"`
	Windows        []WindowInput   `json:"windows,omitempty" validate:"dive"`
}

// RecommendResponse 顶班候选推荐响应
type RecommendResponse struct {
	Success         bool                  `json:"success"`
	Recommendations []swap.Recommendation `json:"recommendations"`
}

// Recommend 为转出班次推荐可行的接班候选
func (h *SwapHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req RecommendRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	snapshot, appErr := h.buildSnapshot(req.CompanyID, req.Employees, req.Shifts, req.Windows)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	shift := findShift(snapshot.Shifts, req.ShiftID)
	if shift == nil {
		respondError(w, errors.NotFound("班次", req.ShiftID))
		return
	}
	from := findEmployee(snapshot.Employees, req.FromEmployeeID)
	if from == nil {
		respondError(w, errors.NotFound("员工", req.FromEmployeeID))
		return
	}

	opts := swap.DefaultRecommendOptions()
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}
	opts.MinScore = req.MinScore

	recommender := swap.NewRecommender(h.constraintConfig(), h.scoreConfig())
	results := recommender.RecommendTargets(snapshot, shift, from, opts)

	respondJSON(w, http.StatusOK, RecommendResponse{
		Success:         true,
		Recommendations: results,
	})
}

func (h *SwapHandler) buildSnapshot(companyID string, employees []EmployeeInput, shifts []ShiftInput, windows []WindowInput) (*swap.Snapshot, *errors.AppError) {
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的公司ID格式")
	}
	return &swap.Snapshot{
		CompanyID: id,
		Employees: toModelEmployees(employees),
		Shifts:    toModelShifts(id, shifts),
		Windows:   toModelWindows(id, windows),
	}, nil
}

func (h *SwapHandler) constraintConfig() constraint.Config {
	return constraint.Config{
		MinBreakHours:  h.cfg.Planner.MinBreakHours,
		MaxHoursPerDay: h.cfg.Planner.MaxHoursPerDay,
	}
}

func (h *SwapHandler) scoreConfig() score.Config {
	pc := h.cfg.Planner
	return score.Config{
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
	}
}

func findShift(shifts []*model.Shift, id string) *model.Shift {
	target, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	for _, s := range shifts {
		if s.ID == target {
			return s
		}
	}
	return nil
}

func findEmployee(employees []*model.Employee, id string) *model.Employee {
	target, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	for _, e := range employees {
		if e.ID == target {
			return e
		}
	}
	return nil
}
