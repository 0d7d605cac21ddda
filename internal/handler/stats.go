package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dingban/dingban/internal/metrics"
	"github.com/dingban/dingban/pkg/stats"
)

// StatsHandler 排班统计处理器
type StatsHandler struct{}

// NewStatsHandler 创建统计处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// StatsRequest 统计请求
// 班次需携带已分配员工列表
type StatsRequest struct {
	CompanyID string          `json:"company_id" validate:"required,uuid"`
	Employees []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Shifts    []ShiftInput    `json:"shifts" validate:"required,min=1,dive"`
}

// FairnessResponse 公平性分析响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
}

// CoverageResponse 覆盖率分析响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
}

// Fairness 工时公平性分析
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req StatsRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)

	analyzer := stats.NewFairnessAnalyzer()
	data := analyzer.Analyze(toModelShifts(companyID, req.Shifts), toModelEmployees(req.Employees))
	metrics.SetFairnessGini(req.CompanyID, "hours", data.WorkloadGini)

	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: data})
}

// Coverage 班次覆盖率分析
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req StatsRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)

	analyzer := stats.NewCoverageAnalyzer()
	data := analyzer.Analyze(toModelShifts(companyID, req.Shifts))
	metrics.SetCoverageRate(req.CompanyID, data.OverallCoverage)

	respondJSON(w, http.StatusOK, CoverageResponse{Success: true, Data: data})
}
