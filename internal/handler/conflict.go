package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dingban/dingban/internal/config"
	"github.com/dingban/dingban/pkg/validator"
)

// ConflictHandler 排班冲突检测处理器
type ConflictHandler struct {
	cfg *config.Config
}

// NewConflictHandler 创建冲突检测处理器
func NewConflictHandler(cfg *config.Config) *ConflictHandler {
	return &ConflictHandler{cfg: cfg}
}

// DetectRequest 冲突检测请求
// 对已发布的排班表做全量体检，班次需携带已分配员工列表
type DetectRequest struct {
	CompanyID         string          `json:"company_id" validate:"required,uuid"`
	Employees         []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Shifts            []ShiftInput    `json:"shifts" validate:"required,min=1,dive"`
	Windows           []WindowInput   `json:"windows,omitempty" validate:"dive"`
	CheckSkills       *bool           `json:"check_skills,omitempty"`
	CheckAvailability *bool           `json:"check_availability,omitempty"`
}

// DetectResponse 冲突检测响应
type DetectResponse struct {
	Success   bool                 `json:"success"`
	HasErrors bool                 `json:"has_errors"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Detect 检测排班表中的冲突
func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req DetectRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)

	detectorCfg := h.detectorConfig()
	if req.CheckSkills != nil {
		detectorCfg.CheckSkills = *req.CheckSkills
	}
	if req.CheckAvailability != nil {
		detectorCfg.CheckAvailability = *req.CheckAvailability
	}

	detector := validator.NewConflictDetector(detectorCfg)
	conflicts := detector.DetectAll(&validator.Schedule{
		Employees: toModelEmployees(req.Employees),
		Shifts:    toModelShifts(companyID, req.Shifts),
		Windows:   toModelWindows(companyID, req.Windows),
	})

	respondJSON(w, http.StatusOK, DetectResponse{
		Success:   true,
		HasErrors: validator.HasErrors(conflicts),
		Conflicts: conflicts,
	})
}

func (h *ConflictHandler) detectorConfig() *validator.DetectorConfig {
	cfg := validator.DefaultDetectorConfig()
	cfg.MinBreakHours = h.cfg.Planner.MinBreakHours
	cfg.MaxHoursPerDay = h.cfg.Planner.MaxHoursPerDay
	return cfg
}
