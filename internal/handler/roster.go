package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dingban/dingban/internal/database"
	"github.com/dingban/dingban/internal/repository"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
)

// RosterHandler 花名册处理器
// 负责公司、员工、班次、可用时间与排班分配的持久化操作，
// 规划本身是无状态的，这里只负责快照的读取与结果的落库。
type RosterHandler struct {
	db          *database.DB
	companies   *repository.CompanyRepository
	employees   *repository.EmployeeRepository
	shifts      *repository.ShiftRepository
	windows     *repository.AvailabilityRepository
	assignments *repository.AssignmentRepository
}

// NewRosterHandler 创建花名册处理器
func NewRosterHandler(db *database.DB) *RosterHandler {
	return &RosterHandler{
		db:          db,
		companies:   repository.NewCompanyRepository(db),
		employees:   repository.NewEmployeeRepository(db),
		shifts:      repository.NewShiftRepository(db),
		windows:     repository.NewAvailabilityRepository(db),
		assignments: repository.NewAssignmentRepository(db),
	}
}

// ========================================
// 公司
// ========================================

// CompanyCreateRequest 公司创建请求
type CompanyCreateRequest struct {
	Name     string                 `json:"name" validate:"required"`
	Code     string                 `json:"code" validate:"required,alphanum"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// CreateCompany 创建公司
func (h *RosterHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CompanyCreateRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	// 公司编码全局唯一
	if _, err := h.companies.GetByCode(r.Context(), req.Code); err == nil {
		respondError(w, errors.New(errors.CodeAlreadyExists, "公司编码已存在").WithField("code", req.Code))
		return
	}

	company := &model.Company{
		BaseModel: model.NewBaseModel(),
		Name:      req.Name,
		Code:      req.Code,
		Settings:  model.JSONMap(req.Settings),
	}
	if err := h.companies.Create(r.Context(), company); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建公司失败"))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "company": company})
}

// ListRequest 通用列表请求
type ListRequest struct {
	CompanyID  string `json:"company_id,omitempty" validate:"omitempty,uuid"`
	EmployeeID string `json:"employee_id,omitempty" validate:"omitempty,uuid"`
	Status     string `json:"status,omitempty"`
	Search     string `json:"search,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Offset     int    `json:"offset" validate:"gte=0"`
	Limit      int    `json:"limit" validate:"gte=0,lte=200"`
}

func (req *ListRequest) toFilter() repository.ListFilter {
	filter := repository.DefaultListFilter()
	if req.CompanyID != "" {
		id, _ := uuid.Parse(req.CompanyID)
		filter = filter.WithCompanyID(id)
	}
	if req.EmployeeID != "" {
		id, _ := uuid.Parse(req.EmployeeID)
		filter = filter.WithEmployeeID(id)
	}
	if req.Status != "" {
		filter = filter.WithStatus(req.Status)
	}
	filter.Search = req.Search
	filter = filter.WithDateRange(req.StartDate, req.EndDate)
	filter = filter.WithOffset(req.Offset)
	if req.Limit > 0 {
		filter = filter.WithLimit(req.Limit)
	}
	return filter
}

// ListCompanies 公司列表
func (h *RosterHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ListRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companies, total, err := h.companies.List(r.Context(), req.toFilter())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询公司列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "total": total, "companies": companies})
}

// ========================================
// 员工
// ========================================

// EmployeeSaveRequest 员工创建/更新请求
type EmployeeSaveRequest struct {
	CompanyID string        `json:"company_id" validate:"required,uuid"`
	Employee  EmployeeInput `json:"employee" validate:"required"`
	Email     string        `json:"email,omitempty" validate:"omitempty,email"`
}

// SaveEmployee 创建或更新员工（按ID判定）
func (h *RosterHandler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req EmployeeSaveRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)
	emp := toModelEmployees([]EmployeeInput{req.Employee})[0]
	emp.CompanyID = companyID
	emp.Email = req.Email
	if emp.Status == "" {
		emp.Status = model.EmployeeStatusActive
	}

	existing, err := h.employees.GetByID(r.Context(), emp.ID)
	switch {
	case err == nil:
		emp.BaseModel = existing.BaseModel
		if err := h.employees.Update(r.Context(), emp); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新员工失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "employee": emp})
	case errors.Is(err, errors.CodeNotFound):
		now := time.Now()
		emp.CreatedAt = now
		emp.UpdatedAt = now
		if err := h.employees.Create(r.Context(), emp); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建员工失败"))
			return
		}
		respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "employee": emp})
	default:
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
	}
}

// DeleteRequest 通用删除请求
type DeleteRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// DeleteEmployee 删除员工（软删除）
func (h *RosterHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req DeleteRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	id, _ := uuid.Parse(req.ID)
	if err := h.employees.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListEmployees 员工列表
func (h *RosterHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ListRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	employees, total, err := h.employees.List(r.Context(), req.toFilter())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "total": total, "employees": employees})
}

// ========================================
// 班次
// ========================================

// ShiftSaveRequest 班次创建/更新请求
type ShiftSaveRequest struct {
	CompanyID string     `json:"company_id" validate:"required,uuid"`
	Shift     ShiftInput `json:"shift" validate:"required"`
}

// SaveShift 创建或更新班次（按ID判定）
func (h *RosterHandler) SaveShift(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ShiftSaveRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if !req.Shift.Start.Before(req.Shift.End) {
		respondError(w, errors.InvalidTimeRange("shift", req.Shift.ID))
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)
	shift := toModelShifts(companyID, []ShiftInput{req.Shift})[0]

	existing, err := h.shifts.GetByID(r.Context(), shift.ID)
	switch {
	case err == nil:
		shift.BaseModel = existing.BaseModel
		if err := h.shifts.Update(r.Context(), shift); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新班次失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "shift": shift})
	case errors.Is(err, errors.CodeNotFound):
		now := time.Now()
		shift.CreatedAt = now
		shift.UpdatedAt = now
		if err := h.shifts.Create(r.Context(), shift); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建班次失败"))
			return
		}
		respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "shift": shift})
	default:
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询班次失败"))
	}
}

// DeleteShift 删除班次（软删除）
func (h *RosterHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req DeleteRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	id, _ := uuid.Parse(req.ID)
	if err := h.shifts.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListShifts 班次列表
func (h *RosterHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ListRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	shifts, total, err := h.shifts.List(r.Context(), req.toFilter())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询班次列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "total": total, "shifts": shifts})
}

// ========================================
// 可用时间
// ========================================

// WindowCreateRequest 可用时间窗口创建请求
type WindowCreateRequest struct {
	CompanyID string      `json:"company_id" validate:"required,uuid"`
	Window    WindowInput `json:"window" validate:"required"`
}

// CreateWindow 提交可用时间窗口
// 同一员工的窗口允许重叠，重叠窗口在规划时视为并集
func (h *RosterHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req WindowCreateRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if !req.Window.Start.Before(req.Window.End) {
		respondError(w, errors.InvalidTimeRange("availability_window", req.Window.EmployeeID))
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)
	window := toModelWindows(companyID, []WindowInput{req.Window})[0]
	if err := h.windows.Create(r.Context(), window); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建可用时间失败"))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "window": window})
}

// DeleteWindow 删除可用时间窗口
func (h *RosterHandler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req DeleteRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	id, _ := uuid.Parse(req.ID)
	if err := h.windows.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListWindows 员工可用时间列表
func (h *RosterHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ListRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if req.EmployeeID == "" {
		respondError(w, errors.InvalidInput("employee_id", "必填"))
		return
	}

	employeeID, _ := uuid.Parse(req.EmployeeID)
	windows, err := h.windows.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询可用时间失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "windows": windows})
}

// ========================================
// 排班分配：订阅、确认、取消、改派
// ========================================

// SubscribeRequest 员工自行报名班次
type SubscribeRequest struct {
	CompanyID  string `json:"company_id" validate:"required,uuid"`
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	ShiftID    string `json:"shift_id" validate:"required,uuid"`
	Notes      string `json:"notes,omitempty"`
}

// Subscribe 报名班次，生成待确认分配
func (h *RosterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req SubscribeRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)
	employeeID, _ := uuid.Parse(req.EmployeeID)
	shiftID, _ := uuid.Parse(req.ShiftID)

	shift, err := h.shifts.GetByID(r.Context(), shiftID)
	if err != nil {
		respondError(w, err)
		return
	}

	// 已在名单中则拒绝重复报名
	for _, id := range append(shift.AssignedIDs, shift.PendingIDs...) {
		if id == employeeID {
			respondError(w, errors.New(errors.CodeAlreadyExists, "员工已在该班次名单中"))
			return
		}
	}

	assignment := &model.Assignment{
		BaseModel:  model.NewBaseModel(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		ShiftID:    shiftID,
		Status:     model.AssignmentPending,
		Notes:      req.Notes,
	}
	if err := h.assignments.Create(r.Context(), assignment); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建分配失败"))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "assignment": assignment})
}

// AssignmentActionRequest 分配操作请求
type AssignmentActionRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required,uuid"`
}

// Confirm 确认待确认分配
// 仅当班次已确认人数未达到需求人数时允许确认
func (h *RosterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req AssignmentActionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	assignmentID, _ := uuid.Parse(req.AssignmentID)
	assignment, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		respondError(w, err)
		return
	}
	if assignment.Status == model.AssignmentConfirmed {
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "assignment": assignment})
		return
	}

	shift, err := h.shifts.GetByID(r.Context(), assignment.ShiftID)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(shift.AssignedIDs) >= shift.Capacity {
		respondError(w, errors.New(errors.CodeShiftLocked, "班次已满员，无法确认").
			WithField("shift_id", shift.ID.String()).
			WithField("capacity", shift.Capacity))
		return
	}

	if err := h.assignments.UpdateStatus(r.Context(), assignmentID, model.AssignmentConfirmed); err != nil {
		respondError(w, err)
		return
	}
	assignment.Status = model.AssignmentConfirmed

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "assignment": assignment})
}

// Cancel 取消分配（软删除）
func (h *RosterHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req AssignmentActionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	assignmentID, _ := uuid.Parse(req.AssignmentID)
	if err := h.assignments.Delete(r.Context(), assignmentID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ReassignRequest 改派请求
type ReassignRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required,uuid"`
	ToEmployeeID string `json:"to_employee_id" validate:"required,uuid"`
}

// Reassign 将分配改派给另一名员工，状态回到待确认
func (h *RosterHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ReassignRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	assignmentID, _ := uuid.Parse(req.AssignmentID)
	toEmployee, _ := uuid.Parse(req.ToEmployeeID)

	if _, err := h.employees.GetByID(r.Context(), toEmployee); err != nil {
		respondError(w, err)
		return
	}
	if err := h.assignments.Reassign(r.Context(), assignmentID, toEmployee); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListAssignments 员工或班次的分配列表
func (h *RosterHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ListRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	var (
		assignments []*model.Assignment
		err         error
	)
	switch {
	case req.EmployeeID != "":
		employeeID, _ := uuid.Parse(req.EmployeeID)
		assignments, err = h.assignments.ListByEmployee(r.Context(), employeeID)
	case req.Search != "":
		shiftID, parseErr := uuid.Parse(req.Search)
		if parseErr != nil {
			respondError(w, errors.InvalidInput("search", "应为班次ID"))
			return
		}
		assignments, err = h.assignments.ListByShift(r.Context(), shiftID)
	default:
		respondError(w, errors.InvalidInput("employee_id", "employee_id与search至少填一项"))
		return
	}
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "assignments": assignments})
}

// ========================================
// 规划快照与结果落库
// ========================================

// SnapshotRequest 规划快照请求
type SnapshotRequest struct {
	CompanyID string    `json:"company_id" validate:"required,uuid"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
}

// Snapshot 读取规划窗口内的只读快照
// 返回在职员工、时间范围内的班次及可用时间窗口，可直接作为规划输入
func (h *RosterHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req SnapshotRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if !req.Start.Before(req.End) {
		respondError(w, errors.InvalidTimeRange("snapshot", req.CompanyID))
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)

	employees, err := h.employees.ListActive(r.Context(), companyID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "读取员工快照失败"))
		return
	}
	shifts, err := h.shifts.ListInRange(r.Context(), companyID, req.Start, req.End)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "读取班次快照失败"))
		return
	}
	windows, err := h.windows.ListByCompany(r.Context(), companyID, req.Start, req.End)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "读取可用时间快照失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"employees": employees,
		"shifts":    shifts,
		"windows":   windows,
	})
}

// CommitRequest 规划结果落库请求
type CommitRequest struct {
	CompanyID   string            `json:"company_id" validate:"required,uuid"`
	Assignments []AssignmentInput `json:"assignments" validate:"required,min=1,dive"`
}

// AssignmentInput 分配输入
type AssignmentInput struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	ShiftID    string `json:"shift_id" validate:"required,uuid"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	Notes      string `json:"notes,omitempty"`
}

// Commit 将一次规划运行的结果在单个事务中落库
func (h *RosterHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CommitRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	companyID, _ := uuid.Parse(req.CompanyID)
	assignments := make([]*model.Assignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		employeeID, _ := uuid.Parse(in.EmployeeID)
		shiftID, _ := uuid.Parse(in.ShiftID)
		status := model.AssignmentStatus(in.Status)
		if status == "" {
			status = model.AssignmentConfirmed
		}
		assignments = append(assignments, &model.Assignment{
			BaseModel:  model.NewBaseModel(),
			CompanyID:  companyID,
			EmployeeID: employeeID,
			ShiftID:    shiftID,
			Status:     status,
			Notes:      in.Notes,
		})
	}

	// 事务内批量写入，任一条失败则整体回滚
	err := h.db.Transaction(r.Context(), func(tx *sql.Tx) error {
		return repository.NewAssignmentRepository(tx).CreateBatch(r.Context(), assignments)
	})
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存规划结果失败"))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"inserted": len(assignments),
	})
}
