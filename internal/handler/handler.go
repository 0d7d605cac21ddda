// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
)

// validate 请求结构体校验器，各处理器共用
var validate = validator.New()

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID                string             `json:"id" validate:"required,uuid"`
	Name              string             `json:"name" validate:"required"`
	Code              string             `json:"code,omitempty"`
	Status            string             `json:"status,omitempty" validate:"omitempty,oneof=active inactive leave"`
	Skills            []string           `json:"skills,omitempty"`
	NoShowProbability float64            `json:"no_show_probability" validate:"gte=0,lte=1"`
	Experience        map[string]float64 `json:"experience,omitempty"`
	HomeLocation      *LocationInput     `json:"home_location,omitempty"`
}

// ShiftInput 班次输入
type ShiftInput struct {
	ID             string         `json:"id" validate:"required,uuid"`
	Title          string         `json:"title" validate:"required"`
	Start          time.Time      `json:"start" validate:"required"`
	End            time.Time      `json:"end" validate:"required"`
	Capacity       int            `json:"capacity" validate:"required,min=1"`
	ShiftType      string         `json:"shift_type,omitempty"`
	RequiredSkills []string       `json:"required_skills,omitempty"`
	Location       *LocationInput `json:"location,omitempty"`
	AssignedIDs    []string       `json:"assigned_ids,omitempty" validate:"dive,uuid"`
}

// WindowInput 可用时间窗口输入
type WindowInput struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
	Note       string    `json:"note,omitempty"`
}

// LocationInput 位置输入
type LocationInput struct {
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// toModelEmployees 转换员工输入
// ID在结构体校验阶段已确认为合法UUID
func toModelEmployees(inputs []EmployeeInput) []*model.Employee {
	employees := make([]*model.Employee, 0, len(inputs))
	for _, e := range inputs {
		id, _ := uuid.Parse(e.ID)
		employees = append(employees, &model.Employee{
			BaseModel:         model.BaseModel{ID: id},
			Name:              e.Name,
			Code:              e.Code,
			Status:            e.Status,
			Skills:            e.Skills,
			NoShowProbability: e.NoShowProbability,
			Experience:        e.Experience,
			HomeLocation:      toModelLocation(e.HomeLocation),
		})
	}
	return employees
}

// toModelShifts 转换班次输入
func toModelShifts(companyID uuid.UUID, inputs []ShiftInput) []*model.Shift {
	shifts := make([]*model.Shift, 0, len(inputs))
	for _, s := range inputs {
		id, _ := uuid.Parse(s.ID)
		shift := &model.Shift{
			BaseModel:      model.BaseModel{ID: id},
			CompanyID:      companyID,
			Title:          s.Title,
			Start:          s.Start,
			End:            s.End,
			Capacity:       s.Capacity,
			ShiftType:      s.ShiftType,
			RequiredSkills: s.RequiredSkills,
			Location:       toModelLocation(s.Location),
		}
		for _, raw := range s.AssignedIDs {
			empID, _ := uuid.Parse(raw)
			shift.AssignedIDs = append(shift.AssignedIDs, empID)
		}
		shifts = append(shifts, shift)
	}
	return shifts
}

// toModelWindows 转换可用时间窗口输入
func toModelWindows(companyID uuid.UUID, inputs []WindowInput) []*model.AvailabilityWindow {
	windows := make([]*model.AvailabilityWindow, 0, len(inputs))
	for _, w := range inputs {
		empID, _ := uuid.Parse(w.EmployeeID)
		windows = append(windows, &model.AvailabilityWindow{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			CompanyID:  companyID,
			EmployeeID: empID,
			Range:      model.TimeRange{Start: w.Start, End: w.End},
			Note:       w.Note,
		})
	}
	return windows
}

func toModelLocation(in *LocationInput) *model.Location {
	if in == nil {
		return nil
	}
	return &model.Location{
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
}

// decodeAndValidate 解析并校验请求体
func decodeAndValidate(r *http.Request, dst interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	if err := validate.Struct(dst); err != nil {
		ve := &errors.ValidationErrors{}
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				ve.Add(fe.Namespace(), "不满足规则 "+fe.Tag())
			}
			return ve.ToAppError()
		}
		return errors.Wrap(err, errors.CodeValidationFail, "请求校验失败")
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err error) {
	status := errors.GetHTTPStatus(err)
	body := map[string]interface{}{
		"error":   true,
		"code":    errors.GetCode(err),
		"message": err.Error(),
	}
	if appErr, ok := err.(*errors.AppError); ok {
		body["message"] = appErr.Message
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// requirePost 校验请求方法
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return false
	}
	return true
}
