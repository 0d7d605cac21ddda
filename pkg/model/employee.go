// Package model 定义排班分配引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// 员工状态
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
	EmployeeStatusLeave    = "leave"
)

// Employee 员工
type Employee struct {
	BaseModel
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Email     string    `json:"email,omitempty" db:"email"`
	Status    string    `json:"status" db:"status"`

	// 排班相关
	Skills []string `json:"skills" db:"skills"`

	// 缺勤概率（0.0-1.0，越低越可靠）
	NoShowProbability float64 `json:"no_show_probability" db:"no_show_probability"`

	// 按班次类型的经验值（0.0-1.0）
	// key: 班次类型, value: 经验水平
	Experience map[string]float64 `json:"experience,omitempty" db:"experience"`

	// 本次规划运行中的累计工时（每次运行前重置，不持久化）
	AccumulatedHours float64 `json:"accumulated_hours,omitempty" db:"-"`

	// 常驻位置（聚类评分使用）
	HomeLocation *Location `json:"home_location,omitempty" db:"home_location"`
}

// AvailabilityWindow 员工可用时间窗口
// 一名员工可以提交多个窗口，窗口之间允许重叠
type AvailabilityWindow struct {
	BaseModel
	CompanyID  uuid.UUID `json:"company_id" db:"company_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	Range      TimeRange `json:"range" db:"-"`
	Note       string    `json:"note,omitempty" db:"note"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == EmployeeStatusActive
}

// HasSkill 检查员工是否具备某技能
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasAllSkills 检查员工是否具备全部技能
func (e *Employee) HasAllSkills(skills []string) bool {
	for _, s := range skills {
		if !e.HasSkill(s) {
			return false
		}
	}
	return true
}

// Reliability 返回可靠度（1 - 缺勤概率）
func (e *Employee) Reliability() float64 {
	return 1.0 - e.NoShowProbability
}

// ExperienceFor 返回员工对某班次类型的经验值，无记录时为 0
func (e *Employee) ExperienceFor(shiftType string) float64 {
	if e.Experience == nil {
		return 0
	}
	return e.Experience[shiftType]
}

// WithinAnyWindow 检查时间范围是否完整落在至少一个窗口内
// 不做部分匹配：只覆盖部分班次的窗口视为不可用
func WithinAnyWindow(r TimeRange, windows []*AvailabilityWindow) bool {
	for _, w := range windows {
		if w.Range.ContainsRange(r) {
			return true
		}
	}
	return false
}

// StrictlyInsideAnyWindow 检查时间范围是否严格位于某个窗口内部
// （不含边界接触，用于可用性匹配软评分）
func StrictlyInsideAnyWindow(r TimeRange, windows []*AvailabilityWindow) bool {
	for _, w := range windows {
		if w.Range.ContainsRangeStrict(r) {
			return true
		}
	}
	return false
}
