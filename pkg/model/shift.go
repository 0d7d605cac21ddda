// Package model 定义排班分配引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Shift 班次（事件）
type Shift struct {
	BaseModel
	CompanyID   uuid.UUID `json:"company_id" db:"company_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Start       time.Time `json:"start" db:"start_time"`
	End         time.Time `json:"end" db:"end_time"`
	Capacity    int       `json:"capacity" db:"capacity"` // 需求人数（≥1）
	ShiftType   string    `json:"shift_type,omitempty" db:"shift_type"`

	// 技能要求（可为空）
	RequiredSkills []string `json:"required_skills,omitempty" db:"required_skills"`

	// 地点（可选，聚类评分使用）
	Location *Location `json:"location,omitempty" db:"location"`

	// 当前已分配与待确认的员工列表
	AssignedIDs []uuid.UUID `json:"assigned_ids,omitempty" db:"-"`
	PendingIDs  []uuid.UUID `json:"pending_ids,omitempty" db:"-"`
}

// AssignmentStatus 排班分配状态
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"   // 待确认
	AssignmentConfirmed AssignmentStatus = "confirmed" // 已确认
)

// Assignment 排班分配（员工-班次）
type Assignment struct {
	BaseModel
	CompanyID  uuid.UUID        `json:"company_id" db:"company_id"`
	EmployeeID uuid.UUID        `json:"employee_id" db:"employee_id"`
	ShiftID    uuid.UUID        `json:"shift_id" db:"shift_id"`
	Status     AssignmentStatus `json:"status" db:"status"`
	Notes      string           `json:"notes,omitempty" db:"notes"`
}

// SwapRequest 换班请求
type SwapRequest struct {
	BaseModel
	CompanyID        uuid.UUID  `json:"company_id" db:"company_id"`
	RequestorID      uuid.UUID  `json:"requestor_id" db:"requestor_id"`
	TargetID         *uuid.UUID `json:"target_id,omitempty" db:"target_id"`
	SourceAssignment uuid.UUID  `json:"source_assignment" db:"source_assignment"`
	TargetAssignment *uuid.UUID `json:"target_assignment,omitempty" db:"target_assignment"`
	Status           string     `json:"status" db:"status"` // pending/approved/rejected/cancelled
	Reason           string     `json:"reason,omitempty" db:"reason"`
	ReviewedBy       *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// Range 返回班次的时间范围
func (s *Shift) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// DurationHours 返回班次时长（小时）
func (s *Shift) DurationHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// IsPast 检查班次是否已结束（已结束的班次不可变更）
func (s *Shift) IsPast(now time.Time) bool {
	return !s.End.After(now)
}

// AssignedCount 返回已分配人数
func (s *Shift) AssignedCount() int {
	return len(s.AssignedIDs)
}

// SlotsRemaining 返回剩余空位数
func (s *Shift) SlotsRemaining() int {
	remaining := s.Capacity - len(s.AssignedIDs)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFull 检查班次是否已满员
func (s *Shift) IsFull() bool {
	return len(s.AssignedIDs) >= s.Capacity
}

// HasAssigned 检查员工是否已分配到该班次
func (s *Shift) HasAssigned(empID uuid.UUID) bool {
	for _, id := range s.AssignedIDs {
		if id == empID {
			return true
		}
	}
	return false
}

// HasPending 检查员工是否在待确认列表中
func (s *Shift) HasPending(empID uuid.UUID) bool {
	for _, id := range s.PendingIDs {
		if id == empID {
			return true
		}
	}
	return false
}
