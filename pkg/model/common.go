// Package model 定义排班分配引擎的核心数据模型
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ConstraintCategory 约束类别
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintCategory = "soft" // 软约束（尽量满足）
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Company 公司（租户），员工、班次、可用时间均按公司隔离
type Company struct {
	BaseModel
	Name     string  `json:"name" db:"name"`
	Code     string  `json:"code" db:"code"`
	Settings JSONMap `json:"settings" db:"settings"`
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// TimeRange 时间范围（半开区间 [Start, End)）
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Hours 返回时间范围的小时数
func (tr TimeRange) Hours() float64 {
	return tr.Duration().Hours()
}

// IsValid 检查时间范围是否合法（结束晚于开始）
func (tr TimeRange) IsValid() bool {
	return tr.End.After(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
// 半开区间语义：一个班次恰好在另一个开始时结束，不算重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Gap 返回两个时间范围之间的间隔（较早结束到较晚开始）
// 两个范围重叠时返回 0
func (tr TimeRange) Gap(other TimeRange) time.Duration {
	if tr.Overlaps(other) {
		return 0
	}
	if !tr.End.After(other.Start) {
		return other.Start.Sub(tr.End)
	}
	return tr.Start.Sub(other.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// ContainsRange 检查时间范围是否完整包含另一个范围
func (tr TimeRange) ContainsRange(other TimeRange) bool {
	return !other.Start.Before(tr.Start) && !other.End.After(tr.End)
}

// ContainsRangeStrict 检查另一个范围是否严格位于内部（不含边界接触）
func (tr TimeRange) ContainsRangeStrict(other TimeRange) bool {
	return other.Start.After(tr.Start) && other.End.Before(tr.End)
}

// HoursOnDate 返回时间范围与某个自然日交集的小时数
// 跨午夜的班次按比例计入两天
func (tr TimeRange) HoursOnDate(day time.Time) float64 {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	start := tr.Start
	if start.Before(dayStart) {
		start = dayStart
	}
	end := tr.End
	if end.After(dayEnd) {
		end = dayEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// Dates 返回时间范围覆盖的所有自然日（当日零点）
func (tr TimeRange) Dates() []time.Time {
	var dates []time.Time
	day := time.Date(tr.Start.Year(), tr.Start.Month(), tr.Start.Day(), 0, 0, 0, 0, tr.Start.Location())
	for day.Before(tr.End) {
		dates = append(dates, day)
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// Location 地理位置
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	District  string  `json:"district,omitempty"`
}

// Distance 计算两个位置之间的距离（公里）
// 使用 Haversine 公式
func (l Location) Distance(other Location) float64 {
	const earthRadius = 6371.0 // 地球半径（公里）

	lat1Rad := l.Latitude * math.Pi / 180
	lat2Rad := other.Latitude * math.Pi / 180
	deltaLat := (other.Latitude - l.Latitude) * math.Pi / 180
	deltaLon := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
