// Package constraints 约束目录
// 对外描述规划引擎支持的硬约束与软评分标准，供前端配置界面使用
package constraints

import (
	"github.com/dingban/dingban/pkg/planner/constraint"
)

// Param 约束参数定义
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// Definition 约束定义
type Definition struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`           // hard 硬约束, soft 软评分
	Code        string  `json:"code,omitempty"` // 硬约束拒绝原因码
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// CatalogResponse 约束目录响应
type CatalogResponse struct {
	Catalog []Definition `json:"catalog"`
}

// GetCatalog 获取完整的约束目录
// 硬约束按引擎的检查顺序排列
func GetCatalog() []Definition {
	return []Definition{
		// =====================================================
		// 硬约束（按检查顺序）
		// =====================================================
		{
			Name:        "skill_required",
			DisplayName: "技能匹配",
			Type:        "hard",
			Code:        string(constraint.ReasonSkillMismatch),
			Category:    "资质要求",
			Description: "员工必须具备班次要求的全部技能，缺少任意一项则不可分配。",
			Params:      []Param{},
		},
		{
			Name:        "availability",
			DisplayName: "可用时间",
			Type:        "hard",
			Code:        string(constraint.ReasonOutsideAvailability),
			Category:    "时间限制",
			Description: "班次必须完整落在员工提交的某个可用时间窗口内。未提交任何窗口的员工不可被分配。",
			Params:      []Param{},
		},
		{
			Name:        "no_overlap",
			DisplayName: "班次不重叠",
			Type:        "hard",
			Code:        string(constraint.ReasonOverlap),
			Category:    "时间限制",
			Description: "同一员工在本次规划中已分配的班次与候选班次在时间上不得重叠。首尾相接的班次不算重叠。",
			Params:      []Param{},
		},
		{
			Name:        "min_rest_between_shifts",
			DisplayName: "班次间最小休息时间",
			Type:        "hard",
			Code:        string(constraint.ReasonInsufficientBreak),
			Category:    "休息保障",
			Description: "员工相邻两个班次之间的间隔不得小于配置的最小休息时间，防止过度疲劳。",
			Params: []Param{
				{Name: "min_break_hours", Type: "float", Description: "最小休息时间(小时)", Default: "8", Min: "0", Max: "24"},
			},
		},
		{
			Name:        "max_hours_per_day",
			DisplayName: "每日最大工时",
			Type:        "hard",
			Code:        string(constraint.ReasonDailyHoursExceeded),
			Category:    "工时限制",
			Description: "员工单个自然日内的累计工时不得超过上限。跨午夜的班次按日拆分计算。",
			Params: []Param{
				{Name: "max_hours_per_day", Type: "float", Description: "最大工时(小时)", Default: "12", Min: "1", Max: "24"},
			},
		},
		{
			Name:        "shift_capacity",
			DisplayName: "班次容量",
			Type:        "hard",
			Code:        string(constraint.ReasonShiftFull),
			Category:    "容量限制",
			Description: "班次的分配人数不得超过其需求人数。",
			Params:      []Param{},
		},

		// =====================================================
		// 软评分标准
		// =====================================================
		{
			Name:        "fairness",
			DisplayName: "工时公平",
			Type:        "soft",
			Category:    "公平性",
			Description: "优先分配给本次规划中累计工时较少的员工，使工时分布均匀。",
			Params: []Param{
				{Name: "weight_fairness", Type: "float", Description: "评分权重", Default: "0.25", Min: "0", Max: "1"},
			},
		},
		{
			Name:        "availability_match",
			DisplayName: "可用时间匹配度",
			Type:        "soft",
			Category:    "偏好",
			Description: "班次严格位于可用时间窗口内部的员工得满分，班次贴着窗口边界的员工被扣分。",
			Params: []Param{
				{Name: "weight_availability", Type: "float", Description: "评分权重", Default: "0.30", Min: "0", Max: "1"},
				{Name: "availability_penalty", Type: "float", Description: "窗口外扣分", Default: "0.3", Min: "0", Max: "1"},
			},
		},
		{
			Name:        "reliability",
			DisplayName: "出勤可靠度",
			Type:        "soft",
			Category:    "服务质量",
			Description: "根据员工历史缺勤概率评分，缺勤概率越低得分越高。",
			Params: []Param{
				{Name: "weight_reliability", Type: "float", Description: "评分权重", Default: "0.25", Min: "0", Max: "1"},
			},
		},
		{
			Name:        "skill_quality",
			DisplayName: "岗位经验",
			Type:        "soft",
			Category:    "服务质量",
			Description: "根据员工对该班次类型的经验值评分，无经验记录计为零分。",
			Params: []Param{
				{Name: "weight_skill_quality", Type: "float", Description: "评分权重", Default: "0.15", Min: "0", Max: "1"},
			},
		},
		{
			Name:        "clustering",
			DisplayName: "班次聚集",
			Type:        "soft",
			Category:    "效率优化",
			Description: "倾向把地点相近或时间相邻的班次分配给同一员工，减少通勤与碎片时间。",
			Params: []Param{
				{Name: "weight_clustering", Type: "float", Description: "评分权重", Default: "0.05", Min: "0", Max: "1"},
				{Name: "cluster_distance_km", Type: "float", Description: "地点相近阈值(公里)", Default: "5", Min: "0", Max: "50"},
				{Name: "adjacent_gap_hours", Type: "float", Description: "时间相邻阈值(小时)", Default: "2", Min: "0", Max: "12"},
			},
		},
	}
}

// HardConstraints 只返回硬约束
func HardConstraints() []Definition {
	return filterByType("hard")
}

// SoftCriteria 只返回软评分标准
func SoftCriteria() []Definition {
	return filterByType("soft")
}

func filterByType(t string) []Definition {
	var result []Definition
	for _, d := range GetCatalog() {
		if d.Type == t {
			result = append(result, d)
		}
	}
	return result
}
