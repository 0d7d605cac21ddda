package planner

import (
	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
)

// Input 一次规划运行的只读输入快照
// 快照必须属于同一家公司，租户隔离由调用方保证
type Input struct {
	CompanyID uuid.UUID
	Employees []*model.Employee
	Shifts    []*model.Shift
	Windows   []*model.AvailabilityWindow
}

// Validate 校验输入快照
// 返回第一条指明具体记录的校验错误，任何错误都会中止整次运行
func (in *Input) Validate(cfg Config) error {
	for _, s := range in.Shifts {
		if !s.Range().IsValid() {
			return errors.InvalidTimeRange("班次", s.ID.String())
		}
		if s.Capacity < 1 {
			return errors.InvalidCapacity(s.ID.String(), s.Capacity)
		}
		for _, skill := range s.RequiredSkills {
			if !cfg.skillKnown(skill) {
				return errors.UnknownSkill(s.ID.String(), skill)
			}
		}
	}
	for _, w := range in.Windows {
		if !w.Range.IsValid() {
			return errors.InvalidTimeRange("可用时间窗口", w.ID.String())
		}
	}
	for _, e := range in.Employees {
		for _, skill := range e.Skills {
			if !cfg.skillKnown(skill) {
				return errors.New(errors.CodeUnknownSkill,
					"员工 '"+e.ID.String()+"' 引用了未登记的技能 '"+skill+"'")
			}
		}
	}
	return nil
}
