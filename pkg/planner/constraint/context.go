// Package constraint 定义硬约束检查器和规划运行状态
package constraint

import (
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/model"
)

// Context 规划运行状态（单次运行内有效，不持久化）
// 记录运行期间每名员工的已分配班次与累计工时，
// 由已提交的分配结果加运行中的临时决策重建
type Context struct {
	CompanyID uuid.UUID
	Employees []*model.Employee
	Shifts    []*model.Shift

	employeeMap   map[uuid.UUID]*model.Employee
	shiftMap      map[uuid.UUID]*model.Shift
	windowsByEmp  map[uuid.UUID][]*model.AvailabilityWindow
	assignedByEmp map[uuid.UUID][]*model.Shift
	assignedCount map[uuid.UUID]int
	hoursByEmp    map[uuid.UUID]float64
}

// NewContext 创建新的规划运行状态
func NewContext(companyID uuid.UUID) *Context {
	return &Context{
		CompanyID:     companyID,
		Employees:     make([]*model.Employee, 0),
		Shifts:        make([]*model.Shift, 0),
		employeeMap:   make(map[uuid.UUID]*model.Employee),
		shiftMap:      make(map[uuid.UUID]*model.Shift),
		windowsByEmp:  make(map[uuid.UUID][]*model.AvailabilityWindow),
		assignedByEmp: make(map[uuid.UUID][]*model.Shift),
		assignedCount: make(map[uuid.UUID]int),
		hoursByEmp:    make(map[uuid.UUID]float64),
	}
}

// SetEmployees 设置员工列表
func (c *Context) SetEmployees(employees []*model.Employee) {
	c.Employees = employees
	c.employeeMap = make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		c.employeeMap[e.ID] = e
		if _, ok := c.hoursByEmp[e.ID]; !ok {
			c.hoursByEmp[e.ID] = 0
		}
	}
}

// SetShifts 设置班次列表，并根据已有分配重建运行状态
func (c *Context) SetShifts(shifts []*model.Shift) {
	c.Shifts = shifts
	c.shiftMap = make(map[uuid.UUID]*model.Shift)
	c.assignedByEmp = make(map[uuid.UUID][]*model.Shift)
	c.assignedCount = make(map[uuid.UUID]int)
	for id := range c.hoursByEmp {
		c.hoursByEmp[id] = 0
	}

	for _, s := range shifts {
		c.shiftMap[s.ID] = s
		c.assignedCount[s.ID] = len(s.AssignedIDs)
		for _, empID := range s.AssignedIDs {
			c.assignedByEmp[empID] = append(c.assignedByEmp[empID], s)
			c.hoursByEmp[empID] += s.DurationHours()
		}
	}

	// 同步员工累计工时
	for _, e := range c.Employees {
		e.AccumulatedHours = c.hoursByEmp[e.ID]
	}
}

// SetWindows 设置可用时间窗口
func (c *Context) SetWindows(windows []*model.AvailabilityWindow) {
	c.windowsByEmp = make(map[uuid.UUID][]*model.AvailabilityWindow)
	for _, w := range windows {
		c.windowsByEmp[w.EmployeeID] = append(c.windowsByEmp[w.EmployeeID], w)
	}
}

// Assign 记录一次分配决策，更新运行状态
func (c *Context) Assign(empID uuid.UUID, shift *model.Shift) {
	c.assignedByEmp[empID] = append(c.assignedByEmp[empID], shift)
	c.assignedCount[shift.ID]++
	c.hoursByEmp[empID] += shift.DurationHours()
	if emp := c.employeeMap[empID]; emp != nil {
		emp.AccumulatedHours = c.hoursByEmp[empID]
	}
}

// GetEmployee 获取员工
func (c *Context) GetEmployee(id uuid.UUID) *model.Employee {
	return c.employeeMap[id]
}

// GetShift 获取班次
func (c *Context) GetShift(id uuid.UUID) *model.Shift {
	return c.shiftMap[id]
}

// EmployeeShifts 获取员工在本次运行中的全部已分配班次
func (c *Context) EmployeeShifts(empID uuid.UUID) []*model.Shift {
	return c.assignedByEmp[empID]
}

// EmployeeWindows 获取员工的可用时间窗口
func (c *Context) EmployeeWindows(empID uuid.UUID) []*model.AvailabilityWindow {
	return c.windowsByEmp[empID]
}

// EmployeeHours 获取员工的累计工时
func (c *Context) EmployeeHours(empID uuid.UUID) float64 {
	return c.hoursByEmp[empID]
}

// EmployeeHoursOnDate 获取员工在某个自然日的工时
// 跨午夜的班次只计入当日部分
func (c *Context) EmployeeHoursOnDate(empID uuid.UUID, day time.Time) float64 {
	var hours float64
	for _, s := range c.assignedByEmp[empID] {
		hours += s.Range().HoursOnDate(day)
	}
	return hours
}

// AssignedCount 获取班次当前的已分配人数
func (c *Context) AssignedCount(shiftID uuid.UUID) int {
	return c.assignedCount[shiftID]
}

// HoursBounds 返回当前全员累计工时的最小值与最大值
func (c *Context) HoursBounds() (min, max float64) {
	first := true
	for _, e := range c.Employees {
		h := c.hoursByEmp[e.ID]
		if first {
			min, max = h, h
			first = false
			continue
		}
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}
	return min, max
}

// TotalHours 返回全员累计工时之和
func (c *Context) TotalHours() float64 {
	var total float64
	for _, h := range c.hoursByEmp {
		total += h
	}
	return total
}
