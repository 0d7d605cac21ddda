package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
)

// AssignmentRepository 排班分配仓储
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建排班分配仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create 创建排班分配
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO assignments (
			id, company_id, employee_id, shift_id, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.CompanyID, a.EmployeeID, a.ShiftID, a.Status, a.Notes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班分配失败: %w", err)
	}
	return nil
}

// CreateBatch 在事务内批量创建排班分配（规划结果落库）
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []*model.Assignment) error {
	for _, a := range assignments {
		if err := r.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据ID获取排班分配
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	query := selectAssignment + ` WHERE id = $1 AND deleted_at IS NULL`
	return r.scanAssignment(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus 更新分配状态（确认流程）
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) error {
	query := `
		UPDATE assignments SET status = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新分配状态失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("排班分配", id.String())
	}
	return nil
}

// Delete 软删除排班分配（取消分配）
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE assignments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除排班分配失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("排班分配", id.String())
	}
	return nil
}

// Reassign 换班：把分配转移给另一名员工，状态回到待确认
func (r *AssignmentRepository) Reassign(ctx context.Context, id uuid.UUID, toEmployee uuid.UUID) error {
	query := `
		UPDATE assignments SET employee_id = $2, status = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, toEmployee, model.AssignmentPending, time.Now())
	if err != nil {
		return fmt.Errorf("换班更新失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("排班分配", id.String())
	}
	return nil
}

// ListByShift 查询某班次的全部分配
func (r *AssignmentRepository) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*model.Assignment, error) {
	query := selectAssignment + `
		WHERE shift_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, employee_id`
	return r.queryAssignments(ctx, query, shiftID)
}

// ListByEmployee 查询某员工的全部分配
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*model.Assignment, error) {
	query := selectAssignment + `
		WHERE employee_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, shift_id`
	return r.queryAssignments(ctx, query, employeeID)
}

const selectAssignment = `
	SELECT id, company_id, employee_id, shift_id, status, notes,
		created_at, updated_at
	FROM assignments`

func (r *AssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排班分配失败: %w", err)
	}
	defer rows.Close()

	assignments := make([]*model.Assignment, 0)
	for rows.Next() {
		a, err := r.scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepository) scanAssignment(row Scanner) (*model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.ShiftID, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班分配数据失败: %w", err)
	}
	return &a, nil
}
