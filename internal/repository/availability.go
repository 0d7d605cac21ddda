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

// AvailabilityRepository 可用时间窗口仓储
type AvailabilityRepository struct {
	db DB
}

// NewAvailabilityRepository 创建可用时间窗口仓储
func NewAvailabilityRepository(db DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create 创建可用时间窗口
func (r *AvailabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	if window.ID == uuid.Nil {
		window.ID = uuid.New()
	}
	now := time.Now()
	window.CreatedAt = now
	window.UpdatedAt = now

	query := `
		INSERT INTO availability_windows (
			id, company_id, employee_id, start_time, end_time, note,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		window.ID, window.CompanyID, window.EmployeeID,
		window.Range.Start, window.Range.End, window.Note,
		window.CreatedAt, window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建可用时间窗口失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取可用时间窗口
func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	query := selectWindow + ` WHERE id = $1 AND deleted_at IS NULL`
	return r.scanWindow(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新可用时间窗口
func (r *AvailabilityRepository) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	window.UpdatedAt = time.Now()

	query := `
		UPDATE availability_windows SET
			start_time = $2, end_time = $3, note = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		window.ID, window.Range.Start, window.Range.End, window.Note, window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新可用时间窗口失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("可用时间窗口", window.ID.String())
	}
	return nil
}

// Delete 软删除可用时间窗口
func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE availability_windows SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除可用时间窗口失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("可用时间窗口", id.String())
	}
	return nil
}

// ListByEmployee 查询某员工的全部可用时间窗口
func (r *AvailabilityRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	query := selectWindow + `
		WHERE employee_id = $1 AND deleted_at IS NULL
		ORDER BY start_time, id`
	return r.queryWindows(ctx, query, employeeID)
}

// ListByCompany 查询公司在某个时间范围内的全部可用时间窗口（规划输入快照使用）
// 与范围有交集的窗口都会返回
func (r *AvailabilityRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*model.AvailabilityWindow, error) {
	query := selectWindow + `
		WHERE company_id = $1 AND start_time < $3 AND end_time > $2 AND deleted_at IS NULL
		ORDER BY employee_id, start_time, id`
	return r.queryWindows(ctx, query, companyID, start, end)
}

const selectWindow = `
	SELECT id, company_id, employee_id, start_time, end_time, note,
		created_at, updated_at
	FROM availability_windows`

func (r *AvailabilityRepository) queryWindows(ctx context.Context, query string, args ...interface{}) ([]*model.AvailabilityWindow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询可用时间窗口失败: %w", err)
	}
	defer rows.Close()

	windows := make([]*model.AvailabilityWindow, 0)
	for rows.Next() {
		window, err := r.scanWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, rows.Err()
}

func (r *AvailabilityRepository) scanWindow(row Scanner) (*model.AvailabilityWindow, error) {
	var window model.AvailabilityWindow
	err := row.Scan(
		&window.ID, &window.CompanyID, &window.EmployeeID,
		&window.Range.Start, &window.Range.End, &window.Note,
		&window.CreatedAt, &window.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描可用时间窗口数据失败: %w", err)
	}
	return &window, nil
}
