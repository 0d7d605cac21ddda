package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/dingban/dingban/pkg/errors"
	"github.com/dingban/dingban/pkg/model"
)

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	skillsJSON, _ := json.Marshal(shift.RequiredSkills)
	locJSON, _ := json.Marshal(shift.Location)

	query := `
		INSERT INTO shifts (
			id, company_id, title, description, start_time, end_time,
			capacity, shift_type, required_skills, location,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.CompanyID, shift.Title, shift.Description,
		shift.Start, shift.End, shift.Capacity, shift.ShiftType,
		skillsJSON, locJSON, shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取班次（含分配列表）
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := selectShift + ` WHERE id = $1 AND deleted_at IS NULL`
	shift, err := r.scanShift(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadAssignments(ctx, []*model.Shift{shift}); err != nil {
		return nil, err
	}
	return shift, nil
}

// Update 更新班次
func (r *ShiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	shift.UpdatedAt = time.Now()

	skillsJSON, _ := json.Marshal(shift.RequiredSkills)
	locJSON, _ := json.Marshal(shift.Location)

	query := `
		UPDATE shifts SET
			title = $2, description = $3, start_time = $4, end_time = $5,
			capacity = $6, shift_type = $7, required_skills = $8,
			location = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Title, shift.Description, shift.Start, shift.End,
		shift.Capacity, shift.ShiftType, skillsJSON, locJSON, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("班次", shift.ID.String())
	}
	return nil
}

// Delete 软删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shifts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("班次", id.String())
	}
	return nil
}

// List 查询班次列表
func (r *ShiftRepository) List(ctx context.Context, filter ListFilter) ([]*model.Shift, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0)

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filter.EndDate != "" {
		args = append(args, filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM shifts WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计班次失败: %w", err)
	}

	query := selectShift + ` WHERE ` + where + orderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limitOf(filter), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	shifts := make([]*model.Shift, 0)
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadAssignments(ctx, shifts); err != nil {
		return nil, 0, err
	}
	return shifts, total, nil
}

// ListInRange 查询公司在某个时间范围内的全部班次（规划输入快照使用）
func (r *ShiftRepository) ListInRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*model.Shift, error) {
	query := selectShift + `
		WHERE company_id = $1 AND start_time >= $2 AND start_time < $3 AND deleted_at IS NULL
		ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	shifts := make([]*model.Shift, 0)
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadAssignments(ctx, shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

const selectShift = `
	SELECT id, company_id, title, description, start_time, end_time,
		capacity, shift_type, required_skills, location,
		created_at, updated_at
	FROM shifts`

func (r *ShiftRepository) scanShift(row Scanner) (*model.Shift, error) {
	var shift model.Shift
	var skillsJSON, locJSON []byte

	err := row.Scan(
		&shift.ID, &shift.CompanyID, &shift.Title, &shift.Description,
		&shift.Start, &shift.End, &shift.Capacity, &shift.ShiftType,
		&skillsJSON, &locJSON, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次数据失败: %w", err)
	}

	if len(skillsJSON) > 0 {
		json.Unmarshal(skillsJSON, &shift.RequiredSkills)
	}
	if len(locJSON) > 0 && string(locJSON) != "null" {
		json.Unmarshal(locJSON, &shift.Location)
	}
	return &shift, nil
}

// loadAssignments 批量加载班次的已分配与待确认员工列表
func (r *ShiftRepository) loadAssignments(ctx context.Context, shifts []*model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	shiftMap := make(map[uuid.UUID]*model.Shift, len(shifts))
	placeholders := make([]string, 0, len(shifts))
	args := make([]interface{}, 0, len(shifts))
	for i, s := range shifts {
		shiftMap[s.ID] = s
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, s.ID)
	}

	query := fmt.Sprintf(`
		SELECT shift_id, employee_id, status
		FROM assignments
		WHERE shift_id IN (%s) AND deleted_at IS NULL
		ORDER BY created_at, employee_id`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("加载班次分配失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var shiftID, empID uuid.UUID
		var status model.AssignmentStatus
		if err := rows.Scan(&shiftID, &empID, &status); err != nil {
			return fmt.Errorf("扫描分配数据失败: %w", err)
		}
		shift := shiftMap[shiftID]
		if shift == nil {
			continue
		}
		switch status {
		case model.AssignmentConfirmed:
			shift.AssignedIDs = append(shift.AssignedIDs, empID)
		case model.AssignmentPending:
			shift.PendingIDs = append(shift.PendingIDs, empID)
		}
	}
	return rows.Err()
}
