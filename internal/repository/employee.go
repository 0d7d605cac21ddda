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

// EmployeeRepository 员工仓储
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	skillsJSON, _ := json.Marshal(emp.Skills)
	expJSON, _ := json.Marshal(emp.Experience)
	locJSON, _ := json.Marshal(emp.HomeLocation)

	query := `
		INSERT INTO employees (
			id, company_id, name, code, email, status,
			skills, no_show_probability, experience, home_location,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.CompanyID, emp.Name, emp.Code, emp.Email, emp.Status,
		skillsJSON, emp.NoShowProbability, expJSON, locJSON,
		emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取员工
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := selectEmployee + ` WHERE id = $1 AND deleted_at IS NULL`
	return r.scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据公司和工号获取员工
func (r *EmployeeRepository) GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*model.Employee, error) {
	query := selectEmployee + ` WHERE company_id = $1 AND code = $2 AND deleted_at IS NULL`
	return r.scanEmployee(r.db.QueryRowContext(ctx, query, companyID, code))
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, emp *model.Employee) error {
	emp.UpdatedAt = time.Now()

	skillsJSON, _ := json.Marshal(emp.Skills)
	expJSON, _ := json.Marshal(emp.Experience)
	locJSON, _ := json.Marshal(emp.HomeLocation)

	query := `
		UPDATE employees SET
			name = $2, code = $3, email = $4, status = $5,
			skills = $6, no_show_probability = $7, experience = $8,
			home_location = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Code, emp.Email, emp.Status,
		skillsJSON, emp.NoShowProbability, expJSON, locJSON, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("员工", emp.ID.String())
	}
	return nil
}

// Delete 软删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("员工", id.String())
	}
	return nil
}

// List 查询员工列表，返回当前页数据与总数
func (r *EmployeeRepository) List(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0)

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM employees WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计员工失败: %w", err)
	}

	query := selectEmployee + ` WHERE ` + where + orderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limitOf(filter), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询员工失败: %w", err)
	}
	defer rows.Close()

	employees := make([]*model.Employee, 0)
	for rows.Next() {
		emp, err := r.scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}
	return employees, total, rows.Err()
}

// ListActive 查询公司的全部在职员工（规划输入快照使用，不分页）
func (r *EmployeeRepository) ListActive(ctx context.Context, companyID uuid.UUID) ([]*model.Employee, error) {
	query := selectEmployee + ` WHERE company_id = $1 AND status = $2 AND deleted_at IS NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, companyID, model.EmployeeStatusActive)
	if err != nil {
		return nil, fmt.Errorf("查询在职员工失败: %w", err)
	}
	defer rows.Close()

	employees := make([]*model.Employee, 0)
	for rows.Next() {
		emp, err := r.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

const selectEmployee = `
	SELECT id, company_id, name, code, email, status,
		skills, no_show_probability, experience, home_location,
		created_at, updated_at
	FROM employees`

// scanEmployee 扫描单行员工数据
func (r *EmployeeRepository) scanEmployee(row Scanner) (*model.Employee, error) {
	var emp model.Employee
	var skillsJSON, expJSON, locJSON []byte

	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.Name, &emp.Code, &emp.Email, &emp.Status,
		&skillsJSON, &emp.NoShowProbability, &expJSON, &locJSON,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	if len(skillsJSON) > 0 {
		json.Unmarshal(skillsJSON, &emp.Skills)
	}
	if len(expJSON) > 0 {
		json.Unmarshal(expJSON, &emp.Experience)
	}
	if len(locJSON) > 0 && string(locJSON) != "null" {
		json.Unmarshal(locJSON, &emp.HomeLocation)
	}
	return &emp, nil
}

func orderClause(filter ListFilter) string {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	// 白名单防注入
	switch orderBy {
	case "created_at", "updated_at", "name", "code", "status", "start_time":
	default:
		orderBy = "created_at"
	}
	return fmt.Sprintf(" ORDER BY %s %s", orderBy, dir)
}

func limitOf(filter ListFilter) int {
	if filter.Limit <= 0 {
		return 20
	}
	return filter.Limit
}
