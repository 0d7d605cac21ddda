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

// CompanyRepository 公司（租户）仓储
type CompanyRepository struct {
	db DB
}

// NewCompanyRepository 创建公司仓储
func NewCompanyRepository(db DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create 创建公司
func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	settingsJSON, err := json.Marshal(company.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	query := `
		INSERT INTO companies (id, name, code, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		company.ID, company.Name, company.Code, settingsJSON,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建公司失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取公司
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	query := selectCompany + ` WHERE id = $1 AND deleted_at IS NULL`
	return r.scanCompany(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据Code获取公司
func (r *CompanyRepository) GetByCode(ctx context.Context, code string) (*model.Company, error) {
	query := selectCompany + ` WHERE code = $1 AND deleted_at IS NULL`
	return r.scanCompany(r.db.QueryRowContext(ctx, query, code))
}

// Update 更新公司
func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	company.UpdatedAt = time.Now()

	settingsJSON, err := json.Marshal(company.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	query := `
		UPDATE companies SET name = $2, code = $3, settings = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		company.ID, company.Name, company.Code, settingsJSON, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新公司失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("公司", company.ID.String())
	}
	return nil
}

// Delete 软删除公司
func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE companies SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除公司失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("公司", id.String())
	}
	return nil
}

// List 查询公司列表
func (r *CompanyRepository) List(ctx context.Context, filter ListFilter) ([]*model.Company, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM companies WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计公司失败: %w", err)
	}

	query := selectCompany + ` WHERE ` + where + orderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limitOf(filter), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询公司失败: %w", err)
	}
	defer rows.Close()

	companies := make([]*model.Company, 0)
	for rows.Next() {
		company, err := r.scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, company)
	}
	return companies, total, rows.Err()
}

const selectCompany = `
	SELECT id, name, code, settings, created_at, updated_at
	FROM companies`

func (r *CompanyRepository) scanCompany(row Scanner) (*model.Company, error) {
	var company model.Company
	var settingsJSON []byte

	err := row.Scan(
		&company.ID, &company.Name, &company.Code, &settingsJSON,
		&company.CreatedAt, &company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描公司数据失败: %w", err)
	}

	if len(settingsJSON) > 0 && string(settingsJSON) != "null" {
		json.Unmarshal(settingsJSON, &company.Settings)
	}
	return &company, nil
}
