package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dingban/dingban/pkg/logger"
)

// migration 单个迁移
type migration struct {
	name string
	sql  string
}

// migrations 按顺序执行，只追加不修改
var migrations = []migration{
	{
		name: "001_create_companies",
		sql: `
			CREATE TABLE IF NOT EXISTS companies (
				id          UUID PRIMARY KEY,
				name        TEXT NOT NULL,
				code        TEXT NOT NULL UNIQUE,
				settings    JSONB,
				created_at  TIMESTAMPTZ NOT NULL,
				updated_at  TIMESTAMPTZ NOT NULL,
				deleted_at  TIMESTAMPTZ
			)`,
	},
	{
		name: "002_create_employees",
		sql: `
			CREATE TABLE IF NOT EXISTS employees (
				id                  UUID PRIMARY KEY,
				company_id          UUID NOT NULL REFERENCES companies(id),
				name                TEXT NOT NULL,
				code                TEXT,
				email               TEXT,
				status              TEXT NOT NULL DEFAULT 'active',
				skills              JSONB,
				no_show_probability DOUBLE PRECISION NOT NULL DEFAULT 0,
				experience          JSONB,
				home_location       JSONB,
				created_at          TIMESTAMPTZ NOT NULL,
				updated_at          TIMESTAMPTZ NOT NULL,
				deleted_at          TIMESTAMPTZ
			);
			CREATE INDEX IF NOT EXISTS idx_employees_company ON employees(company_id) WHERE deleted_at IS NULL`,
	},
	{
		name: "003_create_shifts",
		sql: `
			CREATE TABLE IF NOT EXISTS shifts (
				id              UUID PRIMARY KEY,
				company_id      UUID NOT NULL REFERENCES companies(id),
				title           TEXT NOT NULL,
				description     TEXT,
				start_time      TIMESTAMPTZ NOT NULL,
				end_time        TIMESTAMPTZ NOT NULL,
				capacity        INT NOT NULL CHECK (capacity >= 1),
				shift_type      TEXT,
				required_skills JSONB,
				location        JSONB,
				created_at      TIMESTAMPTZ NOT NULL,
				updated_at      TIMESTAMPTZ NOT NULL,
				deleted_at      TIMESTAMPTZ,
				CHECK (start_time < end_time)
			);
			CREATE INDEX IF NOT EXISTS idx_shifts_company_time ON shifts(company_id, start_time) WHERE deleted_at IS NULL`,
	},
	{
		name: "004_create_availability_windows",
		sql: `
			CREATE TABLE IF NOT EXISTS availability_windows (
				id          UUID PRIMARY KEY,
				company_id  UUID NOT NULL REFERENCES companies(id),
				employee_id UUID NOT NULL REFERENCES employees(id),
				start_time  TIMESTAMPTZ NOT NULL,
				end_time    TIMESTAMPTZ NOT NULL,
				note        TEXT,
				created_at  TIMESTAMPTZ NOT NULL,
				updated_at  TIMESTAMPTZ NOT NULL,
				deleted_at  TIMESTAMPTZ,
				CHECK (start_time < end_time)
			);
			CREATE INDEX IF NOT EXISTS idx_windows_employee ON availability_windows(employee_id) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_windows_company_time ON availability_windows(company_id, start_time, end_time) WHERE deleted_at IS NULL`,
	},
	{
		name: "005_create_assignments",
		sql: `
			CREATE TABLE IF NOT EXISTS assignments (
				id          UUID PRIMARY KEY,
				company_id  UUID NOT NULL REFERENCES companies(id),
				employee_id UUID NOT NULL REFERENCES employees(id),
				shift_id    UUID NOT NULL REFERENCES shifts(id),
				status      TEXT NOT NULL DEFAULT 'pending',
				notes       TEXT,
				created_at  TIMESTAMPTZ NOT NULL,
				updated_at  TIMESTAMPTZ NOT NULL,
				deleted_at  TIMESTAMPTZ
			);
			CREATE INDEX IF NOT EXISTS idx_assignments_shift ON assignments(shift_id) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_assignments_employee ON assignments(employee_id) WHERE deleted_at IS NULL`,
	},
}

// Migrate 执行未应用的迁移
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("创建迁移记录表失败: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("查询迁移状态失败: %w", err)
		}
		if exists {
			continue
		}

		err = db.Transaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("执行迁移 %s 失败: %w", m.name, err)
		}

		logger.Info().Str("migration", m.name).Msg("迁移已应用")
	}

	return nil
}
