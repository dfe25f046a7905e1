package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
)

// Repository 把选课保存在 PostgreSQL 的 selections 表中，每个学生的选课按 position 排序
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{cfg: cfg, dbpool: dbpool}
}

// EnsureSchema 在表不存在时创建
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS selections (
			student  TEXT    NOT NULL,
			position INTEGER NOT NULL,
			code     TEXT    NOT NULL,
			class    TEXT    NOT NULL DEFAULT '',
			name     TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (student, position)
		)
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query)
	return err
}

func (r *Repository) LoadSelections(ctx context.Context, student string) ([]domain.SelectionEntry, error) {
	if err := ValidateStudent(student); err != nil {
		return nil, err
	}

	query := `
		SELECT code, class, name FROM selections
		WHERE student = $1
		ORDER BY position
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, student)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.SelectionEntry, 0)
	for rows.Next() {
		var entry domain.SelectionEntry
		if err := rows.Scan(&entry.Code, &entry.Class, &entry.Name); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// SaveSelections 在一个事务中替换该学生的全部选课
func (r *Repository) SaveSelections(ctx context.Context, student string, entries []domain.SelectionEntry) error {
	if err := ValidateStudent(student); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM selections WHERE student = $1`, student); err != nil {
		return err
	}

	query := `
		INSERT INTO selections (student, position, code, class, name)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, student, i, entry.Code, entry.Class, entry.Name); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
