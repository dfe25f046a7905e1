package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidStudent = errors.New("identificador de aluno inválido")

var studentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SelectionStore 按学生保存已选教学班，保存的顺序即加入的顺序
type SelectionStore interface {
	LoadSelections(ctx context.Context, student string) ([]domain.SelectionEntry, error)
	SaveSelections(ctx context.Context, student string, entries []domain.SelectionEntry) error
}

func ValidateStudent(student string) error {
	if !studentPattern.MatchString(student) {
		return fmt.Errorf("%w: %q", ErrInvalidStudent, student)
	}
	return nil
}

/**
 * New 根据 STORAGE_DRIVER 选择存储实现
 * postgres 需要 db，redis 需要 rdb，其余情况使用本地 JSON 文件
 */
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (SelectionStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if db == nil {
			return nil, errors.New("postgres 存储需要数据库连接")
		}
		return NewRepository(cfg, db), nil
	case config.StorageRedis:
		if rdb == nil {
			return nil, errors.New("redis 存储需要 redis 客户端")
		}
		return NewRedisStore(cfg, rdb), nil
	case config.StorageFile, "":
		return NewFileStore(cfg.Storage.SelectionsFile, cfg.Storage.DefaultStudent), nil
	default:
		return nil, fmt.Errorf("未知的存储类型: %s", cfg.Storage.Driver)
	}
}
