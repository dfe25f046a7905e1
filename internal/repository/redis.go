package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewRedisStore(cfg *config.Config, rdb *redis.Client) *RedisStore {
	return &RedisStore{cfg: cfg, rdb: rdb}
}

func selectionKey(student string) string {
	return fmt.Sprintf("planner:selections:%s", student)
}

func (s *RedisStore) timeout() time.Duration {
	return time.Duration(s.cfg.Redis.OperationExpiration) * time.Second
}

func (s *RedisStore) LoadSelections(ctx context.Context, student string) ([]domain.SelectionEntry, error) {
	if err := ValidateStudent(student); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	data, err := s.rdb.Get(ctx, selectionKey(student)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.SelectionEntry{}, nil
		}
		return nil, err
	}

	entries := []domain.SelectionEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("seleções de %s inválidas no redis: %w", student, err)
	}
	return entries, nil
}

// SaveSelections 选课记录不设置过期时间
func (s *RedisStore) SaveSelections(ctx context.Context, student string, entries []domain.SelectionEntry) error {
	if err := ValidateStudent(student); err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.SelectionEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	return s.rdb.Set(ctx, selectionKey(student), data, 0).Err()
}
