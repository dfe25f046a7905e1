package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// session 是一次命令执行期间的目录、存储和选课状态
type session struct {
	cfg     *config.Config
	student string
	store   repository.SelectionStore
	planner *scheduler.Planner
	missing []domain.SelectionEntry
	closers []func() error
}

func configFrom(ctx *cli.Context) *config.Config {
	if cfg, ok := ctx.App.Metadata[configMetadataKey].(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

func newParser(cfg *config.Config) *scheduler.Parser {
	if cfg.Schedule.AllowSaturday {
		return scheduler.NewParser(scheduler.DefaultTable())
	}
	return scheduler.NewParser(scheduler.WeekdayTable())
}

func openStore(ctx context.Context, cfg *config.Config) (repository.SelectionStore, []func() error, error) {
	var (
		db      *sql.DB
		rdb     *redis.Client
		closers []func() error
	)

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		var err error
		db, err = sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)

		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return nil, closers, fmt.Errorf("não foi possível conectar ao banco de dados: %w", err)
		}
		if err := repository.NewRepository(cfg, db).EnsureSchema(ctx); err != nil {
			return nil, closers, err
		}
	case config.StorageRedis:
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		closers = append(closers, rdb.Close)
	}

	store, err := repository.New(cfg, db, rdb)
	return store, closers, err
}

/**
 * openSession 加载课程目录和已保存的选课
 * 选课记录损坏时给出警告并从空课表开始
 */
func openSession(ctx *cli.Context) (*session, error) {
	base := configFrom(ctx)
	cfg := *base
	cfg.Storage.SelectionsFile = ctx.String(selectionsFlagName)
	cfg.Storage.DefaultStudent = ctx.String(studentFlagName)
	if err := repository.ValidateStudent(cfg.Storage.DefaultStudent); err != nil {
		return nil, err
	}

	path := ctx.String(csvFlagName)
	sections, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("não foi possível carregar %s: %w", path, err)
	}

	s := &session{
		cfg:     &cfg,
		student: cfg.Storage.DefaultStudent,
		planner: scheduler.New(newParser(&cfg), sections),
	}

	store, closers, err := openStore(ctx.Context, &cfg)
	s.closers = closers
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store

	entries, err := store.LoadSelections(ctx.Context, s.student)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidStudent) {
			s.Close()
			return nil, err
		}
		fmt.Fprintf(ctx.App.ErrWriter, "Erro ao carregar seleções: %v\n", err)
		entries = nil
	}

	s.missing = s.planner.Restore(entries)
	for _, entry := range s.missing {
		slog.Warn("已保存的选课在目录中不存在", "code", entry.Code, "class", entry.Class, "name", entry.Name)
	}

	return s, nil
}

// save 保存当前选课，目录中找不到的旧记录原样保留
func (s *session) save(ctx context.Context) error {
	entries := append(s.planner.Entries(), s.missing...)
	return s.store.SaveSelections(ctx, s.student, entries)
}

func (s *session) Close() {
	for _, closer := range s.closers {
		_ = closer()
	}
}
