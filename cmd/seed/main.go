package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/cin-planner/planejador/internal/seed"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var k int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 为随机学生生成选课, 2: 从 CSV 导入选课)")
	flag.IntVar(&n, "n", 5, "要生成的学生数量")
	flag.IntVar(&k, "k", 4, "每个学生最多选择的教学班数量")
	flag.StringVar(&file, "file", "selecoes.csv", "要导入的 CSV 文件 (aluno,codigo,turma)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 读取课程目录
	sections, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Error("无法加载课程目录", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	table := scheduler.DefaultTable()
	if !cfg.Schedule.AllowSaturday {
		table = scheduler.WeekdayTable()
	}
	parser := scheduler.NewParser(table)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// 按存储类型建立连接
	var dbpool *sql.DB
	var rdb *redis.Client
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		dbpool, err = sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("无法创建数据库连接池", "error", err)
			return
		}
		defer dbpool.Close()

		// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("无法连接到数据库", "error", err)
			return
		}
		if err := repository.NewRepository(cfg, dbpool).EnsureSchema(ctx); err != nil {
			logger.Error("无法创建数据表", "error", err)
			return
		}
	case config.StorageRedis:
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("无法连接到 redis", "error", err)
			return
		}
	}

	store, err := repository.New(cfg, dbpool, rdb)
	if err != nil {
		logger.Error("无法创建存储", "error", err)
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 || k <= 0 {
			slog.Error("请输入合法的学生数量和教学班数量")
			return
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		cnt := 0
		for i := 0; i < n; i++ {
			student := seed.RandomStudent(rng)
			entries := seed.RandomSelection(rng, parser, sections, k)
			if err := store.SaveSelections(context.Background(), student, entries); err != nil {
				slog.Error("无法保存选课", "student", student, slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("生成随机选课成功", slog.Int("count", cnt))
	case 2:
		f, err := os.Open(file)
		if err != nil {
			slog.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		batch, err := seed.ReadSelections(f)
		if err != nil {
			slog.Error("读取文件失败", "error", err)
			return
		}

		if _, err := seed.Import(context.Background(), store, parser, sections, batch); err != nil {
			slog.Error("导入选课失败", "error", err)
			return
		}
	default:
		slog.Error("指定的操作非法")
	}
}
