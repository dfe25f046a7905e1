package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
)

var ErrMissingColumn = errors.New("coluna obrigatória ausente")

// 导入文件必须包含的列，表头经过 Fold 比较
var requiredColumns = []string{"aluno", "codigo", "turma"}

// Batch 是导入文件中按学生分组后的选课记录，Students 保持文件中首次出现的顺序
type Batch struct {
	Students []string
	Entries  map[string][]domain.SelectionEntry
}

// ReadSelections 读取 "aluno,codigo,turma" 格式的 CSV
func ReadSelections(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, catalog.ErrEmptyCatalog
		}
		return nil, err
	}

	index := make(map[string]int)
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		index[catalog.Fold(header)] = i
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	batch := &Batch{Entries: make(map[string][]domain.SelectionEntry)}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("linha %d: %w", line, err)
		}

		field := func(column string) string {
			i := index[column]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		student := field("aluno")
		code := field("codigo")
		if student == "" || code == "" {
			slog.Warn("跳过不完整的记录", "line", line)
			continue
		}

		if _, ok := batch.Entries[student]; !ok {
			batch.Students = append(batch.Students, student)
		}
		batch.Entries[student] = append(batch.Entries[student], domain.SelectionEntry{
			Code:  code,
			Class: field("turma"),
		})
	}

	return batch, nil
}

/**
 * Import 把每个学生的选课依次加入课表后写入存储
 * 在目录中找不到、与已加入的课程冲突或者学生标识不合法的记录会被跳过并记录日志
 * 返回成功写入的学生数量
 */
func Import(ctx context.Context, store repository.SelectionStore, parser *scheduler.Parser, sections []*domain.Section, batch *Batch) (int, error) {
	cnt := 0
	for _, student := range batch.Students {
		if err := repository.ValidateStudent(student); err != nil {
			slog.Error("学生标识不合法", "student", student)
			continue
		}

		planner := scheduler.New(parser, sections)
		for _, entry := range batch.Entries[student] {
			section, err := planner.Lookup(entry.Code, entry.Class)
			if err != nil {
				slog.Warn("目录中不存在该教学班", "student", student, "code", entry.Code, "class", entry.Class)
				continue
			}
			if _, err := planner.Add(section); err != nil {
				slog.Warn("无法加入课表", "student", student, "code", entry.Code, "class", entry.Class, "error", err)
				continue
			}
		}

		if err := store.SaveSelections(ctx, student, planner.Entries()); err != nil {
			return cnt, fmt.Errorf("aluno %s: %w", student, err)
		}
		cnt++
	}

	slog.Info("导入选课完成", "students", cnt)
	return cnt, nil
}

// RandomSelection 随机挑选最多 n 个互不冲突的教学班
func RandomSelection(rng *rand.Rand, parser *scheduler.Parser, sections []*domain.Section, n int) []domain.SelectionEntry {
	shuffled := append([]*domain.Section{}, sections...)

	// Fisher-Yates 洗牌
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	planner := scheduler.New(parser, sections)
	for _, section := range shuffled {
		if len(planner.Selected()) >= n {
			break
		}
		// 冲突或时间码不合法的教学班直接跳过
		_, _ = planner.Add(section)
	}
	return planner.Entries()
}

var digits = "0123456789"

// RandomStudent 生成形如 aluno4821 的学生标识
func RandomStudent(rng *rand.Rand) string {
	id := make([]byte, 4)
	for i := range id {
		id[i] = digits[rng.Intn(len(digits))]
	}
	return "aluno" + string(id)
}
