package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
)

var ErrEmptyCatalog = errors.New("arquivo de disciplinas sem cabeçalho")

// 表头经过 Fold 之后与字段的对应关系
var columns = map[string]func(s *domain.Section, v string){
	"orgao ofertante": func(s *domain.Section, v string) { s.Department = v },
	"periodo":         func(s *domain.Section, v string) { s.Term = v },
	"turma":           func(s *domain.Section, v string) { s.Class = v },
	"codigo":          func(s *domain.Section, v string) { s.Code = v },
	"disciplina":      func(s *domain.Section, v string) { s.Name = v },
	"docente":         func(s *domain.Section, v string) { s.Teacher = v },
	"horario":         func(s *domain.Section, v string) { s.Schedule = v },
	"sala/lab":        func(s *domain.Section, v string) { s.Room = v },
}

// Load 从带表头的 CSV 中读取教学班，缺失的列留空，未知的列忽略
func Load(r io.Reader) ([]*domain.Section, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("não foi possível ler o cabeçalho: %w", err)
	}

	setters := make([]func(s *domain.Section, v string), len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		setters[i] = columns[Fold(header)]
	}

	sections := make([]*domain.Section, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("linha %d: %w", line, err)
		}

		s := &domain.Section{}
		empty := true
		for i, value := range record {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				empty = false
			}
			setters[i](s, value)
		}

		if empty {
			continue
		}
		sections = append(sections, s)
	}

	return sections, nil
}

func LoadFile(path string) ([]*domain.Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Load(file)
}
