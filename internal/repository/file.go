package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cin-planner/planejador/internal/domain"
)

// FileStore 把选课保存为 JSON 数组，默认学生使用 path 本身，其他学生使用 "<name>-<student><ext>"
type FileStore struct {
	path           string
	defaultStudent string
	mu             sync.Mutex
}

func NewFileStore(path string, defaultStudent string) *FileStore {
	return &FileStore{path: path, defaultStudent: defaultStudent}
}

func (s *FileStore) pathFor(student string) (string, error) {
	if student == "" || student == s.defaultStudent {
		return s.path, nil
	}
	if err := ValidateStudent(student); err != nil {
		return "", err
	}

	ext := filepath.Ext(s.path)
	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(s.path, ext), student, ext), nil
}

// LoadSelections 文件不存在时返回空结果
func (s *FileStore) LoadSelections(ctx context.Context, student string) ([]domain.SelectionEntry, error) {
	path, err := s.pathFor(student)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.SelectionEntry{}, nil
		}
		return nil, err
	}

	entries := []domain.SelectionEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("arquivo de seleções %s inválido: %w", path, err)
	}
	return entries, nil
}

// SaveSelections 先写临时文件再重命名
func (s *FileStore) SaveSelections(ctx context.Context, student string, entries []domain.SelectionEntry) error {
	path, err := s.pathFor(student)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.SelectionEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		// 替换失败时不留下临时文件
		os.Remove(tmp)
		return err
	}
	return nil
}
