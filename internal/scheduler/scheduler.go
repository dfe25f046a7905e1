package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
)

var (
	ErrAlreadySelected       = errors.New("disciplina já está no cronograma")
	ErrNotSelected           = errors.New("disciplina não está no cronograma")
	ErrCourseAlreadySelected = errors.New("outra turma desta disciplina já está no cronograma")
	ErrScheduleConflict      = errors.New("conflito de horário")
	ErrSectionNotFound       = errors.New("disciplina não encontrada")
)

type Status string

const (
	StatusSelected    Status = "Selecionada"
	StatusAvailable   Status = "Disponível"
	StatusUnavailable Status = "Indisponível"
	StatusInvalid     Status = "Horário inválido"
)

// Planner 持有课程目录以及当前的选课情况
// 时间段不做缓存，每次都从教学班的时间码重新解析
type Planner struct {
	parser   *Parser
	sections []*domain.Section
	selected []*domain.Section
}

func New(parser *Parser, sections []*domain.Section) *Planner {
	if parser == nil {
		parser = defaultParser
	}
	return &Planner{
		parser:   parser,
		sections: sections,
		selected: make([]*domain.Section, 0),
	}
}

func (p *Planner) Parser() *Parser {
	return p.parser
}

// Sections 返回按名称排序的全部教学班
func (p *Planner) Sections() []*domain.Section {
	sorted := append([]*domain.Section{}, p.sections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}

// Selected 按加入顺序返回已选教学班
func (p *Planner) Selected() []*domain.Section {
	return append([]*domain.Section{}, p.selected...)
}

func (p *Planner) IsSelected(s *domain.Section) bool {
	for _, selected := range p.selected {
		if selected.Key() == s.Key() {
			return true
		}
	}
	return false
}

// Lookup 按课程代码和班号查找教学班
func (p *Planner) Lookup(code string, class string) (*domain.Section, error) {
	key := domain.SectionKey(code, class)
	for _, s := range p.sections {
		if s.Key() == key {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, key)
}

// Restore 恢复持久化的选课记录，找不到的记录会被返回给调用方
// 没有课程代码的记录是旧格式，按课程名称匹配
func (p *Planner) Restore(entries []domain.SelectionEntry) []domain.SelectionEntry {
	var missing []domain.SelectionEntry

	for _, entry := range entries {
		var matched []*domain.Section

		for _, s := range p.sections {
			if entry.Code != "" {
				if s.Key() == entry.Key() {
					matched = append(matched, s)
					break
				}
			} else if s.Name == entry.Name {
				matched = append(matched, s)
			}
		}

		if len(matched) == 0 {
			missing = append(missing, entry)
			continue
		}

		for _, s := range matched {
			if !p.IsSelected(s) {
				p.selected = append(p.selected, s)
			}
		}
	}

	return missing
}

// Entries 返回需要持久化的选课记录
func (p *Planner) Entries() []domain.SelectionEntry {
	entries := make([]domain.SelectionEntry, 0, len(p.selected))
	for _, s := range p.selected {
		entries = append(entries, domain.NewSelectionEntry(s))
	}
	return entries
}

// Add 在没有冲突的情况下把教学班加入课表
// 存在冲突时返回 ErrScheduleConflict 以及具体的冲突信息，课表保持不变
func (p *Planner) Add(s *domain.Section) (Conflicts, error) {
	if p.IsSelected(s) {
		return nil, ErrAlreadySelected
	}

	for _, selected := range p.selected {
		if strings.EqualFold(selected.Code, s.Code) {
			return nil, fmt.Errorf("%w: turma %s", ErrCourseAlreadySelected, selected.Class)
		}
	}

	conflicts, err := p.parser.FindConflicts(s, p.selected)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, ErrScheduleConflict
	}

	p.selected = append(p.selected, s)
	return nil, nil
}

func (p *Planner) Remove(s *domain.Section) error {
	for i, selected := range p.selected {
		if selected.Key() == s.Key() {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			return nil
		}
	}
	return ErrNotSelected
}

// Status 计算教学班在当前课表下的状态
func (p *Planner) Status(s *domain.Section) Status {
	if p.IsSelected(s) {
		return StatusSelected
	}

	// 与 Add 一致：同一课程的其他班已在课表中时不能再选
	for _, selected := range p.selected {
		if strings.EqualFold(selected.Code, s.Code) {
			return StatusUnavailable
		}
	}

	conflicts, err := p.parser.FindConflicts(s, p.selected)
	switch {
	case err == nil && len(conflicts) == 0:
		return StatusAvailable
	case err == nil:
		return StatusUnavailable
	}

	// 区分是候选本身的时间码有问题，还是已选教学班有问题
	if _, parseErr := p.parser.SectionSlots(s); parseErr != nil {
		return StatusInvalid
	}
	return StatusUnavailable
}

/**
 * 按时间码查找教学班
 * 只考虑查询中出现的星期：教学班在这些天必须有课，且这些天的所有节次都落在查询的节次之内
 */
func (p *Planner) FindByTimeCode(code string) ([]*domain.Section, error) {
	query, err := p.parser.Parse(code)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedTimeCode, code)
	}

	type slotKey struct {
		day    Day
		period Period
		hour   int
	}
	allowed := make(map[slotKey]bool)
	days := make(map[Day]bool)
	for _, slot := range query {
		allowed[slotKey{slot.Day, slot.Period, slot.Hour}] = true
		days[slot.Day] = true
	}

	var result []*domain.Section
	for _, s := range p.Sections() {
		slots, err := p.parser.SectionSlots(s)
		if err != nil {
			// 时间码无法解析的教学班无法判断是否落在查询范围内
			continue
		}

		onDays := 0
		inside := true
		for _, slot := range slots {
			if !days[slot.Day] {
				continue
			}
			onDays++
			if !allowed[slotKey{slot.Day, slot.Period, slot.Hour}] {
				inside = false
				break
			}
		}

		if onDays > 0 && inside {
			result = append(result, s)
		}
	}

	return result, nil
}
