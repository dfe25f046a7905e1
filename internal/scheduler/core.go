package scheduler

import (
	"fmt"

	"github.com/cin-planner/planejador/internal/domain"
)

// SlotPair 是两个教学班之间重叠的一对时间段
type SlotPair struct {
	A TimeSlot `json:"a"`
	B TimeSlot `json:"b"`
}

// SectionConflict 记录候选教学班与某个已选教学班之间的全部重叠
type SectionConflict struct {
	Section *domain.Section `json:"section"`
	Pairs   []SlotPair      `json:"pairs"`
}

// Conflicts 按已选列表的顺序排列
type Conflicts []SectionConflict

// ByKey 以教学班标识为键返回同样的信息
func (c Conflicts) ByKey() map[string][]SlotPair {
	m := make(map[string][]SlotPair, len(c))
	for _, conflict := range c {
		m[conflict.Section.Key()] = conflict.Pairs
	}
	return m
}

// Overlaps 判断两个时间段是否冲突：同一天、同一时段且时间区间相交
// 端点相接（一个结束时另一个开始）不算冲突
func Overlaps(a TimeSlot, b TimeSlot) bool {
	if a.Day != b.Day || a.Period != b.Period {
		return false
	}
	return a.Interval().Intersects(b.Interval())
}

// SectionSlots 逐组展开教学班的所有时间码，出错时 TimeCodeError 指向出错的那一组
func (p *Parser) SectionSlots(s *domain.Section) ([]TimeSlot, error) {
	slots, err := p.ParseAll(s.TimeCodes()...)
	if err != nil {
		return nil, fmt.Errorf("turma %s: %w", s.Key(), err)
	}
	return slots, nil
}

func pairs(a []TimeSlot, b []TimeSlot) []SlotPair {
	var result []SlotPair
	for _, sa := range a {
		for _, sb := range b {
			if Overlaps(sa, sb) {
				result = append(result, SlotPair{A: sa, B: sb})
			}
		}
	}
	return result
}

// ConflictsBetweenSections 返回 a 与 b 之间所有重叠的时间段对，空结果表示两者兼容
func (p *Parser) ConflictsBetweenSections(a *domain.Section, b *domain.Section) ([]SlotPair, error) {
	slotsA, err := p.SectionSlots(a)
	if err != nil {
		return nil, err
	}
	slotsB, err := p.SectionSlots(b)
	if err != nil {
		return nil, err
	}
	return pairs(slotsA, slotsB), nil
}

// FindConflicts 找出 candidate 与已选教学班之间的冲突，没有冲突的教学班不会出现在结果中
func (p *Parser) FindConflicts(candidate *domain.Section, selection []*domain.Section) (Conflicts, error) {
	candidateSlots, err := p.SectionSlots(candidate)
	if err != nil {
		return nil, err
	}

	var conflicts Conflicts
	for _, selected := range selection {
		if selected.Key() == candidate.Key() {
			// 自己和自己不算冲突
			continue
		}

		selectedSlots, err := p.SectionSlots(selected)
		if err != nil {
			return nil, err
		}

		if found := pairs(candidateSlots, selectedSlots); len(found) > 0 {
			conflicts = append(conflicts, SectionConflict{
				Section: selected,
				Pairs:   found,
			})
		}
	}

	return conflicts, nil
}

func ConflictsBetweenSections(a *domain.Section, b *domain.Section) ([]SlotPair, error) {
	return defaultParser.ConflictsBetweenSections(a, b)
}

func FindConflicts(candidate *domain.Section, selection []*domain.Section) (Conflicts, error) {
	return defaultParser.FindConflicts(candidate, selection)
}
