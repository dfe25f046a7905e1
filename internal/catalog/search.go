package catalog

import (
	"sort"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
)

const (
	SearchLimit     = 10
	SearchThreshold = 0.3
)

// FindByCode 按课程代码查找（不区分大小写），同一课程的所有班级都会返回
func FindByCode(sections []*domain.Section, code string) []*domain.Section {
	code = strings.TrimSpace(code)
	var matches []*domain.Section
	for _, s := range sections {
		if strings.EqualFold(s.Code, code) {
			matches = append(matches, s)
		}
	}
	return matches
}

type scored struct {
	section *domain.Section
	score   float64
}

// Score 计算查询与课程名称之间的相似度
// 对每个查询词和名称词，若一个包含另一个，则加上 短词长度/长词长度，最后除以查询词数量
func Score(query string, name string) float64 {
	queryWords := strings.Fields(Fold(query))
	if len(queryWords) == 0 {
		return 0
	}
	nameWords := strings.Fields(Fold(name))

	score := 0.0
	for _, q := range queryWords {
		for _, n := range nameWords {
			if !strings.Contains(n, q) && !strings.Contains(q, n) {
				continue
			}
			ql, nl := len([]rune(q)), len([]rune(n))
			if nl >= ql {
				score += float64(ql) / float64(nl)
			} else {
				score += float64(nl) / float64(ql)
			}
		}
	}

	return score / float64(len(queryWords))
}

// Search 按名称做模糊查找，返回得分最高的若干个结果
func Search(sections []*domain.Section, query string) []*domain.Section {
	results := make([]scored, 0, len(sections))
	for _, s := range sections {
		results = append(results, scored{section: s, score: Score(query, s.Name)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	var matches []*domain.Section
	for i := 0; i < len(results) && i < SearchLimit; i++ {
		if results[i].score <= SearchThreshold {
			break
		}
		matches = append(matches, results[i].section)
	}
	return matches
}

// SortByName 返回按名称排序后的副本
func SortByName(sections []*domain.Section) []*domain.Section {
	sorted := append([]*domain.Section{}, sections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Fold(sorted[i].Name) < Fold(sorted[j].Name)
	})
	return sorted
}
