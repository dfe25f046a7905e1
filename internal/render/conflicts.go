package render

import (
	"fmt"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/scheduler"
)

// DescribeConflicts 生成给用户看的冲突说明，每个冲突的教学班一行
func DescribeConflicts(candidate *domain.Section, conflicts scheduler.Conflicts) []string {
	lines := make([]string, 0, len(conflicts)+1)
	lines = append(lines, fmt.Sprintf("Conflitos detectados para '%s' (%s) - Turma %s:", candidate.Name, candidate.Code, candidate.Class))

	for _, conflict := range conflicts {
		times := make([]string, 0, len(conflict.Pairs))
		seen := make(map[string]bool)
		for _, pair := range conflict.Pairs {
			t := pair.A.String()
			if seen[t] {
				continue
			}
			seen[t] = true
			times = append(times, t)
		}

		s := conflict.Section
		lines = append(lines, fmt.Sprintf("  → conflita com '%s' (%s) - Turma %s em %s", s.Name, s.Code, s.Class, strings.Join(times, ", ")))
	}

	return lines
}
