package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/scheduler"
)

// truncate 超过 max 个字符时截断并加上省略号
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// SectionTable 输出教学班列表，status 为 nil 时不输出状态列
func SectionTable(w io.Writer, title string, sections []*domain.Section, status func(*domain.Section) scheduler.Status) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintf(w, "Nenhum resultado encontrado para: %s\n", title)
		return err
	}

	if title != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
	}

	tw := newTabWriter(w)
	header := "#\tCurso\tCódigo\tTurma\tDisciplina\tDocente\tHorário"
	if status != nil {
		header += "\tStatus"
	}
	fmt.Fprintln(tw, header)

	for i, s := range sections {
		row := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%s",
			i+1,
			truncate(s.Department, 11),
			s.Code,
			s.Class,
			truncate(s.Name, 36),
			truncate(s.Teacher, 16),
			s.Schedule,
		)
		if status != nil {
			row += "\t" + string(status(s))
		}
		fmt.Fprintln(tw, row)
	}

	return tw.Flush()
}
