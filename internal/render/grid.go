package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/scheduler"
)

type GridRow struct {
	Period scheduler.Period `json:"period"`
	Hour   int              `json:"hour"`
	Label  string           `json:"label"`
	Cells  []string         `json:"cells"` // 与 Grid.Days 一一对应，空字符串表示没有课
}

// Grid 是一周的课表，列是星期，行是 (时段, 节次)
type Grid struct {
	Days []scheduler.Day `json:"days"`
	Rows []GridRow       `json:"rows"`
}

type cellKey struct {
	day    scheduler.Day
	period scheduler.Period
	hour   int
}

// coincides 判断某一节是否与其他时段的某一节时间完全相同（例如下午第 7 节与晚上第 1 节）
func coincides(table *scheduler.Table, period scheduler.Period, interval scheduler.Interval) bool {
	for other, intervals := range table.Hours {
		if other == period {
			continue
		}
		for _, iv := range intervals {
			if iv == interval {
				return true
			}
		}
	}
	return false
}

/**
 * BuildGrid 根据已选教学班构建周课表
 * 周六只有在有课时才显示；与其他时段时间重合的节次（下午第 7 节）同样只在有课时显示
 * 同一格中有多个教学班时用逗号分隔
 */
func BuildGrid(sections []*domain.Section, parser *scheduler.Parser) (Grid, error) {
	table := parser.Table()
	cells := make(map[cellKey][]string)
	usedDays := make(map[scheduler.Day]bool)

	for _, s := range sections {
		slots, err := parser.SectionSlots(s)
		if err != nil {
			return Grid{}, err
		}
		for _, slot := range slots {
			key := cellKey{slot.Day, slot.Period, slot.Hour}
			usedDays[slot.Day] = true
			if !contains(cells[key], s.Code) {
				cells[key] = append(cells[key], s.Code)
			}
		}
	}

	grid := Grid{}
	for _, day := range table.Days {
		if day == scheduler.Saturday && !usedDays[day] {
			continue
		}
		grid.Days = append(grid.Days, day)
	}

	for _, period := range []scheduler.Period{scheduler.Morning, scheduler.Afternoon, scheduler.Evening} {
		for i, interval := range table.Hours[period] {
			hour := i + 1

			used := false
			row := GridRow{
				Period: period,
				Hour:   hour,
				Label:  fmt.Sprintf("%s–%s", interval.Start, interval.End),
				Cells:  make([]string, len(grid.Days)),
			}
			for j, day := range grid.Days {
				codes := cells[cellKey{day, period, hour}]
				if len(codes) > 0 {
					used = true
					row.Cells[j] = strings.Join(codes, ", ")
				}
			}

			if !used && coincides(table, period, interval) && period != scheduler.Evening {
				continue
			}
			grid.Rows = append(grid.Rows, row)
		}
	}

	return grid, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func WriteGrid(w io.Writer, grid Grid) error {
	tw := newTabWriter(w)

	header := []string{"Hora"}
	for _, day := range grid.Days {
		header = append(header, day.String())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range grid.Rows {
		line := []string{row.Label}
		for _, cell := range row.Cells {
			if cell == "" {
				cell = "-"
			}
			line = append(line, cell)
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}

	return tw.Flush()
}
