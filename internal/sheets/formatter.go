package sheets

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/scheduler"
)

// Header 是格式化后的目录 CSV 的表头，catalog.Load 可以直接读取
var Header = []string{"Órgão ofertante", "Turma", "Código", "Disciplina", "Docente", "Horário", "Sala/Lab"}

var (
	codeNamePattern  = regexp.MustCompile(`^([A-Z]{2,}\d{3,})\s*-\s*(.+)$`)
	codePattern      = regexp.MustCompile(`^[A-Z]{2,}\d{3,}`)
	roomPattern      = regexp.MustCompile(`\(([^)]+)\)`)
	slashPattern     = regexp.MustCompile(`\s+/\s+`)
	spacesPattern    = regexp.MustCompile(`\s+`)
	dayPeriodPattern = regexp.MustCompile(`^(seg|ter|qua|qui|sex|sab)\.?\s*(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})`)
)

var dayAbbreviations = map[string]scheduler.Day{
	"seg": scheduler.Monday,
	"ter": scheduler.Tuesday,
	"qua": scheduler.Wednesday,
	"qui": scheduler.Thursday,
	"sex": scheduler.Friday,
	"sab": scheduler.Saturday,
}

// SplitCodeAndName 拆分 "CIN0130 - SISTEMAS DIGITAIS" 这样的文本
func SplitCodeAndName(text string) (string, string) {
	text = strings.TrimSpace(text)
	if m := codeNamePattern.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}

	// 退而求其次，用空格拆分
	parts := strings.SplitN(text, " ", 2)
	if len(parts) == 2 && codePattern.MatchString(parts[0]) {
		return parts[0], strings.TrimSpace(parts[1])
	}
	return "", text
}

// SplitScheduleAndRoom 把括号中的教室信息从上课时间文本中分离出来，教室去重并保持原顺序
func SplitScheduleAndRoom(text string) (string, string) {
	var rooms []string
	seen := make(map[string]bool)
	for _, m := range roomPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			rooms = append(rooms, m[1])
		}
	}

	schedule := roomPattern.ReplaceAllString(text, "")
	schedule = slashPattern.ReplaceAllString(schedule, " / ")
	schedule = strings.ReplaceAll(schedule, "  ", " ")

	return strings.TrimSpace(schedule), strings.Join(rooms, " ")
}

func CleanTeacher(teacher string) string {
	return strings.TrimSpace(spacesPattern.ReplaceAllString(teacher, " "))
}

func parseClock(s string) (scheduler.Clock, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("horário inválido: %s", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return scheduler.NewClock(h, m), nil
}

type conversionSlot struct {
	period   scheduler.Period
	hour     int
	interval scheduler.Interval
}

// conversionSlots 列出由时钟时间反推 SIGAA 节次时使用的节次
// 下午第 7 节与晚上第 1 节时间相同，反推时统一使用晚上第 1 节
func conversionSlots(table *scheduler.Table) []conversionSlot {
	var slots []conversionSlot
	for _, period := range []scheduler.Period{scheduler.Morning, scheduler.Afternoon, scheduler.Evening} {
		for i, interval := range table.Hours[period] {
			if period == scheduler.Afternoon && i+1 > 6 {
				continue
			}
			slots = append(slots, conversionSlot{period: period, hour: i + 1, interval: interval})
		}
	}
	return slots
}

/**
 * ScheduleToSIGAA 将 "Seg. 08:00-09:50 / Qua. 08:00-09:50" 转换为 "2M34 4M34"
 * 节次与上课时间段相交（左闭右开）即计入，同一 (星期, 时段) 的节次排序去重
 * 无法识别的片段会被忽略
 */
func ScheduleToSIGAA(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	type group struct {
		day    scheduler.Day
		period scheduler.Period
	}
	grouped := make(map[group]map[int]bool)
	slots := conversionSlots(scheduler.DefaultTable())

	for _, part := range strings.Split(raw, "/") {
		m := dayPeriodPattern.FindStringSubmatch(catalog.Fold(part))
		if m == nil {
			continue
		}
		day := dayAbbreviations[m[1]]
		start, err := parseClock(m[2])
		if err != nil {
			continue
		}
		end, err := parseClock(m[3])
		if err != nil {
			continue
		}
		class := scheduler.Interval{Start: start, End: end}

		for _, slot := range slots {
			if !slot.interval.Intersects(class) {
				continue
			}
			g := group{day: day, period: slot.period}
			if grouped[g] == nil {
				grouped[g] = make(map[int]bool)
			}
			grouped[g][slot.hour] = true
		}
	}

	codes := make([]string, 0, len(grouped))
	for g, hours := range grouped {
		sorted := make([]int, 0, len(hours))
		for h := range hours {
			sorted = append(sorted, h)
		}
		sort.Ints(sorted)

		var b strings.Builder
		fmt.Fprintf(&b, "%d%c", int(g.day), g.period.Letter())
		for _, h := range sorted {
			b.WriteString(strconv.Itoa(h))
		}
		codes = append(codes, b.String())
	}
	sort.Strings(codes)

	return strings.Join(codes, " ")
}

// ProcessRow 将合并后表格中的一行转换为目录格式
func ProcessRow(row []string) []string {
	for len(row) < 5 {
		row = append(row, "")
	}

	department, class, fullName, teacher, rawSchedule := row[0], row[1], row[2], row[3], row[4]
	code, name := SplitCodeAndName(fullName)
	schedule, room := SplitScheduleAndRoom(rawSchedule)

	return []string{
		strings.TrimSpace(department),
		strings.TrimSpace(class),
		code,
		name,
		CleanTeacher(teacher),
		ScheduleToSIGAA(schedule),
		room,
	}
}

// Format 跳过第一行表头、各标签页中重复的表头以及 "Período:" 行，只保留有课程代码和名称的行
func Format(rows [][]string) [][]string {
	formatted := [][]string{Header}
	if len(rows) == 0 {
		return formatted
	}

	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if strings.HasPrefix(first, "Período:") || strings.HasPrefix(first, "Órgão ofertante") {
			continue
		}

		processed := ProcessRow(append([]string{}, row...))
		if processed[2] != "" && processed[3] != "" {
			formatted = append(formatted, processed)
		}
	}

	return formatted
}

func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
