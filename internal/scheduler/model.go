package scheduler

import (
	"fmt"
)

// Day 使用 SIGAA 的编号：2=周一 ... 7=周六
type Day int

const (
	Monday    Day = 2
	Tuesday   Day = 3
	Wednesday Day = 4
	Thursday  Day = 5
	Friday    Day = 6
	Saturday  Day = 7
)

var dayNames = map[Day]string{
	Monday:    "Segunda",
	Tuesday:   "Terça",
	Wednesday: "Quarta",
	Thursday:  "Quinta",
	Friday:    "Sexta",
	Saturday:  "Sábado",
}

func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dia(%d)", int(d))
}

type Period int

const (
	Morning Period = iota + 1
	Afternoon
	Evening
)

func (p Period) String() string {
	switch p {
	case Morning:
		return "Manhã"
	case Afternoon:
		return "Tarde"
	case Evening:
		return "Noite"
	default:
		return fmt.Sprintf("Turno(%d)", int(p))
	}
}

// Letter 返回时间码中代表这个时段的字母
func (p Period) Letter() byte {
	switch p {
	case Morning:
		return 'M'
	case Afternoon:
		return 'T'
	case Evening:
		return 'N'
	default:
		return '?'
	}
}

// Clock 表示一天中的分钟数
type Clock int

func NewClock(hour int, minute int) Clock {
	return Clock(hour*60 + minute)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Interval 是左闭右开的时间区间 [Start, End)
type Interval struct {
	Start Clock
	End   Clock
}

func (i Interval) Intersects(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// TimeSlot 是一次具体的上课时间：某天、某时段的第几节课
type TimeSlot struct {
	Day    Day    `json:"day"`
	Period Period `json:"period"`
	Hour   int    `json:"hour"`
	Start  Clock  `json:"start"`
	End    Clock  `json:"end"`
}

func (s TimeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Code 返回单个时间段对应的 SIGAA 时间码，例如 "2M3"
func (s TimeSlot) Code() string {
	return fmt.Sprintf("%d%c%d", int(s.Day), s.Period.Letter(), s.Hour)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s–%s", s.Day, s.Start, s.End)
}

// Table 描述学校定义的时间表，天数范围与每个时段的节次都是数据而不是写死的逻辑
type Table struct {
	Days    []Day
	Periods map[byte]Period
	Hours   map[Period][]Interval // 下标 0 对应第 1 节
}

func (t *Table) HasDay(d Day) bool {
	for _, day := range t.Days {
		if day == d {
			return true
		}
	}
	return false
}

// Lookup 按 (时段, 节次) 查找时间区间
func (t *Table) Lookup(p Period, hour int) (Interval, bool) {
	hours, ok := t.Hours[p]
	if !ok || hour < 1 || hour > len(hours) {
		return Interval{}, false
	}
	return hours[hour-1], true
}

// fiftyMinuteSteps 生成从 start 开始、每节 50 分钟、节与节之间间隔 10 分钟的区间
func fiftyMinuteSteps(start Clock, n int) []Interval {
	intervals := make([]Interval, n)
	for i := range intervals {
		s := start + Clock(i*60)
		intervals[i] = Interval{Start: s, End: s + 50}
	}
	return intervals
}

// DefaultTable 返回包含周六的完整时间表
func DefaultTable() *Table {
	afternoon := fiftyMinuteSteps(NewClock(12, 0), 6)
	afternoon = append(afternoon, Interval{Start: NewClock(18, 0), End: NewClock(18, 50)})

	return &Table{
		Days: []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday},
		Periods: map[byte]Period{
			'M': Morning,
			'T': Afternoon,
			'N': Evening,
		},
		Hours: map[Period][]Interval{
			Morning:   fiftyMinuteSteps(NewClock(6, 0), 6),
			Afternoon: afternoon,
			Evening: {
				{Start: NewClock(18, 0), End: NewClock(18, 50)},
				{Start: NewClock(18, 50), End: NewClock(19, 40)},
				{Start: NewClock(19, 40), End: NewClock(20, 30)},
				{Start: NewClock(20, 30), End: NewClock(21, 20)},
				{Start: NewClock(21, 20), End: NewClock(22, 10)},
				{Start: NewClock(22, 10), End: NewClock(23, 0)},
			},
		},
	}
}

// WeekdayTable 与 DefaultTable 相同，但不接受周六
func WeekdayTable() *Table {
	t := DefaultTable()
	t.Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
	return t
}
