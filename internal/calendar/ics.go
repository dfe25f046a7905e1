package calendar

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/scheduler"
)

const productID = "-//CIn//Planejador de Horários//PT"

var ErrInvalidTerm = errors.New("período letivo inválido")

// Term 是学期的起止日期，事件按周重复直到 End 当天结束
type Term struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (t Term) validate() error {
	if t.Start.IsZero() || t.End.IsZero() {
		return fmt.Errorf("%w: datas de início e fim são obrigatórias", ErrInvalidTerm)
	}
	if t.End.Before(t.Start) {
		return fmt.Errorf("%w: o fim (%s) é anterior ao início (%s)", ErrInvalidTerm, t.End.Format(time.DateOnly), t.Start.Format(time.DateOnly))
	}
	return nil
}

func (t Term) location() *time.Location {
	if t.Location == nil {
		return time.Local
	}
	return t.Location
}

// run 是同一天、同一时段中连续的若干节课
type run struct {
	day       scheduler.Day
	period    scheduler.Period
	firstHour int
	lastHour  int
	start     scheduler.Clock
	end       scheduler.Clock
}

/**
 * mergeRuns 把同一 (星期, 时段) 中节次连续的时间段合并成一个事件
 * 例如 2M34 合并成周一 08:00-09:50 的一个事件
 */
func mergeRuns(slots []scheduler.TimeSlot) []run {
	sorted := append([]scheduler.TimeSlot{}, slots...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.Hour < b.Hour
	})

	var runs []run
	for _, slot := range sorted {
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if last.day == slot.Day && last.period == slot.Period {
				if slot.Hour == last.lastHour {
					// 重复的节次
					continue
				}
				if slot.Hour == last.lastHour+1 {
					last.lastHour = slot.Hour
					last.end = slot.End
					continue
				}
			}
		}
		runs = append(runs, run{
			day:       slot.Day,
			period:    slot.Period,
			firstHour: slot.Hour,
			lastHour:  slot.Hour,
			start:     slot.Start,
			end:       slot.End,
		})
	}
	return runs
}

// firstOccurrence 返回学期开始后第一个是 day 的日期，时间为 clock
func firstOccurrence(term Term, day scheduler.Day, clock scheduler.Clock) time.Time {
	loc := term.location()
	start := term.Start.In(loc)
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	// SIGAA 的 2 对应 time.Monday
	weekday := time.Weekday(int(day) - 1)
	offset := (int(weekday) - int(date.Weekday()) + 7) % 7
	date = date.AddDate(0, 0, offset)

	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

// lastMoment 返回学期最后一天的 23:59:59，结束日期本身也算在学期内
func lastMoment(term Term) time.Time {
	loc := term.location()
	end := term.End.In(loc)
	return time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)
}

func until(term Term) string {
	return lastMoment(term).UTC().Format("20060102T150405Z")
}

/**
 * Build 为已选教学班生成 iCalendar 日历
 * 每个连续的上课时间段生成一个每周重复的事件，重复到学期结束
 * 没有上课时间的教学班不会生成事件
 */
func Build(sections []*domain.Section, parser *scheduler.Parser, term Term) (*ics.Calendar, error) {
	if err := term.validate(); err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Meu horário")
	cal.SetXWRTimezone(term.location().String())

	stamp := time.Now().UTC()
	rrule := fmt.Sprintf("FREQ=WEEKLY;UNTIL=%s", until(term))
	last := lastMoment(term)

	for _, s := range sections {
		slots, err := parser.SectionSlots(s)
		if err != nil {
			return nil, err
		}

		for _, r := range mergeRuns(slots) {
			start := firstOccurrence(term, r.day, r.start)
			if start.After(last) {
				continue
			}
			end := firstOccurrence(term, r.day, r.end)

			event := cal.AddEvent(fmt.Sprintf("%s-%d%c%d@planejador", s.Key(), int(r.day), r.period.Letter(), r.firstHour))
			event.SetDtStampTime(stamp)
			event.SetSummary(fmt.Sprintf("%s - %s", s.Code, s.Name))
			event.SetStartAt(start)
			event.SetEndAt(end)
			if s.Room != "" {
				event.SetLocation(s.Room)
			}
			event.SetDescription(fmt.Sprintf("Turma %s\nDocente: %s\nHorário: %s", s.Class, s.Teacher, s.Schedule))
			event.AddProperty(ics.ComponentPropertyRrule, rrule)
		}
	}

	return cal, nil
}

// Write 把日历序列化后写入 w
func Write(w io.Writer, sections []*domain.Section, parser *scheduler.Parser, term Term) error {
	cal, err := Build(sections, parser, term)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}
