package scheduler

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrMalformedTimeCode    = errors.New("código de horário malformado")
	ErrInvalidHourForPeriod = errors.New("horário inválido para o turno")
)

// TimeCodeError 携带出错位置，Unwrap 之后是上面两个哨兵错误之一
type TimeCodeError struct {
	Code   string
	Pos    int
	Reason string
	Err    error
}

func (e *TimeCodeError) Error() string {
	return fmt.Sprintf("%s: %q (posição %d): %s", e.Err, e.Code, e.Pos+1, e.Reason)
}

func (e *TimeCodeError) Unwrap() error {
	return e.Err
}

type Parser struct {
	table *Table
}

func NewParser(table *Table) *Parser {
	if table == nil {
		table = DefaultTable()
	}
	return &Parser{table: table}
}

func (p *Parser) Table() *Table {
	return p.table
}

var defaultParser = NewParser(DefaultTable())

// Parse 使用默认时间表解析时间码
func Parse(code string) ([]TimeSlot, error) {
	return defaultParser.Parse(code)
}

/**
 * 解析 SIGAA 时间码，例如 "2M123 4T45"
 * 规则:
 * 		1. 每组的第一个字符是星期，组内其余数字都是节次
 * 		2. 星期之后必须是时段字母；组内再次出现时段字母时切换时段，星期不变（"3M12T34"）
 * 		3. 分隔符（空白、逗号、分号）结束当前组，下一组必须重新以星期开头
 * 		4. 每个 (星期, 时段) 至少要有一个节次
 * 空字符串表示没有上课时间，返回空结果
 */
func (p *Parser) Parse(code string) ([]TimeSlot, error) {
	var slots []TimeSlot

	// 扫描状态只存在于这次调用中
	var (
		day       Day
		period    Period
		hasDay    bool
		hasPeriod bool
		hours     int
	)

	fail := func(pos int, reason string, err error) ([]TimeSlot, error) {
		return nil, &TimeCodeError{Code: code, Pos: pos, Reason: reason, Err: err}
	}

	// 检查当前组是否完整
	checkGroup := func(pos int) error {
		if hasDay && !hasPeriod {
			return &TimeCodeError{Code: code, Pos: pos, Reason: "dia sem turno", Err: ErrMalformedTimeCode}
		}
		if hasPeriod && hours == 0 {
			return &TimeCodeError{Code: code, Pos: pos, Reason: "turno sem horários", Err: ErrMalformedTimeCode}
		}
		return nil
	}

	for i := 0; i < len(code); i++ {
		c := code[i]

		switch {
		case isSeparator(c):
			if err := checkGroup(i); err != nil {
				return nil, err
			}
			hasDay, hasPeriod, hours = false, false, 0

		case isDigit(c) && !hasDay:
			d := Day(c - '0')
			if !p.table.HasDay(d) {
				return fail(i, fmt.Sprintf("dia %c não existe", c), ErrMalformedTimeCode)
			}
			day, hasDay = d, true
			hasPeriod, hours = false, 0

		case p.isPeriodLetter(c):
			if !hasDay {
				return fail(i, fmt.Sprintf("turno %c sem dia", c), ErrMalformedTimeCode)
			}
			// 切换时段之前，上一个时段必须已经有节次
			if hasPeriod && hours == 0 {
				return fail(i, "turno sem horários", ErrMalformedTimeCode)
			}
			period, hasPeriod = p.table.Periods[toUpper(c)], true
			hours = 0

		case isDigit(c):
			if !hasPeriod {
				return fail(i, "horário antes do turno", ErrMalformedTimeCode)
			}
			hour := int(c - '0')
			interval, ok := p.table.Lookup(period, hour)
			if !ok {
				return fail(i, fmt.Sprintf("não existe horário %d no turno %s", hour, period), ErrInvalidHourForPeriod)
			}
			slots = append(slots, TimeSlot{
				Day:    day,
				Period: period,
				Hour:   hour,
				Start:  interval.Start,
				End:    interval.End,
			})
			hours++

		default:
			r, _ := utf8.DecodeRuneInString(code[i:])
			return fail(i, fmt.Sprintf("caractere inesperado %q", r), ErrMalformedTimeCode)
		}
	}

	if err := checkGroup(len(code)); err != nil {
		return nil, err
	}

	return slots, nil
}

// ParseAll 解析多个时间码并按顺序拼接结果
func (p *Parser) ParseAll(codes ...string) ([]TimeSlot, error) {
	var slots []TimeSlot
	for _, code := range codes {
		s, err := p.Parse(code)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s...)
	}
	return slots, nil
}

func (p *Parser) isPeriodLetter(c byte) bool {
	_, ok := p.table.Periods[toUpper(c)]
	return ok
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == ';'
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
