package domain

import (
	"strings"
)

// Section 表示目录中的一个教学班（turma）
type Section struct {
	Department string `json:"orgao"`
	Term       string `json:"periodo"`
	Class      string `json:"turma"`
	Code       string `json:"codigo"`
	Name       string `json:"disciplina"`
	Teacher    string `json:"docente"`
	Schedule   string `json:"horario"` // SIGAA 时间码原文，例如 "2M34 4M34"
	Room       string `json:"sala"`
}

// Key 返回教学班的稳定标识（课程代码 + 班号）
func (s *Section) Key() string {
	return SectionKey(s.Code, s.Class)
}

func SectionKey(code string, class string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	class = strings.ToUpper(strings.TrimSpace(class))
	if class == "" {
		return code
	}
	return code + "-" + class
}

// TimeCodes 将原始时间码按空白、逗号或分号拆分成若干组
func (s *Section) TimeCodes() []string {
	return strings.FieldsFunc(s.Schedule, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\t' || r == '\n' || r == '\r'
	})
}
