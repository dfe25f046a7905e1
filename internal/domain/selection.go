package domain

import (
	"encoding/json"
)

// SelectionEntry 是持久化的一条选课记录
type SelectionEntry struct {
	Code  string `json:"codigo"`
	Class string `json:"turma"`
	Name  string `json:"disciplina"`
}

func (e SelectionEntry) Key() string {
	return SectionKey(e.Code, e.Class)
}

// UnmarshalJSON 兼容旧格式：旧版本的选课文件只保存了课程名称的字符串数组
func (e *SelectionEntry) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*e = SelectionEntry{Name: name}
		return nil
	}

	type plain SelectionEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = SelectionEntry(p)
	return nil
}

func NewSelectionEntry(s *Section) SelectionEntry {
	return SelectionEntry{
		Code:  s.Code,
		Class: s.Class,
		Name:  s.Name,
	}
}
