package scheduler

import (
	"errors"
	"testing"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/stretchr/testify/require"
)

func section(code string, class string, schedule string) *domain.Section {
	return &domain.Section{Code: code, Class: class, Name: "Disciplina " + code, Schedule: schedule}
}

func allSlots(t *testing.T) []TimeSlot {
	t.Helper()
	slots, err := Parse("2M123456 2T1234567 2N123456 3M123456 3T1234567 3N123456")
	require.NoError(t, err)
	return slots
}

func TestOverlapsIsSymmetric(t *testing.T) {
	slots := allSlots(t)
	for _, a := range slots {
		for _, b := range slots {
			require.Equal(t, Overlaps(a, b), Overlaps(b, a), "%s %s", a.Code(), b.Code())
		}
	}
}

func TestOverlapsRequiresSameDayAndPeriod(t *testing.T) {
	slots := allSlots(t)
	for _, a := range slots {
		for _, b := range slots {
			if a.Day != b.Day || a.Period != b.Period {
				require.False(t, Overlaps(a, b), "%s %s", a.Code(), b.Code())
			}
		}
	}
}

func TestOverlapsIdenticalSlots(t *testing.T) {
	a, err := Parse("2M3")
	require.NoError(t, err)
	b, err := Parse("2M3")
	require.NoError(t, err)
	require.True(t, Overlaps(a[0], b[0]))
}

func TestOverlapsTouchingBoundaries(t *testing.T) {
	slots, err := Parse("2M34")
	require.NoError(t, err)
	require.False(t, Overlaps(slots[0], slots[1]))

	// 晚上的节次首尾相接
	evening, err := Parse("2N12")
	require.NoError(t, err)
	require.Equal(t, evening[0].End, evening[1].Start)
	require.False(t, Overlaps(evening[0], evening[1]))
}

func TestOverlapsAfternoonSevenAndEveningOne(t *testing.T) {
	slots, err := Parse("4T7 4N1")
	require.NoError(t, err)
	require.False(t, Overlaps(slots[0], slots[1]))
}

func TestConflictsBetweenSections(t *testing.T) {
	a := section("CIN0130", "A", "2M34 4M34")
	b := section("CIN0131", "A", "4M45 6M12")

	pairs, err := ConflictsBetweenSections(a, b)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "4M4", pairs[0].A.Code())
	require.Equal(t, "4M4", pairs[0].B.Code())

	c := section("CIN0132", "A", "3T12")
	pairs, err = ConflictsBetweenSections(a, c)
	require.NoError(t, err)
	require.Empty(t, pairs)
}

func TestConflictsBetweenSectionsPropagatesParseError(t *testing.T) {
	a := section("CIN0130", "A", "2M34")
	b := section("CIN0131", "A", "2X34")

	_, err := ConflictsBetweenSections(a, b)
	require.True(t, errors.Is(err, ErrMalformedTimeCode))
	require.Contains(t, err.Error(), "CIN0131-A")
}

func TestSectionSlotsExpandsEveryGroup(t *testing.T) {
	p := NewParser(DefaultTable())

	slots, err := p.SectionSlots(section("CIN0130", "A", "2M34, 4T12;6N1"))
	require.NoError(t, err)
	codes := make([]string, 0, len(slots))
	for _, s := range slots {
		codes = append(codes, s.Code())
	}
	require.Equal(t, []string{"2M3", "2M4", "4T1", "4T2", "6N1"}, codes)

	// 错误指向出错的那一组
	_, err = p.SectionSlots(section("CIN0131", "A", "2M34 4X1"))
	var tcErr *TimeCodeError
	require.True(t, errors.As(err, &tcErr))
	require.Equal(t, "4X1", tcErr.Code)
	require.Equal(t, 1, tcErr.Pos)

	slots, err = p.SectionSlots(section("CIN0132", "A", "  "))
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestFindConflictsSinglePair(t *testing.T) {
	candidate := section("CIN0130", "A", "2M12")
	selected := section("CIN0131", "A", "2M23")

	conflicts, err := FindConflicts(candidate, []*domain.Section{selected})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Same(t, selected, conflicts[0].Section)
	require.Len(t, conflicts[0].Pairs, 1)
	require.Equal(t, TimeSlot{Day: Monday, Period: Morning, Hour: 2, Start: NewClock(7, 0), End: NewClock(7, 50)}, conflicts[0].Pairs[0].A)
	require.Equal(t, conflicts[0].Pairs[0].A, conflicts[0].Pairs[0].B)

	byKey := conflicts.ByKey()
	require.Len(t, byKey["CIN0131-A"], 1)
}

func TestFindConflictsOmitsCompatibleSections(t *testing.T) {
	candidate := section("CIN0130", "A", "2M12")
	selection := []*domain.Section{
		section("CIN0131", "A", "2M34"),
		section("CIN0132", "A", "3M12"),
		section("CIN0133", "A", "2T12"),
	}

	conflicts, err := FindConflicts(candidate, selection)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestFindConflictsKeepsSelectionOrder(t *testing.T) {
	candidate := section("CIN0130", "A", "2M12 4M12")
	selection := []*domain.Section{
		section("CIN0133", "A", "4M2"),
		section("CIN0131", "A", "3M2"),
		section("CIN0132", "A", "2M1"),
	}

	conflicts, err := FindConflicts(candidate, selection)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	require.Equal(t, "CIN0133", conflicts[0].Section.Code)
	require.Equal(t, "CIN0132", conflicts[1].Section.Code)
}

func TestFindConflictsSkipsCandidateItself(t *testing.T) {
	candidate := section("CIN0130", "A", "2M12")
	conflicts, err := FindConflicts(candidate, []*domain.Section{candidate})
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestFindConflictsDoesNotSkipMalformedSelection(t *testing.T) {
	candidate := section("CIN0130", "A", "2M12")
	selection := []*domain.Section{section("CIN0131", "A", "2M9")}

	_, err := FindConflicts(candidate, selection)
	require.True(t, errors.Is(err, ErrInvalidHourForPeriod))
}
