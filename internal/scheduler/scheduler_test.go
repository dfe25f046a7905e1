package scheduler

import (
	"errors"
	"testing"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestPlanner() *Planner {
	return New(nil, []*domain.Section{
		{Code: "CIN0130", Class: "A", Name: "Sistemas Digitais", Schedule: "2M34 4M34"},
		{Code: "CIN0130", Class: "B", Name: "Sistemas Digitais", Schedule: "3T12 5T12"},
		{Code: "CIN0131", Class: "A", Name: "Algoritmos", Schedule: "2M45 4M56"},
		{Code: "CIN0132", Class: "A", Name: "Cálculo", Schedule: "3M12 5M12"},
		{Code: "CIN0133", Class: "A", Name: "Banco de Dados", Schedule: "2X1"},
		{Code: "CIN0134", Class: "A", Name: "Estágio", Schedule: ""},
	})
}

func mustLookup(t *testing.T, p *Planner, code string, class string) *domain.Section {
	t.Helper()
	s, err := p.Lookup(code, class)
	require.NoError(t, err)
	return s
}

func TestPlannerAddAndRemove(t *testing.T) {
	p := newTestPlanner()
	sd := mustLookup(t, p, "CIN0130", "A")

	conflicts, err := p.Add(sd)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, StatusSelected, p.Status(sd))

	_, err = p.Add(sd)
	require.ErrorIs(t, err, ErrAlreadySelected)

	require.NoError(t, p.Remove(sd))
	require.ErrorIs(t, p.Remove(sd), ErrNotSelected)
	require.Empty(t, p.Selected())
}

func TestPlannerRejectsConflict(t *testing.T) {
	p := newTestPlanner()
	sd := mustLookup(t, p, "CIN0130", "A")
	algo := mustLookup(t, p, "CIN0131", "A")

	_, err := p.Add(sd)
	require.NoError(t, err)

	require.Equal(t, StatusUnavailable, p.Status(algo))

	conflicts, err := p.Add(algo)
	require.ErrorIs(t, err, ErrScheduleConflict)
	require.Len(t, conflicts, 1)
	require.Equal(t, sd, conflicts[0].Section)
	require.Len(t, conflicts[0].Pairs, 1)
	require.Equal(t, "2M4", conflicts[0].Pairs[0].A.Code())
	require.Len(t, p.Selected(), 1)
}

func TestPlannerRejectsSecondClassOfSameCourse(t *testing.T) {
	p := newTestPlanner()
	_, err := p.Add(mustLookup(t, p, "CIN0130", "A"))
	require.NoError(t, err)

	other := mustLookup(t, p, "CIN0130", "B")
	conflicts, err := p.parser.FindConflicts(other, p.Selected())
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, StatusUnavailable, p.Status(other))

	_, err = p.Add(other)
	require.ErrorIs(t, err, ErrCourseAlreadySelected)
}

func TestPlannerMalformedCandidate(t *testing.T) {
	p := newTestPlanner()
	bd := mustLookup(t, p, "CIN0133", "A")

	require.Equal(t, StatusInvalid, p.Status(bd))

	_, err := p.Add(bd)
	require.ErrorIs(t, err, ErrMalformedTimeCode)
	require.Empty(t, p.Selected())
}

func TestPlannerSectionWithoutScheduleIsAlwaysAvailable(t *testing.T) {
	p := newTestPlanner()
	_, err := p.Add(mustLookup(t, p, "CIN0130", "A"))
	require.NoError(t, err)

	estagio := mustLookup(t, p, "CIN0134", "A")
	require.Equal(t, StatusAvailable, p.Status(estagio))
	_, err = p.Add(estagio)
	require.NoError(t, err)
}

func TestPlannerLookupNotFound(t *testing.T) {
	p := newTestPlanner()
	_, err := p.Lookup("CIN9999", "A")
	require.True(t, errors.Is(err, ErrSectionNotFound))

	s, err := p.Lookup("cin0130", "a")
	require.NoError(t, err)
	require.Equal(t, "CIN0130-A", s.Key())
}

func TestPlannerRestoreAndEntries(t *testing.T) {
	p := newTestPlanner()
	missing := p.Restore([]domain.SelectionEntry{
		{Code: "CIN0130", Class: "A"},
		{Name: "Cálculo"},
		{Code: "CIN9999", Class: "Z", Name: "Removida"},
	})
	require.Equal(t, []domain.SelectionEntry{{Code: "CIN9999", Class: "Z", Name: "Removida"}}, missing)

	entries := p.Entries()
	require.Equal(t, []domain.SelectionEntry{
		{Code: "CIN0130", Class: "A", Name: "Sistemas Digitais"},
		{Code: "CIN0132", Class: "A", Name: "Cálculo"},
	}, entries)
}

func TestPlannerSectionsSortedByName(t *testing.T) {
	p := newTestPlanner()
	names := []string{}
	for _, s := range p.Sections() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"Algoritmos", "Banco de Dados", "Cálculo", "Estágio", "Sistemas Digitais", "Sistemas Digitais"}, names)
}

func TestPlannerFindByTimeCode(t *testing.T) {
	p := newTestPlanner()

	found, err := p.FindByTimeCode("2M3456")
	require.NoError(t, err)
	keys := []string{}
	for _, s := range found {
		keys = append(keys, s.Key())
	}
	require.Equal(t, []string{"CIN0131-A", "CIN0130-A"}, keys)

	found, err = p.FindByTimeCode("2M34")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "CIN0130-A", found[0].Key())

	_, err = p.FindByTimeCode("2X1")
	require.ErrorIs(t, err, ErrMalformedTimeCode)

	_, err = p.FindByTimeCode("")
	require.ErrorIs(t, err, ErrMalformedTimeCode)
}
