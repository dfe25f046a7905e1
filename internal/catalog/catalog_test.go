package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffÓrgão ofertante,Turma,Código,Disciplina,Docente,Horário,Sala/Lab,Extra\n" +
	"CIN,A,CIN0130,SISTEMAS DIGITAIS,Fulano de Tal,2M34 4M34,E101,x\n" +
	"CIN,B,CIN0130,SISTEMAS DIGITAIS,Beltrano,3T12 5T12,E102,x\n" +
	",,,,,,,\n" +
	"CIN,A,CIN0131,ALGORITMOS E ESTRUTURAS DE DADOS,Ciclano,2M56,\n"

func TestLoad(t *testing.T) {
	sections, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, sections, 3)

	require.Equal(t, &domain.Section{
		Department: "CIN",
		Class:      "A",
		Code:       "CIN0130",
		Name:       "SISTEMAS DIGITAIS",
		Teacher:    "Fulano de Tal",
		Schedule:   "2M34 4M34",
		Room:       "E101",
	}, sections[0])
	require.Equal(t, "", sections[2].Room)
}

func TestLoadLowercaseHeaders(t *testing.T) {
	data := "órgão ofertante,período,turma,código,disciplina,docente,horário,sala/lab\n" +
		"CIN,2025.1,A,CIN0132,CÁLCULO,Docente,3M12,D001\n"
	sections, err := Load(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Equal(t, "2025.1", sections[0].Term)
	require.Equal(t, "3M12", sections[0].Schedule)
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disciplinas.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	sections, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFold(t *testing.T) {
	require.Equal(t, "orgao ofertante", Fold("  Órgão Ofertante "))
	require.Equal(t, "calculo", Fold("CÁLCULO"))
}

func TestFindByCode(t *testing.T) {
	sections, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, FindByCode(sections, "cin0130"), 2)
	require.Len(t, FindByCode(sections, " CIN0131 "), 1)
	require.Empty(t, FindByCode(sections, "CIN9"))
}

func TestScore(t *testing.T) {
	require.InDelta(t, 1.0, Score("sistemas digitais", "SISTEMAS DIGITAIS"), 1e-9)
	require.InDelta(t, 0.5, Score("sist", "SISTEMAS DIGITAIS"), 1e-9)
	require.Equal(t, 0.0, Score("", "SISTEMAS"))
	require.Equal(t, 0.0, Score("redes", "SISTEMAS DIGITAIS"))
}

func TestSearch(t *testing.T) {
	sections := []*domain.Section{
		{Code: "CIN0130", Name: "SISTEMAS DIGITAIS"},
		{Code: "CIN0135", Name: "SISTEMAS OPERACIONAIS"},
		{Code: "CIN0131", Name: "ALGORITMOS"},
		{Code: "CIN0132", Name: "CÁLCULO A"},
	}

	found := Search(sections, "sistemas digitais")
	require.Len(t, found, 2)
	require.Equal(t, "CIN0130", found[0].Code)
	require.Equal(t, "CIN0135", found[1].Code)

	found = Search(sections, "calculo")
	require.Len(t, found, 1)
	require.Equal(t, "CIN0132", found[0].Code)

	require.Empty(t, Search(sections, "redes"))
}

func TestSearchLimit(t *testing.T) {
	var sections []*domain.Section
	for i := 0; i < 15; i++ {
		sections = append(sections, &domain.Section{Name: "TOPICOS"})
	}
	require.Len(t, Search(sections, "topicos"), SearchLimit)
}

func TestSortByName(t *testing.T) {
	sorted := SortByName([]*domain.Section{{Name: "Redes"}, {Name: "Álgebra"}, {Name: "banco"}})
	require.Equal(t, "Álgebra", sorted[0].Name)
	require.Equal(t, "banco", sorted[1].Name)
	require.Equal(t, "Redes", sorted[2].Name)
}
