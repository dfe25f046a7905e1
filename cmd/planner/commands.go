package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cin-planner/planejador/internal/calendar"
	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/render"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/cin-planner/planejador/internal/sheets"
	"github.com/urfave/cli/v2"
)

var (
	downloadCommand = cli.Command{
		Name:      "download",
		Usage:     "Baixa dados de disciplinas da planilha do Google",
		ArgsUsage: "<url>",
		Flags:     []cli.Flag{downloadOutputFlag},
		Action: func(ctx *cli.Context) error {
			return download(ctx)
		},
	}
	listCommand = cli.Command{
		Name:  "list",
		Usage: "Lista disciplinas",
		Action: func(ctx *cli.Context) error {
			return list(ctx)
		},
	}
	searchCommand = cli.Command{
		Name:  "search",
		Usage: "Busca disciplinas",
		Subcommands: []*cli.Command{
			{
				Name:      "code",
				Usage:     "Busca por código",
				ArgsUsage: "<código>",
				Action: func(ctx *cli.Context) error {
					return searchByCode(ctx)
				},
			},
			{
				Name:      "name",
				Usage:     "Busca por nome",
				ArgsUsage: "<nome...>",
				Action: func(ctx *cli.Context) error {
					return searchByName(ctx)
				},
			},
			{
				Name:      "time",
				Usage:     "Busca por horário",
				ArgsUsage: "<código de horário, ex: 2M123>",
				Action: func(ctx *cli.Context) error {
					return searchByTime(ctx)
				},
			},
		},
	}
	addCommand = cli.Command{
		Name:  "add",
		Usage: "Adiciona disciplina ao cronograma",
		Subcommands: []*cli.Command{
			{
				Name:      "code",
				Usage:     "Adiciona por código",
				ArgsUsage: "<código>",
				Flags:     []cli.Flag{classFlag},
				Action: func(ctx *cli.Context) error {
					return addByCode(ctx)
				},
			},
			{
				Name:      "name",
				Usage:     "Adiciona por nome",
				ArgsUsage: "<nome...>",
				Action: func(ctx *cli.Context) error {
					return addByName(ctx)
				},
			},
		},
	}
	removeCommand = cli.Command{
		Name:  "remove",
		Usage: "Remove disciplina do cronograma",
		Subcommands: []*cli.Command{
			{
				Name:      "code",
				Usage:     "Remove por código",
				ArgsUsage: "<código>",
				Flags:     []cli.Flag{classFlag},
				Action: func(ctx *cli.Context) error {
					return removeByCode(ctx)
				},
			},
		},
	}
	scheduleCommand = cli.Command{
		Name:  "schedule",
		Usage: "Mostra o cronograma",
		Action: func(ctx *cli.Context) error {
			return schedule(ctx)
		},
	}
	exportCommand = cli.Command{
		Name:  "export",
		Usage: "Exporta o cronograma para um arquivo iCalendar (.ics)",
		Flags: []cli.Flag{exportOutputFlag},
		Action: func(ctx *cli.Context) error {
			return export(ctx)
		},
	}
)

func requireArgs(ctx *cli.Context, what string) (string, error) {
	if ctx.NArg() == 0 {
		return "", fmt.Errorf("informe %s", what)
	}
	return strings.Join(ctx.Args().Slice(), " "), nil
}

func download(ctx *cli.Context) error {
	cfg := configFrom(ctx)

	url := ctx.Args().First()
	if url == "" {
		url = cfg.Catalog.SheetURL
	}
	if url == "" {
		return errors.New("informe a URL da planilha publicada do Google")
	}

	output := ctx.String(outputFlagName)
	if !ctx.IsSet(outputFlagName) {
		output = ctx.String(csvFlagName)
	}

	timeout := cfg.DownloadTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	downloader, err := sheets.NewDownloader(url, &http.Client{Timeout: timeout})
	if err != nil {
		return err
	}

	merged, err := downloader.DownloadAndMerge(ctx.Context)
	if err != nil {
		return fmt.Errorf("erro ao baixar dados: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := sheets.WriteCSV(f, sheets.Format(merged)); err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "Dados baixados e salvos em %s\n", output)
	return nil
}

func list(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return render.SectionTable(ctx.App.Writer, "Todas as disciplinas", s.planner.Sections(), s.planner.Status)
}

func searchByCode(ctx *cli.Context) error {
	code, err := requireArgs(ctx, "o código da disciplina")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sections := catalog.FindByCode(s.planner.Sections(), code)
	return render.SectionTable(ctx.App.Writer, fmt.Sprintf("Disciplinas com código %s", strings.ToUpper(code)), sections, s.planner.Status)
}

func searchByName(ctx *cli.Context) error {
	name, err := requireArgs(ctx, "o nome da disciplina")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sections := catalog.Search(s.planner.Sections(), name)
	return render.SectionTable(ctx.App.Writer, fmt.Sprintf("Disciplinas com nome similar a '%s'", name), sections, s.planner.Status)
}

func searchByTime(ctx *cli.Context) error {
	code, err := requireArgs(ctx, "o código de horário")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	slots, err := s.planner.Parser().Parse(code)
	if err != nil {
		return err
	}
	sections, err := s.planner.FindByTimeCode(code)
	if err != nil {
		return err
	}

	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		times = append(times, slot.String())
	}
	title := fmt.Sprintf("Disciplinas disponíveis em: %s", strings.Join(times, ", "))
	return render.SectionTable(ctx.App.Writer, title, sections, s.planner.Status)
}

// add 尝试加入一个教学班，冲突时打印冲突详情
func add(ctx *cli.Context, s *session, section *domain.Section) error {
	w := ctx.App.Writer

	conflicts, err := s.planner.Add(section)
	switch {
	case errors.Is(err, scheduler.ErrScheduleConflict):
		for _, line := range render.DescribeConflicts(section, conflicts) {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w, "Não é possível adicionar disciplina devido aos conflitos de horário.")
		return nil
	case errors.Is(err, scheduler.ErrAlreadySelected):
		fmt.Fprintf(w, "Disciplina '%s' já está no cronograma.\n", section.Name)
		return nil
	case errors.Is(err, scheduler.ErrCourseAlreadySelected):
		fmt.Fprintf(w, "Não é possível adicionar '%s': %v.\n", section.Name, err)
		return nil
	case err != nil:
		return err
	}

	if err := s.save(ctx.Context); err != nil {
		return fmt.Errorf("erro ao salvar seleções: %w", err)
	}
	fmt.Fprintf(w, "'%s' (%s) adicionada ao cronograma.\n", section.Name, section.Code)
	return nil
}

func addByCode(ctx *cli.Context) error {
	code, err := requireArgs(ctx, "o código da disciplina")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w := ctx.App.Writer
	if class := ctx.String(classFlagName); class != "" {
		section, err := s.planner.Lookup(code, class)
		if err != nil {
			fmt.Fprintf(w, "Nenhuma disciplina encontrada com código %s e turma %s\n", strings.ToUpper(code), strings.ToUpper(class))
			return nil
		}
		return add(ctx, s, section)
	}

	sections := catalog.FindByCode(s.planner.Sections(), code)
	switch len(sections) {
	case 0:
		fmt.Fprintf(w, "Nenhuma disciplina encontrada com código %s\n", strings.ToUpper(code))
		return nil
	case 1:
		return add(ctx, s, sections[0])
	}

	fmt.Fprintf(w, "Encontradas %d turmas para o código %s:\n", len(sections), strings.ToUpper(code))
	if err := render.SectionTable(w, fmt.Sprintf("Turmas para código %s", strings.ToUpper(code)), sections, s.planner.Status); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nEspecifique a turma desejada com --turma")
	return nil
}

func addByName(ctx *cli.Context) error {
	name, err := requireArgs(ctx, "o nome da disciplina")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w := ctx.App.Writer
	sections := catalog.Search(s.planner.Sections(), name)
	switch len(sections) {
	case 0:
		fmt.Fprintf(w, "Nenhuma disciplina encontrada com nome similar a '%s'\n", name)
		return nil
	case 1:
		return add(ctx, s, sections[0])
	}

	fmt.Fprintf(w, "Encontradas %d disciplinas com nome similar a '%s':\n", len(sections), name)
	if err := render.SectionTable(w, fmt.Sprintf("Disciplinas com nome similar a '%s'", name), sections, s.planner.Status); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nEspecifique a disciplina desejada usando o comando 'add code' com o código da disciplina")
	return nil
}

func removeByCode(ctx *cli.Context) error {
	code, err := requireArgs(ctx, "o código da disciplina")
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w := ctx.App.Writer
	class := ctx.String(classFlagName)

	var selected []*domain.Section
	for _, section := range s.planner.Selected() {
		if !strings.EqualFold(section.Code, code) {
			continue
		}
		if class != "" && !strings.EqualFold(section.Class, class) {
			continue
		}
		selected = append(selected, section)
	}

	switch len(selected) {
	case 0:
		fmt.Fprintf(w, "Nenhuma disciplina selecionada com código %s\n", strings.ToUpper(code))
		return nil
	case 1:
	default:
		fmt.Fprintf(w, "Encontradas %d turmas selecionadas para o código %s:\n", len(selected), strings.ToUpper(code))
		if err := render.SectionTable(w, fmt.Sprintf("Turmas selecionadas para código %s", strings.ToUpper(code)), selected, s.planner.Status); err != nil {
			return err
		}
		fmt.Fprintln(w, "\nEspecifique a turma desejada com --turma")
		return nil
	}

	section := selected[0]
	if err := s.planner.Remove(section); err != nil {
		return err
	}
	if err := s.save(ctx.Context); err != nil {
		return fmt.Errorf("erro ao salvar seleções: %w", err)
	}
	fmt.Fprintf(w, "'%s' (%s) removida do cronograma.\n", section.Name, section.Code)
	return nil
}

func writeSchedule(w io.Writer, s *session) error {
	selected := s.planner.Selected()
	if len(selected) == 0 {
		_, err := fmt.Fprintln(w, "Nenhuma disciplina selecionada no cronograma.")
		return err
	}

	fmt.Fprintln(w, "\nDisciplinas no cronograma:")
	if err := render.SectionTable(w, "Disciplinas selecionadas", selected, nil); err != nil {
		return err
	}

	grid, err := render.BuildGrid(selected, s.planner.Parser())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nCronograma:")
	return render.WriteGrid(w, grid)
}

func schedule(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return writeSchedule(ctx.App.Writer, s)
}

func export(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	start, end, err := s.cfg.Term()
	if err != nil {
		return err
	}
	if start.IsZero() {
		return errors.New("defina SCHEDULE_TERM_START e SCHEDULE_TERM_END para exportar o calendário")
	}

	output := ctx.String(outputFlagName)
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	term := calendar.Term{Start: start, End: end, Location: s.cfg.Location()}
	if err := calendar.Write(f, s.planner.Selected(), s.planner.Parser(), term); err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "Calendário salvo em %s\n", output)
	return nil
}
