package main

import (
	"github.com/urfave/cli/v2"
)

const (
	csvFlagName        = "csv"
	selectionsFlagName = "selections"
	studentFlagName    = "student"
	outputFlagName     = "output"
	classFlagName      = "turma"
)

var (
	csvFlag = &cli.StringFlag{
		Name:    csvFlagName,
		Aliases: []string{"c"},
		Usage:   "arquivo CSV com as disciplinas",
		Value:   "disciplinas.csv",
		EnvVars: []string{"CATALOG_PATH"},
	}
	selectionsFlag = &cli.StringFlag{
		Name:    selectionsFlagName,
		Aliases: []string{"s"},
		Usage:   "arquivo de seleções",
		Value:   "selecoes.json",
		EnvVars: []string{"STORAGE_SELECTIONS_FILE"},
	}
	studentFlag = &cli.StringFlag{
		Name:    studentFlagName,
		Usage:   "identificador do aluno dono das seleções",
		Value:   "default",
		EnvVars: []string{"STORAGE_DEFAULT_STUDENT"},
	}
	downloadOutputFlag = &cli.StringFlag{
		Name:    outputFlagName,
		Aliases: []string{"o"},
		Usage:   "arquivo de saída",
		Value:   "disciplinas.csv",
	}
	exportOutputFlag = &cli.StringFlag{
		Name:    outputFlagName,
		Aliases: []string{"o"},
		Usage:   "arquivo .ics de saída",
		Value:   "horario.ics",
	}
	classFlag = &cli.StringFlag{
		Name:    classFlagName,
		Aliases: []string{"t"},
		Usage:   "turma da disciplina",
	}
)
