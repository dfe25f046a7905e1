package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/urfave/cli/v2"
)

var Version = "dev"

const configMetadataKey = "config"

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "planejador"
	app.Usage = "Planejador de Matrícula CIn"
	app.Commands = append(
		app.Commands,
		&downloadCommand,
		&listCommand,
		&searchCommand,
		&addCommand,
		&removeCommand,
		&scheduleCommand,
		&exportCommand,
	)
	app.Flags = []cli.Flag{csvFlag, selectionsFlag, studentFlag}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("configuração inválida: %w", err)
		}
		ctx.App.Metadata = map[string]interface{}{configMetadataKey: cfg}
		return nil
	}
	return app
}

func main() {
	/**********************************************
	 * 创建 logger，日志写到 stderr，stdout 只输出表格
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("erro: %v", err))
		os.Exit(1)
	}
}
