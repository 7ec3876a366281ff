package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/cmd"
	"github.com/qaskills/qas/pkg/config"
	"github.com/qaskills/qas/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:  "qas",
		Usage: "Discover, install and publish QA skills for coding agents",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.SearchCommand(),
			cmd.InfoCommand(),
			cmd.InstallCommand(),
			cmd.RemoveCommand(),
			cmd.UpdateCommand(),
			cmd.CategoriesCommand(),
			cmd.PublishCommand(),
			cmd.SyncCommand(),
			cmd.ServeCommand(),
			cmd.ExportCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		stdlog.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		stdlog.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
