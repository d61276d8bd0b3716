package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/curiostorage/alerthub/build"
)

var log = logging.Logger("main")

const (
	FlagConfig    = "config"
	FlagPluginDir = "plugin-dir"
)

func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		_ = logging.SetLogLevel("alerthub/alertloader", "WARN")
	}
}

func main() {
	SetupLogLevels()

	app := &cli.App{
		Name:                 "alerthub",
		Usage:                "Inspect and exercise the alert channel registry",
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Before: func(cctx *cli.Context) error {
			if cctx.IsSet("color") {
				color.NoColor = !cctx.Bool("color")
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				// examined in the Before above
				Name:        "color",
				Usage:       "use color in display output",
				DefaultText: "depends on output being a TTY",
			},
			&cli.StringFlag{
				Name:    FlagConfig,
				EnvVars: []string{"ALERTHUB_CONFIG"},
				Usage:   "host configuration file (.toml or .properties)",
				Value:   "~/.alerthub/alerthub.toml",
			},
			&cli.StringFlag{
				Name:  FlagPluginDir,
				Usage: "override alerter.plugin.dir",
			},
		},
		Commands: []*cli.Command{
			listCmd,
			checkCmd,
			sendCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err) // nolint:errcheck
		os.Exit(1)
	}
}
