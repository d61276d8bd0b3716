package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager"
	"github.com/curiostorage/alerthub/alertmanager/plugin"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	nameCol     = lipgloss.NewStyle().Width(20)
	originCol   = lipgloss.NewStyle().Width(44)
)

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List the registered alert channels and whether alerts reach them",
	Action: func(cctx *cli.Context) error {
		reg, err := openRegistry(cctx)
		if err != nil {
			return err
		}
		disp := alertmanager.NewDispatcher(reg)
		active := map[string]bool{}
		for _, name := range disp.Channels() {
			active[name] = true
		}

		fmt.Println(headerStyle.Render(nameCol.Render("NAME") + originCol.Render("ORIGIN") + "ACTIVE"))
		for _, name := range reg.Names() {
			d, _ := reg.Lookup(name)
			state := color.RedString("no")
			if active[name] {
				state = color.GreenString("yes")
			}
			fmt.Println(nameCol.Render(name) + originCol.Render(d.Origin) + state)
		}

		fmt.Printf("\nmail fallback enabled: %t\n", reg.IsMailFallbackEnabled())
		if reg.Err() != nil {
			fmt.Println(color.YellowString("registry degraded: %s", reg.Err()))
		}
		return nil
	},
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "Load every alerter plugin and report the ones that fail",
	Action: func(cctx *cli.Context) error {
		reg, err := openRegistry(cctx)
		if err != nil {
			return err
		}
		if reg.Err() != nil {
			return reg.Err()
		}

		var merr *multierror.Error
		if xerrors.As(reg.LoadErrors(), &merr) && merr != nil {
			for _, e := range merr.Errors {
				fmt.Printf("%s %s\n", color.RedString("FAIL"), e)
			}
			return xerrors.Errorf("%d alerter plugins failed to load", len(merr.Errors))
		}

		fmt.Printf("%s %d channels: %s\n", color.GreenString("OK"), len(reg.Names()), strings.Join(reg.Names(), ", "))
		return nil
	},
}

var sendCmd = &cli.Command{
	Name:  "send",
	Usage: "Send a test alert through the active channels, or one channel",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "send only to this channel, ignoring the mail fallback policy",
		},
		&cli.StringFlag{
			Name:  "summary",
			Value: "alerthub test alert",
		},
		&cli.StringFlag{
			Name:  "severity",
			Usage: "critical, error, warning or info",
			Value: "info",
		},
		&cli.StringSliceFlag{
			Name:  "detail",
			Usage: "key=value detail, repeatable",
		},
	},
	Action: func(cctx *cli.Context) error {
		reg, err := openRegistry(cctx)
		if err != nil {
			return err
		}

		details := map[string]interface{}{}
		for _, kv := range cctx.StringSlice("detail") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return xerrors.Errorf("detail %q is not key=value", kv)
			}
			details[k] = v
		}

		payload := &plugin.AlertPayload{
			Summary:  cctx.String("summary"),
			Severity: cctx.String("severity"),
			Source:   "alerthub cli",
			Details:  details,
			Time:     time.Now(),
		}

		disp := alertmanager.NewDispatcher(reg)
		if ch := cctx.String("channel"); ch != "" {
			return disp.AlertTo(ch, payload)
		}
		if err := disp.Alert(payload); err != nil {
			return err
		}
		fmt.Printf("sent to %s\n", strings.Join(disp.Channels(), ", "))
		return nil
	},
}
