package main

import (
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager"
	"github.com/curiostorage/alerthub/alertmanager/plugin"
	"github.com/curiostorage/alerthub/deps/config"
)

// openRegistry builds the registry the way the scheduler does at startup.
func openRegistry(cctx *cli.Context) (*alertmanager.Registry, error) {
	path, err := homedir.Expand(cctx.String(FlagConfig))
	if err != nil {
		return nil, xerrors.Errorf("expanding config path: %w", err)
	}

	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, xerrors.Errorf("loading config: %w", err)
	}

	if cctx.IsSet(FlagPluginDir) {
		dir, err := homedir.Expand(cctx.String(FlagPluginDir))
		if err != nil {
			return nil, xerrors.Errorf("expanding plugin dir: %w", err)
		}
		if err := cfg.Set(config.KeyPluginDir, dir); err != nil {
			return nil, err
		}
	}

	mailCfg, err := config.MailConfigFrom(cfg)
	if err != nil {
		return nil, xerrors.Errorf("reading mail config: %w", err)
	}

	log.Debugw("opening alerter registry", "config", path, "pluginDir", cfg.GetString(config.KeyPluginDir, config.DefaultPluginDir))
	return alertmanager.NewRegistry(cfg, plugin.NewEmail(mailCfg)), nil
}
