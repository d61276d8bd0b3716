package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

// EnvPrefix prefixes every environment override, e.g. ALERTHUB_MAIL_ENABLED.
const EnvPrefix = "ALERTHUB"

// envOverrides lists the host keys that may be overridden from the environment.
type envOverrides struct {
	PluginDir   string `envconfig:"ALERTER_PLUGIN_DIR"`
	MailEnabled *bool  `envconfig:"MAIL_ENABLED"`
	MailHost    string `envconfig:"MAIL_HOST"`
}

// FromFile loads the host configuration from path. Files ending in .toml are
// decoded as TOML and flattened into dotted keys, anything else is read as a
// properties file. A missing file yields an empty configuration so every key
// takes its default. Environment overrides are applied last.
func FromFile(path string) (*Props, error) {
	var (
		cfg *Props
		err error
	)

	_, statErr := os.Stat(path)
	switch {
	case path == "" || os.IsNotExist(statErr):
		cfg = NewProps(nil)
	case statErr != nil:
		return nil, xerrors.Errorf("stat config %s: %w", path, statErr)
	case strings.EqualFold(filepath.Ext(path), ".toml"):
		cfg, err = fromTOML(path)
	default:
		cfg, err = LoadProps(path)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides keys of cfg from ALERTHUB_* environment variables.
func ApplyEnv(cfg *Props) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return xerrors.Errorf("processing environment: %w", err)
	}
	if env.PluginDir != "" {
		if err := cfg.Set(KeyPluginDir, env.PluginDir); err != nil {
			return err
		}
	}
	if env.MailEnabled != nil {
		if err := cfg.Set(KeyMailEnabled, strconv.FormatBool(*env.MailEnabled)); err != nil {
			return err
		}
	}
	if env.MailHost != "" {
		if err := cfg.Set(KeyMailHost, env.MailHost); err != nil {
			return err
		}
	}
	return nil
}

func fromTOML(path string) (*Props, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, xerrors.Errorf("decoding toml config %s: %w", path, err)
	}

	flat := map[string]string{}
	flatten("", raw, flat)
	return NewProps(flat), nil
}

// flatten turns nested tables into dotted keys: [mail] enabled = true becomes mail.enabled=true.
func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	keys := lo.Keys(in)
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := in[k].(type) {
		case map[string]interface{}:
			flatten(key, v, out)
		case []interface{}:
			out[key] = strings.Join(lo.Map(v, func(e interface{}, _ int) string { return fmt.Sprint(e) }), ",")
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
