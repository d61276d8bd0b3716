package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

// Source is a key/value configuration lookup with typed defaults.
type Source interface {
	// GetString returns the value of key, or def when the key is not set.
	GetString(key, def string) string
	// GetBool returns the value of key parsed as a boolean, or def when the key
	// is not set. A value that is set but not a boolean is an error.
	GetBool(key string, def bool) (bool, error)
	// GetInt returns the value of key parsed as an integer, or def when the key is not set.
	GetInt(key string, def int) (int, error)
	// GetStringList splits a comma separated value. Blank elements are dropped.
	GetStringList(key string) []string
}

// Props is a Source backed by a Java-style properties set.
type Props struct {
	p *properties.Properties
}

var _ Source = (*Props)(nil)

// NewProps builds a Props from a plain map. Values are taken verbatim, no
// ${key} expansion is applied.
func NewProps(m map[string]string) *Props {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for k, v := range m {
		_, _, _ = p.Set(k, v)
	}
	return &Props{p: p}
}

// LoadProps reads the given properties files in order; keys in later files
// override keys of earlier ones. All files must exist.
func LoadProps(paths ...string) (*Props, error) {
	if len(paths) == 0 {
		return NewProps(nil), nil
	}
	p, err := properties.LoadFiles(paths, properties.UTF8, false)
	if err != nil {
		return nil, xerrors.Errorf("loading properties %s: %w", strings.Join(paths, ", "), err)
	}
	return &Props{p: p}, nil
}

// ParseProps parses properties from a string.
func ParseProps(s string) (*Props, error) {
	p, err := properties.LoadString(s)
	if err != nil {
		return nil, xerrors.Errorf("parsing properties: %w", err)
	}
	return &Props{p: p}, nil
}

func (c *Props) lookup(key string) (string, bool) {
	if c == nil || c.p == nil {
		return "", false
	}
	v, ok := c.p.Get(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (c *Props) GetString(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

func (c *Props) GetBool(key string, def bool) (bool, error) {
	v, ok := c.lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, xerrors.Errorf("config key %s: %q is not a boolean", key, v)
	}
	return b, nil
}

func (c *Props) GetInt(key string, def int) (int, error) {
	v, ok := c.lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, xerrors.Errorf("config key %s: %q is not an integer", key, v)
	}
	return i, nil
}

func (c *Props) GetStringList(key string) []string {
	v, ok := c.lookup(key)
	if !ok {
		return nil
	}
	parts := lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Filter(parts, func(s string, _ int) bool { return s != "" })
}

// Set overrides a single key.
func (c *Props) Set(key, value string) error {
	if _, _, err := c.p.Set(key, value); err != nil {
		return xerrors.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Keys returns all keys in sorted order.
func (c *Props) Keys() []string {
	if c == nil || c.p == nil {
		return nil
	}
	keys := c.p.Keys()
	sort.Strings(keys)
	return keys
}

// Map returns a copy of all key/value pairs.
func (c *Props) Map() map[string]string {
	if c == nil || c.p == nil {
		return map[string]string{}
	}
	return c.p.Map()
}
