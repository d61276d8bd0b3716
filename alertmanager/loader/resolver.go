package loader

import (
	"os"
	"path/filepath"
	goplugin "plugin"
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

const (
	libDir       = "lib"
	libExtension = ".so"

	// OriginHost marks entry types compiled into the binary.
	OriginHost = "host"
)

// Library is an opened shared module.
type Library interface {
	Lookup(symbol string) (interface{}, error)
}

// LibraryOpener opens the shared module at path.
type LibraryOpener interface {
	Open(path string) (Library, error)
}

// NativeOpener loads Go shared modules built with -buildmode=plugin.
type NativeOpener struct{}

func (NativeOpener) Open(path string) (Library, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return nativeLibrary{p}, nil
}

type nativeLibrary struct {
	p *goplugin.Plugin
}

func (l nativeLibrary) Lookup(symbol string) (interface{}, error) {
	s, err := l.p.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Host holds the entry types compiled into the binary, keyed by
// fully-qualified name. It is the first layer of every resolution.
type Host struct {
	entries map[string]interface{}
}

func NewHost(entries ...map[string]interface{}) *Host {
	h := &Host{entries: map[string]interface{}{}}
	for _, m := range entries {
		for name, sym := range m {
			h.entries[name] = sym
		}
	}
	return h
}

func (h *Host) lookup(entryType string) (interface{}, bool) {
	if h == nil {
		return nil, false
	}
	sym, ok := h.entries[entryType]
	return sym, ok
}

// Resolved is an entry type symbol and where it was found.
type Resolved struct {
	Symbol interface{}
	Origin string
}

// Resolver finds a plugin's entry type: first among host entries, then in the
// plugin's private libraries. The library search path is built per plugin and
// never shared with other plugins.
type Resolver struct {
	Host   *Host
	Opener LibraryOpener
}

func (r *Resolver) Resolve(m *Manifest) (*Resolved, error) {
	if sym, ok := r.Host.lookup(m.EntryType); ok {
		return &Resolved{Symbol: sym, Origin: OriginHost}, nil
	}

	symbol := symbolName(m.EntryType)
	libs := LibrarySearchPath(m)
	if r.Opener == nil || len(libs) == 0 {
		return nil, xerrors.Errorf("%s: %s not a host entry type and no plugin libraries: %w", m.Dir, m.EntryType, ErrTypeResolutionFailed)
	}

	for _, lib := range libs {
		l, err := r.Opener.Open(lib)
		if err != nil {
			log.Warnw("failed to open plugin library", "plugin", m.Name, "library", lib, "error", err)
			continue
		}
		sym, err := l.Lookup(symbol)
		if err != nil {
			log.Debugw("symbol not in plugin library", "plugin", m.Name, "library", lib, "symbol", symbol)
			continue
		}
		return &Resolved{Symbol: sym, Origin: lib}, nil
	}

	return nil, xerrors.Errorf("%s: %s not found in %d plugin libraries: %w", m.Dir, m.EntryType, len(libs), ErrTypeResolutionFailed)
}

// LibrarySearchPath lists the plugin's libraries in search order: the *.so
// files of <dir>/lib, then every external library location. Directories
// contribute their *.so files in lexical order.
func LibrarySearchPath(m *Manifest) []string {
	var out []string

	if libs, err := sharedModulesIn(filepath.Join(m.Dir, libDir)); err == nil {
		out = append(out, libs...)
	}

	for _, p := range m.ExternalLibraryPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Dir, p)
		}
		st, err := os.Stat(p)
		if err != nil {
			log.Errorw("external library path not found", "plugin", m.Name, "path", p)
			continue
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		libs, err := sharedModulesIn(p)
		if err != nil {
			log.Errorw("reading external library directory", "plugin", m.Name, "path", p, "error", err)
			continue
		}
		out = append(out, libs...)
	}
	return out
}

func sharedModulesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), libExtension) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// symbolName is the exported name a library must provide for entryType:
// the last dot separated segment, e.g. NewSlack for example.com/slack.NewSlack.
func symbolName(entryType string) string {
	if i := strings.LastIndex(entryType, "."); i >= 0 {
		return entryType[i+1:]
	}
	return entryType
}
