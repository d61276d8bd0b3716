package loader

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

const (
	confDir          = "conf"
	manifestFile     = "plugin.properties"
	overrideManifest = "override.properties"
)

// Manifest describes one alerter plugin directory.
type Manifest struct {
	Name      string
	EntryType string
	// ExternalLibraryPaths are extra library locations, plugin-relative or absolute, in search order.
	ExternalLibraryPaths []string

	// Dir is the plugin directory; relative library paths resolve against it.
	Dir string
	// Props is the whole plugin configuration handed to the alerter constructor.
	Props *config.Props
}

// ReadManifest reads conf/plugin.properties of dir, layering
// conf/override.properties on top when present.
//
// A missing or unparsable descriptor yields (nil, nil): the directory is not
// an alerter plugin. A descriptor without alerter.name or alerter.class yields
// ErrMissingManifestField.
func ReadManifest(dir string) (*Manifest, error) {
	base := filepath.Join(dir, confDir, manifestFile)
	if _, err := os.Stat(base); err != nil {
		log.Debugw("no alerter descriptor, skipping", "dir", dir, "file", base)
		return nil, nil
	}

	files := []string{base}
	override := filepath.Join(dir, confDir, overrideManifest)
	if _, err := os.Stat(override); err == nil {
		files = append(files, override)
	}

	props, err := config.LoadProps(files...)
	if err != nil {
		log.Warnw("unparsable alerter descriptor, skipping", "dir", dir, "error", err)
		return nil, nil
	}

	m := &Manifest{
		Name:                 props.GetString(config.KeyAlerterName, ""),
		EntryType:            props.GetString(config.KeyAlerterClass, ""),
		ExternalLibraryPaths: props.GetStringList(config.KeyAlerterExternalLibs),
		Dir:                  dir,
		Props:                props,
	}
	if m.EntryType == "" {
		return nil, xerrors.Errorf("%s: %s not set: %w", dir, config.KeyAlerterClass, ErrMissingManifestField)
	}
	if m.Name == "" {
		return nil, xerrors.Errorf("%s: %s not set: %w", dir, config.KeyAlerterName, ErrMissingManifestField)
	}
	return m, nil
}
