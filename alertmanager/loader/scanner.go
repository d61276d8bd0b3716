package loader

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// ScanDir returns the immediate subdirectories of root, one per candidate
// plugin, ordered lexically by name. A missing root means no plugins are
// configured and is not an error.
func ScanDir(root string) ([]string, error) {
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		log.Infow("alerter plugin directory does not exist, no plugins configured", "dir", root)
		return nil, nil
	case err != nil:
		return nil, xerrors.Errorf("stat plugin directory %s: %w", root, err)
	case !info.IsDir():
		return nil, xerrors.Errorf("plugin directory %s is not a directory", root)
	}

	// ReadDir sorts by file name
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, xerrors.Errorf("reading plugin directory %s: %w", root, err)
	}

	var dirs []string
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if e.IsDir() {
			dirs = append(dirs, p)
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if st, err := os.Stat(p); err == nil && st.IsDir() {
				dirs = append(dirs, p)
			}
		}
	}
	return dirs, nil
}
