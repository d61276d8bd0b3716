package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager/plugin"
	"github.com/curiostorage/alerthub/deps/config"
)

// writePlugin creates <root>/<dir>/conf/plugin.properties from kv pairs.
func writePlugin(t *testing.T, root, dir string, kv ...string) string {
	t.Helper()
	require.Zero(t, len(kv)%2, "kv must be pairs")

	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteString(kv[i] + "=" + kv[i+1] + "\n")
	}

	pdir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(pdir, "conf"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pdir, "conf", "plugin.properties"), []byte(b.String()), 0644))
	return pdir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

type recordingAlerter struct {
	target string
	sent   []*plugin.AlertPayload
}

func (r *recordingAlerter) SendAlert(data *plugin.AlertPayload) error {
	r.sent = append(r.sent, data)
	return nil
}

func newRecording(cfg config.Source) (plugin.Plugin, error) {
	return &recordingAlerter{target: cfg.GetString("test.target", "")}, nil
}

func newRecordingProps(cfg *config.Props) *recordingAlerter {
	return &recordingAlerter{target: cfg.GetString("test.target", "")}
}

func newFailing(config.Source) (plugin.Plugin, error) {
	return nil, xerrors.New("webhook url rejected")
}

func newPanicking(config.Source) (plugin.Plugin, error) {
	panic("constructor blew up")
}

type notAnAlerter struct{}

func newNotAnAlerter(config.Source) (interface{}, error) {
	return &notAnAlerter{}, nil
}

// fakeOpener serves libraries from memory, keyed by absolute path.
type fakeOpener struct {
	libs   map[string]fakeLibrary
	opened []string
}

type fakeLibrary map[string]interface{}

func (l fakeLibrary) Lookup(symbol string) (interface{}, error) {
	s, ok := l[symbol]
	if !ok {
		return nil, xerrors.Errorf("symbol %s not found", symbol)
	}
	return s, nil
}

func (f *fakeOpener) Open(path string) (Library, error) {
	f.opened = append(f.opened, path)
	l, ok := f.libs[path]
	if !ok {
		return nil, xerrors.Errorf("%s: not a shared module", path)
	}
	return l, nil
}
