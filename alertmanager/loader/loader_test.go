package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curiostorage/alerthub/deps/config"
)

func TestLoadIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	host := NewHost(map[string]interface{}{
		"example.com/rec.New":      newRecording,
		"example.com/fail.New":     newFailing,
		"example.com/panic.New":    newPanicking,
		"example.com/notalert.New": newNotAnAlerter,
		"example.com/noctor.New":   "just a string",
	})

	writePlugin(t, root, "a", config.KeyAlerterName, "a", config.KeyAlerterClass, "example.com/rec.New")
	writePlugin(t, root, "b", config.KeyAlerterName, "b")
	writePlugin(t, root, "c", config.KeyAlerterName, "c", config.KeyAlerterClass, "example.com/rec.New")
	writePlugin(t, root, "d", config.KeyAlerterName, "d", config.KeyAlerterClass, "example.com/missing.New")
	writePlugin(t, root, "e", config.KeyAlerterName, "e", config.KeyAlerterClass, "example.com/fail.New")
	writePlugin(t, root, "f", config.KeyAlerterName, "f", config.KeyAlerterClass, "example.com/panic.New")
	writePlugin(t, root, "g", config.KeyAlerterName, "g", config.KeyAlerterClass, "example.com/notalert.New")
	writePlugin(t, root, "h", config.KeyAlerterName, "h", config.KeyAlerterClass, "example.com/noctor.New")
	touch(t, filepath.Join(root, "not-a-plugin", "README"))

	res, err := Load(root, &Resolver{Host: host, Opener: &fakeOpener{}})
	require.NoError(t, err)
	require.Equal(t, 9, res.Candidates)

	var names []string
	for _, d := range res.Loaded {
		names = append(names, d.Name)
	}
	require.Equal(t, []string{"a", "c"}, names)

	require.NotNil(t, res.Failures)
	var reasons []string
	for _, e := range res.Failures.Errors {
		reasons = append(reasons, Reason(e))
	}
	require.Equal(t, []string{
		"missing_manifest_field",
		"type_resolution_failed",
		"instantiation_failed",
		"instantiation_failed",
		"capability_mismatch",
		"constructor_missing",
	}, reasons)
}

func TestLoadMissingRoot(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "absent"), &Resolver{Host: NewHost()})
	require.NoError(t, err)
	require.Empty(t, res.Loaded)
	require.Nil(t, res.Failures)
}
