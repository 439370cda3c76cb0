package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/hioload-shard/control"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgFile = ""
		configFormat = "yaml"
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigShowYAML(t *testing.T) {
	t.Setenv("HIOLOAD_SHARD_COUNT", "6")
	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 6, doc["shard"]["count"])
	assert.Equal(t, 9000, doc["server"]["port"])
	assert.Equal(t, "info", doc["log"]["level"])
}

func TestConfigShowJSONWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600))

	out, err := execute(t, "config", "show", "--config", path, "--format", "json")
	require.NoError(t, err)
	var settings map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.Equal(t, float64(9100), settings["server.port"])
	assert.Equal(t, "drop", settings["shard.overflow_policy"])
}

func TestConfigValidate(t *testing.T) {
	out, err := execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	t.Setenv("HIOLOAD_SHARD_MAX_PAYLOAD", "2")
	_, err = execute(t, "config", "validate")
	assert.Error(t, err)
}

func TestConfigShowUnknownFormat(t *testing.T) {
	_, err := execute(t, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestServeFlagsRegistered(t *testing.T) {
	for _, name := range flagKeys {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), name)
	}
	assert.NotNil(t, serveCmd.Flags().Lookup("watch-config"))
}

func TestObserveReloads(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	hub := control.NewReloadHub()
	ctrl := control.NewController()
	observeReloads(hub, ctrl, zap.New(core))
	restart := hub.Subscribe()

	hub.Trigger()
	hub.Trigger()
	assert.Equal(t, int64(2), ctrl.Metrics().Counter(control.Reloads))
	assert.Len(t, restart, 1, "subscribers still see one coalesced notification")
	entries := logs.FilterMessage("reload requested").All()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[1].ContextMap()["triggers"])

	ctrl.Config().SetConfig(map[string]any{"shard.count": 4})
	applied := logs.FilterMessage("configuration applied").All()
	require.Len(t, applied, 1)
	assert.Equal(t, uint64(1), applied[0].ContextMap()["version"])
}
