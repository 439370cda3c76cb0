package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/hioload-shard/api"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hioload.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9100
  poll_timeout: 2s
shard:
  count: 4
  overflow_policy: block
  block_timeout: 10ms
log:
  level: debug
  format: json
`)
	v, err := New(path)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, 2*time.Second, c.Server.PollTimeout)
	assert.Equal(t, 4, c.Shard.Count)
	assert.Equal(t, api.OverflowBlock, c.Shard.OverflowPolicy)
	assert.Equal(t, 10*time.Millisecond, c.Shard.BlockTimeout)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 512, c.Shard.MaxPayload, "unset keys keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "shard:\n  count: 4\n")
	t.Setenv("HIOLOAD_SHARD_COUNT", "8")
	t.Setenv("HIOLOAD_SERVER_MAX_CONNECTIONS", "0")

	v, err := New(path)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Shard.Count)
	assert.Equal(t, 0, c.Server.MaxConnections)
}

func TestLoadFlagsWin(t *testing.T) {
	t.Setenv("HIOLOAD_SERVER_PORT", "9200")
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.Int("port", 9000, "")
	require.NoError(t, fs.Parse([]string{"--port", "9300"}))

	v, err := New("")
	require.NoError(t, err)
	require.NoError(t, v.BindPFlag("server.port", fs.Lookup("port")))
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9300, c.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"payload": "shard:\n  max_payload: 3\n",
		"policy":  "shard:\n  overflow_policy: spill\n",
		"level":   "log:\n  level: loud\n",
		"format":  "log:\n  format: xml\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := New(writeFile(t, body))
			require.NoError(t, err)
			_, err = Load(v)
			assert.Error(t, err)
		})
	}
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "poll_timeout: 10s")
	assert.Contains(t, string(out), "overflow_policy: drop")

	v, err := New(writeFile(t, string(out)))
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
}
