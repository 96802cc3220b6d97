package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: "127.0.0.1:5000"
names:
  zones:
    1: Kitchen
`), 0o600))

	out, err := execute(t, "--config", path, "--validate")
	require.NoError(t, err)
	assert.Equal(t, "Configuration is valid\n", out)
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \"127.0.0.1:5000\"\nmetrics:\n  port: 9100\n"), 0o600))

	flags := &cliFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.register(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "--listen", "127.0.0.1:6000"}))

	cfg, err := flags.load(fs)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6000", cfg.Listen)
	assert.Equal(t, 9100, cfg.Metrics.Port, "unset flags keep the file value")
}

func TestInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \"127.0.0.1:5000\"\nlog:\n  level: loud\n"), 0o600))

	_, err := execute(t, "--config", path, "--validate")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "debug", "json")
	logger.Debug("probe")
	assert.Contains(t, buf.String(), `"service":"hlxserver"`)
	assert.Contains(t, buf.String(), `"msg":"probe"`)

	buf.Reset()
	logger = setupLogger(&buf, "warn", "text")
	logger.Info("hidden")
	assert.Empty(t, buf.String())
}
