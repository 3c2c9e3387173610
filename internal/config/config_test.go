package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mqaid/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "mqaid", "config.toml"), resolved)

	assert.Equal(t, filepath.Join(home, ".local", "state", "mqaid"), cfg.Paths.StateDir)
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "history.db"), cfg.HistoryPath())
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "mqaid.lock"), cfg.LockPath())
	assert.Equal(t, []string{".flac"}, cfg.Scan.Extensions)
	assert.Equal(t, uint32(3), cfg.Scan.WindowSeconds)
	assert.Equal(t, 16, cfg.Scan.MaxWorkers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "mqa_identifier.log", filepath.Base(cfg.Report.Path))
	assert.True(t, filepath.IsAbs(cfg.Report.Path))
	assert.False(t, cfg.History.Enabled)
}

func TestLoad_ExplicitFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[scan]
workers = 4
extensions = ["FLAC", ".fla", "flac"]

[logging]
level = " DEBUG "
format = "json"
outputs = ["stderr", "", "~/logs/mqaid.log"]

[history]
enabled = true
path = "~/db/runs.db"
`), 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, []string{".flac", ".fla"}, cfg.Scan.Extensions)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"stderr", filepath.Join(home, "logs", "mqaid.log")}, cfg.Logging.Outputs)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(home, "db", "runs.db"), cfg.HistoryPath())
}

func TestLoad_ProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("mqaid.toml", []byte("[report]\nformat = \"yaml\"\n"), 0o644))

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "mqaid.toml", filepath.Base(resolved))
	assert.Equal(t, "yaml", cfg.Report.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.NotNil(t, cfg)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"unknown key":    "[scan]\nthreads = 4\n",
		"bad level":      "[logging]\nlevel = \"loud\"\n",
		"bad format":     "[report]\nformat = \"xml\"\n",
		"zero window":    "[scan]\nwindow_seconds = 0\n",
		"negative pool":  "[scan]\nworkers = -1\n",
		"empty encoder":  "[tags]\nencoder_value = \"  \"\n",
		"malformed toml": "[scan\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, _, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var parsed config.Config
	require.NoError(t, toml.Unmarshal([]byte(config.SampleConfig()), &parsed))

	want := config.Default()
	assert.Equal(t, want.Scan, parsed.Scan)
	assert.Equal(t, want.Tags, parsed.Tags)
	assert.Equal(t, want.Report, parsed.Report)
	assert.Equal(t, want.Logging, parsed.Logging)
	assert.Equal(t, want.History, parsed.History)
	assert.Equal(t, want.Paths, parsed.Paths)
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.SampleConfig(), string(data))

	assert.Error(t, config.CreateSample(path), "existing file must not be overwritten")
}
