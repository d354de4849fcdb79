package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestResolvePathPrefersExplicitThenXDG(t *testing.T) {
	got, err := ResolvePath("/tmp/custom.yaml")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.yaml", got)

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg/soudan/config.yaml", got)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
}

func TestLoadOverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"speech:\n  url: wss://stt.example.com/v1\ncapture:\n  silence_window_ms: 30000\n",
	), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "wss://stt.example.com/v1", loaded.Config.Speech.URL)
	require.Equal(t, 30000, loaded.Config.Capture.SilenceWindowMS)
	require.Equal(t, "ja-JP", loaded.Config.Speech.Language)
	require.Equal(t, 2000, loaded.Config.Capture.AnswerTextCap)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speech:\n  url: http://nope\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ws:// or wss://")
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty url", func(c *Config) { c.Speech.URL = " " }, "speech.url must not be empty"},
		{"bad scheme", func(c *Config) { c.Speech.URL = "tcp://x:1" }, "ws:// or wss://"},
		{"no host", func(c *Config) { c.Speech.URL = "ws://" }, "must include a host"},
		{"empty language", func(c *Config) { c.Speech.Language = "" }, "speech.language"},
		{"negative window", func(c *Config) { c.Capture.SilenceWindowMS = -1 }, "silence_window_ms"},
		{"zero retries", func(c *Config) { c.Capture.StartRetries = 0 }, "start_retries"},
		{"zero text cap", func(c *Config) { c.Capture.AnswerTextCap = 0 }, "answer_text_cap"},
		{"bad export format", func(c *Config) { c.Export.Format = "pdf" }, "export.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateWarnsOnDisabledSilenceWindow(t *testing.T) {
	cfg := Default()
	cfg.Capture.SilenceWindowMS = 0
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}
