package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "using defaults")
	require.Equal(t, "default", loaded.Config.Audio.Input)
	require.Equal(t, "whisper", loaded.Config.Transcription.Backend)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[recordings]
dir = "/tmp/notes"

[audio]
input = "yeti"

[transcription]
enable = true
backend = "stream"
api_key_env = "DEEPGRAM_API_KEY"
model = "nova-2"
`)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "/tmp/notes", loaded.Config.Recordings.Dir)
	require.Equal(t, "yeti", loaded.Config.Audio.Input)
	require.Equal(t, "default", loaded.Config.Audio.Fallback, "unset keys keep defaults")
	require.True(t, loaded.Config.Transcription.Enable)
	require.Equal(t, "stream", loaded.Config.Transcription.Backend)
	require.Equal(t, "nova-2", loaded.Config.Transcription.Model)
}

func TestLoadWarnsOnUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[recordings]
dir = "/tmp/notes"
colour = "blue"
`)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "recordings.colour")
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := writeConfig(t, "recordings = [broken")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestValidateBackend(t *testing.T) {
	cfg := Default()
	cfg.Transcription.Backend = "carrier-pigeon"
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transcription.backend")
}

func TestValidateEmptyRecordingsDir(t *testing.T) {
	cfg := Default()
	cfg.Recordings.Dir = "  "
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "recordings.dir")
}

func TestValidateKeyEnvRequiredWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Transcription.Enable = true
	cfg.Transcription.APIKeyEnv = ""
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "api_key_env")
}

func TestResolvePathExplicitWins(t *testing.T) {
	path, err := ResolvePath("/custom/scribe.toml")
	require.NoError(t, err)
	require.Equal(t, "/custom/scribe.toml", path)
}

func TestResolvePathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/xdg/scribe/config.toml", path)
}
