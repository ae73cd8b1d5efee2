package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Recordings: RecordingsConfig{
			Dir:          defaultRecordingsDir(),
			NameTemplate: "recording-{{.Year}}-{{.Month}}-{{.Day}}_{{.Hour}}-{{.Minute}}-{{.Second}}.wav",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Transcription: TranscriptionConfig{
			Enable:    false,
			Backend:   "whisper",
			APIKeyEnv: "OPENAI_API_KEY",
			Language:  "en",
		},
		Surface: SurfaceConfig{
			Enable:  true,
			AppName: "scribe",
		},
	}
}

// defaultRecordingsDir prefers XDG_DATA_HOME, falling back to ~/.local/share.
func defaultRecordingsDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "scribe", "recordings")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "recordings")
	}
	return filepath.Join(home, ".local", "share", "scribe", "recordings")
}
