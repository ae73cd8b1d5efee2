// Package config resolves, parses, validates, and defaults scribe configuration.
package config

// Config is the fully materialized runtime configuration used by scribe.
type Config struct {
	Recordings    RecordingsConfig    `toml:"recordings"`
	Audio         AudioConfig         `toml:"audio"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Surface       SurfaceConfig       `toml:"surface"`
}

// RecordingsConfig controls where finished recordings land and how they are named.
type RecordingsConfig struct {
	Dir          string `toml:"dir"`
	NameTemplate string `toml:"name_template"`
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string `toml:"input"`
	Fallback string `toml:"fallback"`
}

// TranscriptionConfig controls the optional post-capture transcription handoff.
type TranscriptionConfig struct {
	Enable      bool   `toml:"enable"`
	Backend     string `toml:"backend"`
	Endpoint    string `toml:"endpoint"`
	APIKeyEnv   string `toml:"api_key_env"`
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	PostProcess bool   `toml:"post_process"`
}

// SurfaceConfig controls the desktop-notification presentation surface.
type SurfaceConfig struct {
	Enable  bool   `toml:"enable"`
	AppName string `toml:"app_name"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
