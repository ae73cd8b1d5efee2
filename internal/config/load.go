package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: cfg,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	meta, err := toml.Decode(string(content), &cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	var warnings []Warning
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("unknown config key %q ignored", key.String()),
		})
	}

	if err := Validate(cfg); err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Validate enforces invariants cheap to check before any wiring happens.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Recordings.Dir) == "" {
		return errors.New("recordings.dir must not be empty")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Transcription.Backend)) {
	case "", "whisper", "stream":
	default:
		return fmt.Errorf("transcription.backend %q is not one of whisper, stream", cfg.Transcription.Backend)
	}

	if cfg.Transcription.Enable && strings.TrimSpace(cfg.Transcription.APIKeyEnv) == "" {
		return errors.New("transcription.api_key_env must be set when transcription is enabled")
	}

	return nil
}
