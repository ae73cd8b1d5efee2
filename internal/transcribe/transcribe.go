// Package transcribe converts finished recordings into text through
// configurable speech-to-text backends.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Options are per-request hints passed through to the backend.
type Options struct {
	Language    string
	Model       string
	PostProcess bool
}

// Coordinator turns one finished recording payload into text. Implementations
// are independently retryable and never touch orchestrator state.
type Coordinator interface {
	Start(ctx context.Context, payload []byte, outputPath string, opts Options) (string, error)
}

// Config selects and parameterizes the transcription backend.
type Config struct {
	Backend  string
	Endpoint string
	APIKey   string
}

// New builds a coordinator from config. A single bounded retry wraps the
// backend so one transport hiccup does not cost the transcript.
func New(cfg Config, logger *slog.Logger) (Coordinator, error) {
	var backend Coordinator
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "whisper":
		backend = newWhisperBackend(cfg)
	case "stream":
		backend = newStreamBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
	}
	return &retrying{backend: backend, logger: logger}, nil
}

type retrying struct {
	backend Coordinator
	logger  *slog.Logger
}

func (r *retrying) Start(ctx context.Context, payload []byte, outputPath string, opts Options) (string, error) {
	text, err := r.backend.Start(ctx, payload, outputPath, opts)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	if r.logger != nil {
		r.logger.Warn("transcription attempt failed; retrying once",
			"output_path", outputPath, "error", err.Error())
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	return r.backend.Start(ctx, payload, outputPath, opts)
}
