package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWhisperEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// whisperBackend uploads the finished WAV payload to an OpenAI-compatible
// audio/transcriptions endpoint.
type whisperBackend struct {
	cfg    Config
	client *resty.Client
}

type whisperResponse struct {
	Text string `json:"text"`
}

func newWhisperBackend(cfg Config) *whisperBackend {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = defaultWhisperEndpoint
	}
	client := resty.New().
		SetTimeout(2 * time.Minute).
		SetHeader("User-Agent", "scribe")
	return &whisperBackend{cfg: cfg, client: client}
}

func (w *whisperBackend) Start(ctx context.Context, payload []byte, outputPath string, opts Options) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("empty recording payload")
	}
	if strings.TrimSpace(w.cfg.APIKey) == "" {
		return "", errors.New("transcription API key is not configured")
	}

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	fields := map[string]string{"model": model}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}

	var result whisperResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetAuthToken(w.cfg.APIKey).
		SetFileReader("file", filepath.Base(outputPath), bytes.NewReader(payload)).
		SetFormData(fields).
		SetResult(&result).
		Post(w.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcription http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return strings.TrimSpace(result.Text), nil
}
