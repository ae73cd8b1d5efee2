package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

const streamChunkBytes = 8192

// streamBackend replays the finished payload over a Deepgram-style streaming
// websocket in fixed chunks and assembles the final alternatives.
type streamBackend struct {
	cfg Config
}

func newStreamBackend(cfg Config) *streamBackend {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = "wss://api.deepgram.com/v1/listen"
	}
	return &streamBackend{cfg: cfg}
}

type streamResult struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (b *streamBackend) Start(ctx context.Context, payload []byte, outputPath string, opts Options) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("empty recording payload")
	}
	if strings.TrimSpace(b.cfg.APIKey) == "" {
		return "", errors.New("transcription API key is not configured")
	}

	endpoint, err := buildStreamURL(b.cfg.Endpoint, opts)
	if err != nil {
		return "", err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+b.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return "", fmt.Errorf("connect streaming backend: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sendErr := make(chan error, 1)
	go func() {
		for offset := 0; offset < len(payload); offset += streamChunkBytes {
			end := offset + streamChunkBytes
			if end > len(payload) {
				end = len(payload)
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, payload[offset:end]); err != nil {
				sendErr <- fmt.Errorf("send audio: %w", err)
				return
			}
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
			sendErr <- fmt.Errorf("close stream: %w", err)
			return
		}
		sendErr <- nil
	}()

	var finals []string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("read transcript events: %w", err)
		}

		var result streamResult
		if err := json.Unmarshal(message, &result); err != nil {
			continue
		}
		if !result.IsFinal || len(result.Channel.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Channel.Alternatives[0].Transcript); text != "" {
			finals = append(finals, text)
		}
	}

	if err := <-sendErr; err != nil {
		return "", err
	}

	return strings.Join(finals, " "), nil
}

// buildStreamURL appends recognition parameters to the websocket endpoint.
func buildStreamURL(endpoint string, opts Options) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse streaming endpoint: %w", err)
	}

	query := parsed.Query()
	query.Set("encoding", "linear16")
	query.Set("sample_rate", "16000")
	query.Set("channels", "1")
	if opts.Model != "" {
		query.Set("model", opts.Model)
	}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	if opts.PostProcess {
		query.Set("smart_format", "true")
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
