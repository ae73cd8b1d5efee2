// Package capture owns the media-capture session primitive and its PulseAudio backend.
package capture

import (
	"context"
	"time"
)

// StopReason classifies why a capture session ended.
type StopReason string

const (
	ReasonManual           StopReason = "manual"
	ReasonBackgroundHidden StopReason = "background-hidden"
	ReasonError            StopReason = "error"
)

// Result is the single completion payload emitted once per finished session.
type Result struct {
	OutputPath string
	Payload    []byte
	StartedAt  time.Time
	Duration   time.Duration
	StopReason StopReason
}

// Session is one in-progress recording. Start resolves when capture is actively
// running; Stop is fire-and-forget and triggers the completion callback exactly
// once. Callers must not invoke Stop before Start has returned.
type Session interface {
	Start(ctx context.Context) error
	Stop()
	Dispose()
	IsActive() bool
	OutputPath() string
	Stream() <-chan []byte
}

// Factory constructs capture sessions bound to a completion callback.
type Factory interface {
	NewSession(outputPath string, onComplete func(Result)) Session
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(outputPath string, onComplete func(Result)) Session

func (f FactoryFunc) NewSession(outputPath string, onComplete func(Result)) Session {
	return f(outputPath, onComplete)
}
