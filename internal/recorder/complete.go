package recorder

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/systemsculpt/scribe/internal/capture"
	"github.com/systemsculpt/scribe/internal/lifecycle"
	"github.com/systemsculpt/scribe/internal/surface"
)

// handleRecordingComplete is invoked exactly once per session by the capture
// completion callback. It returns the machine to idle, caches the payload in
// the offline fallback map before any persistence attempt, persists, and
// optionally hands off to transcription.
func (o *Orchestrator) handleRecordingComplete(res capture.Result) {
	o.mu.Lock()
	session := o.session
	o.session = nil
	o.state, _ = lifecycle.Transition(o.state, lifecycle.EventCompleted)
	o.stopIntent = false
	o.stopIssued = false
	o.lastOutputPath = res.OutputPath
	// Cached before any persistence attempt; a failing store must not lose the payload.
	o.offline[res.OutputPath] = res.Payload
	sessionID := o.sessionID
	o.mu.Unlock()

	if session != nil {
		session.Dispose()
	}

	o.surface.StopTimer()
	o.surface.DetachStream()
	o.surface.SetRecordingState(false)
	o.notifyListeners(false)

	name := filepath.Base(res.OutputPath)
	switch res.StopReason {
	case capture.ReasonBackgroundHidden:
		o.surface.Linger(surface.ForcedStopMessage(name), surface.ForcedDuration)
		o.surface.CloseAfter(surface.ForcedDuration)
	default:
		o.surface.Linger(surface.SavedMessage(name), surface.SavedDuration)
		o.surface.CloseAfter(surface.SavedDuration)
	}

	o.logger.Info("recording complete",
		"session_id", sessionID,
		"output_path", res.OutputPath,
		"stop_reason", string(res.StopReason),
		"duration_ms", res.Duration.Milliseconds(),
		"payload_bytes", len(res.Payload),
	)

	if o.store != nil {
		if err := o.store.Save(res.OutputPath, res.Payload); err != nil {
			// The payload is already in the offline map at this point.
			o.handleError(fmt.Errorf("persist recording: %w", err))
			return
		}
	}

	if o.transcription.Enable && o.transcriber != nil {
		// The completion gate stays open until transcription settles.
		go o.runTranscription(res, sessionID)
		return
	}

	o.resolveSessionLifecycle()
}

// runTranscription hands the finished payload to the transcription coordinator
// and settles the session gate once the outcome is known.
func (o *Orchestrator) runTranscription(res capture.Result, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	text, err := o.transcriber.Start(ctx, res.Payload, res.OutputPath, o.transcription.Options)
	if err != nil {
		o.handleError(fmt.Errorf("transcription: %w", err))
		return
	}

	o.logger.Info("transcription complete",
		"session_id", sessionID,
		"output_path", res.OutputPath,
		"transcript_length", len(text),
	)
	o.handleTranscriptionComplete(text)
	o.resolveSessionLifecycle()
}

// handleTranscriptionComplete delivers the transcript to the registered
// callback, or shows a self-dismissing confirmation when none is configured.
// A failing consumer callback never propagates into the orchestrator.
func (o *Orchestrator) handleTranscriptionComplete(text string) {
	if o.onTranscription == nil {
		o.surface.Linger(surface.TranscribedMessage(o.transcription.Options.PostProcess), surface.ConfirmTimeout)
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("transcription callback panicked: %v", r)
			}
		}()
		return o.onTranscription(text)
	}()
	if err != nil {
		o.logger.Warn("transcription callback failed", "error", err.Error())
		o.surface.SetStatus(fmt.Sprintf("Transcription handler failed: %v", err))
	}
}

// handleError is the single funnel for failures from capture, persistence,
// or transcription plumbing. It always resets the machine to idle so the
// system is never left stuck in starting or stopping.
func (o *Orchestrator) handleError(err error) {
	o.mu.Lock()
	sessionID := o.sessionID
	path := o.lastOutputPath
	_, cached := o.offline[path]
	session := o.session
	o.session = nil
	o.state, _ = lifecycle.Transition(o.state, lifecycle.EventFailed)
	o.stopIntent = false
	o.stopIssued = false
	o.mu.Unlock()

	if session != nil {
		session.Dispose()
	}

	o.logger.Error("session error",
		"session_id", sessionID,
		"output_path", path,
		"error", err.Error(),
	)

	message := fmt.Sprintf("Recording error: %v", err)
	if cached {
		message = fmt.Sprintf("%s (%s)", message, surface.OfflineQualifier)
	}

	o.surface.StopTimer()
	o.surface.DetachStream()
	o.surface.SetRecordingState(false)
	o.surface.Linger(message, surface.ErrorTimeout)
	o.surface.CloseAfter(surface.ErrorTimeout)
	o.notifyListeners(false)

	o.resolveSessionLifecycle()
}
