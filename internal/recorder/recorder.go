// Package recorder coordinates the lifecycle of a single recording session:
// toggle serialization, capture start/stop, persistence handoff, and optional
// transcription. Exactly one session is ever active, and a failure at any
// stage resets the state machine instead of leaving it stuck.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/systemsculpt/scribe/internal/capture"
	"github.com/systemsculpt/scribe/internal/lifecycle"
	"github.com/systemsculpt/scribe/internal/surface"
	"github.com/systemsculpt/scribe/internal/transcribe"
)

var (
	// ErrNotInitialized indicates GetInstance was called with no dependencies
	// before any prior initialization.
	ErrNotInitialized = errors.New("recorder not initialized; dependencies required")
	// ErrUnloaded indicates the orchestrator has been torn down.
	ErrUnloaded = errors.New("recorder has been unloaded")
)

// Store is the durable-store contract the orchestrator requires: output path
// resolution and payload persistence. Directory layout stays the store's concern.
type Store interface {
	NewOutputPath(start time.Time) (string, error)
	Save(path string, payload []byte) error
}

// Transcription controls the optional post-capture transcription handoff.
type Transcription struct {
	Enable  bool
	Options transcribe.Options
}

// Deps are the collaborators handed to the orchestrator at construction.
type Deps struct {
	Logger      *slog.Logger
	Factory     capture.Factory
	Surface     surface.Surface
	Store       Store
	Transcriber transcribe.Coordinator

	Transcription Transcription
	// OnTranscription, when set, receives the finished transcript. A failing
	// or panicking callback is isolated and converted to a status message.
	OnTranscription func(text string) error
}

type toggleRequest struct {
	ctx  context.Context
	done chan error
}

// Orchestrator owns the recording state machine. All toggle requests funnel
// through a serialized queue; small shared state is mutex-guarded because the
// capture completion callback and the surface stop callback arrive on
// goroutines outside that queue.
type Orchestrator struct {
	logger      *slog.Logger
	factory     capture.Factory
	surface     surface.Surface
	store       Store
	transcriber transcribe.Coordinator

	transcription   Transcription
	onTranscription func(text string) error

	queue  chan *toggleRequest
	stopCh chan struct{}

	mu             sync.Mutex
	state          lifecycle.State
	session        capture.Session
	sessionID      string
	stopIntent     bool
	stopIssued     bool
	lastOutputPath string
	offline        map[string][]byte
	settled        chan struct{}
	listeners      map[int]func(bool)
	nextListener   int
	unloaded       bool
}

var (
	instanceMu sync.Mutex
	instance   *Orchestrator
)

// GetInstance returns the process-wide orchestrator, constructing it on first
// call. Calling with nil deps before any initialization is an error.
func GetInstance(deps *Deps) (*Orchestrator, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}
	if deps == nil {
		return nil, ErrNotInitialized
	}
	instance = New(*deps)
	return instance, nil
}

// New constructs an orchestrator and starts its toggle worker.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	surf := deps.Surface
	if surf == nil {
		surf = surface.Noop{}
	}

	o := &Orchestrator{
		logger:          logger,
		factory:         deps.Factory,
		surface:         surf,
		store:           deps.Store,
		transcriber:     deps.Transcriber,
		transcription:   deps.Transcription,
		onTranscription: deps.OnTranscription,
		queue:           make(chan *toggleRequest, 16),
		stopCh:          make(chan struct{}),
		state:           lifecycle.StateIdle,
		offline:         map[string][]byte{},
		listeners:       map[int]func(bool){},
	}

	go o.toggleWorker()
	return o
}

// State returns the current lifecycle state snapshot.
func (o *Orchestrator) State() lifecycle.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsRecording reports whether a session is active in any non-idle state.
func (o *Orchestrator) IsRecording() bool {
	return o.State() != lifecycle.StateIdle
}

// OfflinePayload returns the in-memory fallback entry for an output path.
func (o *Orchestrator) OfflinePayload(path string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	payload, ok := o.offline[path]
	return payload, ok
}

// ToggleRecording enqueues one toggle request and waits for its processing.
// Requests execute strictly one at a time, in call order.
func (o *Orchestrator) ToggleRecording(ctx context.Context) error {
	o.mu.Lock()
	unloaded := o.unloaded
	o.mu.Unlock()
	if unloaded {
		return ErrUnloaded
	}

	req := &toggleRequest{ctx: ctx, done: make(chan error, 1)}
	select {
	case o.queue <- req:
	case <-o.stopCh:
		return ErrUnloaded
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-o.stopCh:
		return ErrUnloaded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// toggleWorker drains the queue so no two performToggle runs ever overlap.
// On shutdown every request still queued is answered with ErrUnloaded, so a
// caller's returned completion always corresponds to its own request.
func (o *Orchestrator) toggleWorker() {
	for {
		select {
		case <-o.stopCh:
			o.rejectQueued()
			return
		case req := <-o.queue:
			req.done <- o.performToggle(req.ctx)
		}
	}
}

// rejectQueued flushes requests that were admitted before shutdown.
func (o *Orchestrator) rejectQueued() {
	for {
		select {
		case req := <-o.queue:
			req.done <- ErrUnloaded
		default:
			return
		}
	}
}

// performToggle inspects current state and either begins a new session or
// requests the active one to stop.
func (o *Orchestrator) performToggle(ctx context.Context) error {
	switch state := o.State(); state {
	case lifecycle.StateIdle:
		return o.beginSession(ctx)
	case lifecycle.StateStarting, lifecycle.StateRecording:
		o.requestStop()
		return nil
	case lifecycle.StateStopping:
		// A third rapid tap while the session is settling: interpreted against
		// the state the session settles into, which is idle, so skip it rather
		// than guess a retry policy.
		o.logger.Debug("toggle ignored while stopping", "session_id", o.currentSessionID())
		return nil
	default:
		return fmt.Errorf("toggle in unknown state %q", state)
	}
}

// beginSession opens the surface, constructs a capture session, and launches
// its asynchronous start.
func (o *Orchestrator) beginSession(ctx context.Context) error {
	if o.factory == nil || o.store == nil {
		return errors.New("recorder missing capture factory or store")
	}

	start := time.Now()
	outputPath, err := o.store.NewOutputPath(start)
	if err != nil {
		err = fmt.Errorf("resolve output path: %w", err)
		o.handleError(err)
		return err
	}

	sessionID := uuid.NewString()
	session := o.factory.NewSession(outputPath, o.handleRecordingComplete)

	o.mu.Lock()
	if o.unloaded {
		o.mu.Unlock()
		return ErrUnloaded
	}
	if next, terr := lifecycle.Transition(o.state, lifecycle.EventBegin); terr == nil {
		o.state = next
	} else {
		o.mu.Unlock()
		return terr
	}
	o.beginSessionLifecycleLocked()
	o.session = session
	o.sessionID = sessionID
	o.stopIntent = false
	o.stopIssued = false
	o.lastOutputPath = outputPath
	o.mu.Unlock()

	o.logger.Info("session starting", "session_id", sessionID, "output_path", outputPath)
	o.surface.Open(o.requestStop)
	o.surface.SetStatus("Starting recording")

	go o.awaitStart(ctx, session)
	return nil
}

// awaitStart waits for the capture session's asynchronous start to resolve,
// then either promotes to recording or honors a queued stop intent. The
// session's stop is never issued before this point.
func (o *Orchestrator) awaitStart(ctx context.Context, session capture.Session) {
	if err := session.Start(ctx); err != nil {
		o.mu.Lock()
		if o.session == session {
			o.session = nil
		}
		o.mu.Unlock()
		session.Dispose()
		o.handleError(fmt.Errorf("capture start: %w", err))
		return
	}

	o.mu.Lock()
	if o.session != session {
		// Session was torn down while starting; nothing left to promote.
		o.mu.Unlock()
		return
	}
	if o.stopIntent {
		o.stopIntent = false
		o.stopIssued = true
		// Start resolved, then the recorded intent fires: two table steps.
		if next, err := lifecycle.Transition(o.state, lifecycle.EventStartResolved); err == nil {
			o.state = next
		}
		if next, err := lifecycle.Transition(o.state, lifecycle.EventStopRequested); err == nil {
			o.state = next
		}
		o.mu.Unlock()
		o.logger.Info("stop intent honored after start resolved", "session_id", o.currentSessionID())
		session.Stop()
		return
	}
	if next, err := lifecycle.Transition(o.state, lifecycle.EventStartResolved); err == nil {
		o.state = next
	}
	o.mu.Unlock()

	o.surface.AttachStream(session.Stream())
	o.surface.SetRecordingState(true)
	o.surface.StartTimer()
	o.notifyListeners(true)
}

// requestStop is the single user stop action: from the surface callback or a
// toggle while active. While the session is still starting it only records
// intent; the underlying stop is issued at most once, after start resolves.
func (o *Orchestrator) requestStop() {
	o.mu.Lock()
	switch o.state {
	case lifecycle.StateStarting:
		if !o.stopIntent {
			o.stopIntent = true
			o.logger.Debug("stop requested before start resolved; intent recorded", "session_id", o.sessionID)
		}
		o.mu.Unlock()
	case lifecycle.StateRecording:
		if o.stopIssued || o.session == nil {
			o.mu.Unlock()
			return
		}
		o.stopIssued = true
		session := o.session
		if next, err := lifecycle.Transition(o.state, lifecycle.EventStopRequested); err == nil {
			o.state = next
		}
		o.mu.Unlock()
		o.surface.SetStatus("Stopping recording")
		session.Stop()
	default:
		o.mu.Unlock()
	}
}

// StopRecording requests a stop of the active session without toggling. It is
// a no-op when idle and safe while the session is still starting.
func (o *Orchestrator) StopRecording() error {
	o.mu.Lock()
	unloaded := o.unloaded
	o.mu.Unlock()
	if unloaded {
		return ErrUnloaded
	}
	o.requestStop()
	return nil
}

// currentSessionID returns the active session's correlation ID.
func (o *Orchestrator) currentSessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Unload forcibly stops any active session, waits for full settlement, clears
// all listeners, and releases the process-wide instance.
func (o *Orchestrator) Unload(ctx context.Context) error {
	o.mu.Lock()
	if o.unloaded {
		o.mu.Unlock()
		return nil
	}
	o.unloaded = true
	active := o.session != nil
	o.mu.Unlock()

	close(o.stopCh)

	if active {
		// Routed through requestStop so a still-starting session is never
		// stopped before its start resolves.
		o.requestStop()
	}
	// Tolerate a session that settled with an error; teardown proceeds either way.
	_ = o.WaitForSessionSettled(ctx)

	o.mu.Lock()
	o.listeners = map[int]func(bool){}
	o.session = nil
	o.state = lifecycle.StateIdle
	o.mu.Unlock()

	o.surface.Close()

	instanceMu.Lock()
	if instance == o {
		instance = nil
	}
	instanceMu.Unlock()
	return nil
}
