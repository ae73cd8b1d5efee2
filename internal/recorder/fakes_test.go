package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/systemsculpt/scribe/internal/capture"
	"github.com/systemsculpt/scribe/internal/transcribe"
)

type fakeSession struct {
	mu         sync.Mutex
	outputPath string
	onComplete func(capture.Result)

	block        chan struct{}
	startErr     error
	autoComplete bool

	startCalls int
	stopCalls  int
	disposed   int
	active     bool
}

func (s *fakeSession) Start(ctx context.Context) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls++
	if s.startErr != nil {
		return s.startErr
	}
	s.active = true
	return nil
}

func (s *fakeSession) Stop() {
	s.mu.Lock()
	s.stopCalls++
	s.active = false
	auto := s.autoComplete
	s.mu.Unlock()

	if auto {
		go s.Complete(capture.ReasonManual)
	}
}

func (s *fakeSession) Complete(reason capture.StopReason) {
	s.onComplete(capture.Result{
		OutputPath: s.outputPath,
		Payload:    []byte("pcm"),
		StartedAt:  time.Now(),
		Duration:   1200 * time.Millisecond,
		StopReason: reason,
	})
}

func (s *fakeSession) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed++
	s.active = false
}

func (s *fakeSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *fakeSession) OutputPath() string    { return s.outputPath }
func (s *fakeSession) Stream() <-chan []byte { return nil }

func (s *fakeSession) counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCalls, s.stopCalls
}

type fakeFactory struct {
	mu           sync.Mutex
	next         *fakeSession
	autoComplete bool
	sessions     []*fakeSession
}

func (f *fakeFactory) NewSession(outputPath string, onComplete func(capture.Result)) capture.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.next
	f.next = nil
	if s == nil {
		s = &fakeSession{autoComplete: f.autoComplete}
	}
	s.outputPath = outputPath
	s.onComplete = onComplete
	f.sessions = append(f.sessions, s)
	return s
}

func (f *fakeFactory) created() []*fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSession(nil), f.sessions...)
}

type lingerEntry struct {
	message  string
	duration time.Duration
}

type fakeSurface struct {
	mu         sync.Mutex
	visible    bool
	stop       func()
	statuses   []string
	lingers    []lingerEntry
	recStates  []bool
	timerUp    int
	timerDown  int
	closeCalls int
}

func (s *fakeSurface) Open(stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
	s.stop = stop
}

func (s *fakeSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
	s.closeCalls++
}

func (s *fakeSurface) SetStatus(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, message)
}

func (s *fakeSurface) SetRecordingState(recording bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recStates = append(s.recStates, recording)
}

func (s *fakeSurface) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerUp++
}

func (s *fakeSurface) StopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerDown++
}

func (s *fakeSurface) AttachStream(<-chan []byte) {}
func (s *fakeSurface) DetachStream()              {}

func (s *fakeSurface) Linger(message string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lingers = append(s.lingers, lingerEntry{message: message, duration: duration})
}

func (s *fakeSurface) CloseAfter(time.Duration) {}

func (s *fakeSurface) IsVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *fakeSurface) triggerStop() {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *fakeSurface) lastLinger() (lingerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lingers) == 0 {
		return lingerEntry{}, false
	}
	return s.lingers[len(s.lingers)-1], true
}

type fakeStore struct {
	mu      sync.Mutex
	n       int
	saveErr error
	saved   map[string][]byte

	pathBlock chan struct{}
}

func (s *fakeStore) NewOutputPath(time.Time) (string, error) {
	s.mu.Lock()
	block := s.pathBlock
	s.mu.Unlock()
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("/notes/recording-%d.wav", s.n), nil
}

func (s *fakeStore) Save(path string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[path] = payload
	return nil
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int

	block chan struct{}
}

func (t *fakeTranscriber) Start(_ context.Context, _ []byte, _ string, _ transcribe.Options) (string, error) {
	t.mu.Lock()
	block := t.block
	t.mu.Unlock()
	if block != nil {
		<-block
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.text, t.err
}
