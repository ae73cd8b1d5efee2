package capture

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	sampleRate     = 16000
	chunkSizeBytes = 640 // 20ms @ 16kHz mono s16
)

// PulseConfig controls input-source selection for pulse-backed sessions.
type PulseConfig struct {
	Input    string
	Fallback string
}

// PulseFactory builds capture sessions backed by a PulseAudio record stream.
type PulseFactory struct {
	cfg PulseConfig
}

func NewPulseFactory(cfg PulseConfig) *PulseFactory {
	return &PulseFactory{cfg: cfg}
}

func (f *PulseFactory) NewSession(outputPath string, onComplete func(Result)) Session {
	return &pulseSession{
		cfg:        f.cfg,
		outputPath: outputPath,
		onComplete: onComplete,
		chunks:     make(chan []byte, 128),
		stopCh:     make(chan struct{}),
	}
}

// pulseSession is one 16kHz mono s16 record stream plus its accumulated PCM.
// The completion callback fires exactly once, from finish, regardless of
// whether the end was a manual stop or a context cancellation.
type pulseSession struct {
	cfg        PulseConfig
	outputPath string
	onComplete func(Result)

	chunks chan []byte
	stopCh chan struct{}

	mu        sync.Mutex
	client    *pulse.Client
	stream    *pulse.RecordStream
	device    Device
	startedAt time.Time
	active    bool
	finished  bool
	disposed  bool
	pending   []byte
	rawPCM    []byte

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// Start resolves device selection, opens the record stream, and begins capture.
// It returns once frames are flowing; the session is controllable afterwards.
func (s *pulseSession) Start(ctx context.Context) error {
	device, err := SelectDevice(ctx, s.cfg.Input, s.cfg.Fallback)
	if err != nil {
		return err
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("scribe"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	writer := pulse.NewWriter(writerFunc(s.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("scribe recording"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	s.mu.Lock()
	s.client = client
	s.stream = stream
	s.device = device
	s.startedAt = time.Now()
	s.active = true
	s.mu.Unlock()

	stream.Start()

	// The host environment forcing capture to end is a normal completion with
	// a distinguishing reason, not an error.
	go func() {
		select {
		case <-ctx.Done():
			s.finish(ReasonBackgroundHidden)
		case <-s.stopCh:
		}
	}()

	return nil
}

// Stop ends capture and triggers the completion callback asynchronously.
func (s *pulseSession) Stop() {
	go s.finish(ReasonManual)
}

// Dispose releases the underlying device without emitting a completion.
func (s *pulseSession) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
	s.finish(ReasonError)
}

// IsActive reports whether frames are still being accepted.
func (s *pulseSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.finished
}

func (s *pulseSession) OutputPath() string {
	return s.outputPath
}

// Stream exposes fixed-size PCM chunks for presentation-side level metering.
func (s *pulseSession) Stream() <-chan []byte {
	return s.chunks
}

// finish tears down the stream, assembles the WAV payload, and emits the
// completion result exactly once.
func (s *pulseSession) finish(reason StopReason) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	close(s.stopCh)
	client := s.client
	stream := s.stream
	emit := !s.disposed && s.onComplete != nil
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}

	s.inflight.Wait()

	s.mu.Lock()
	s.active = false
	startedAt := s.startedAt
	pcm := s.rawPCM
	s.rawPCM = nil
	s.pending = nil
	s.mu.Unlock()

	close(s.chunks)

	if !emit {
		return
	}

	s.onComplete(Result{
		OutputPath: s.outputPath,
		Payload:    EncodeWAV(pcm, sampleRate, 1),
		StartedAt:  startedAt,
		Duration:   time.Since(startedAt),
		StopReason: reason,
	})
}

// onPCM receives raw Pulse frames and emits chunkSizeBytes slices to s.chunks.
func (s *pulseSession) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-s.stopCh:
		return 0, io.EOF
	default:
	}

	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as s.finished to avoid Add/Wait races.
	s.inflight.Add(1)

	s.rawPCM = append(s.rawPCM, buffer...)
	s.pending = append(s.pending, buffer...)

	chunks := make([][]byte, 0, len(s.pending)/chunkSizeBytes)
	for len(s.pending) >= chunkSizeBytes {
		chunk := make([]byte, chunkSizeBytes)
		copy(chunk, s.pending[:chunkSizeBytes])
		s.pending = s.pending[chunkSizeBytes:]
		chunks = append(chunks, chunk)
	}
	s.mu.Unlock()
	defer s.inflight.Done()

	s.bytes.Add(int64(len(buffer)))

	for _, chunk := range chunks {
		select {
		case <-s.stopCh:
			return 0, io.EOF
		case s.chunks <- chunk:
		}
	}

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
