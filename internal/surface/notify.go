package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config controls desktop-notification surface behavior.
type Config struct {
	Enable  bool
	AppName string
}

// DesktopNotify renders recording state through freedesktop notifications.
// One replaceable notification ID is reused so status updates do not stack.
type DesktopNotify struct {
	cfg    Config
	logger *slog.Logger

	mu             sync.Mutex
	visible        bool
	stop           func()
	notificationID uint32
	recording      bool
	timerStop      chan struct{}
	timerStart     time.Time
	streamStop     chan struct{}
	streamBytes    int64
}

// NewDesktopNotify creates a notification surface from config.
func NewDesktopNotify(cfg Config, logger *slog.Logger) *DesktopNotify {
	if cfg.AppName == "" {
		cfg.AppName = "scribe"
	}
	return &DesktopNotify{cfg: cfg, logger: logger}
}

// Open marks the surface visible and stores the orchestrator's stop callback.
func (d *DesktopNotify) Open(stop func()) {
	d.mu.Lock()
	d.visible = true
	d.stop = stop
	d.mu.Unlock()
}

// TriggerStop forwards the single user stop action back to the orchestrator.
func (d *DesktopNotify) TriggerStop() {
	d.mu.Lock()
	stop := d.stop
	d.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Close dismisses the surface and clears the stop callback.
func (d *DesktopNotify) Close() {
	d.StopTimer()
	d.DetachStream()

	d.mu.Lock()
	d.visible = false
	d.stop = nil
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id != 0 && d.cfg.Enable {
		d.run(func(ctx context.Context) error {
			return desktopDismiss(ctx, id)
		})
	}
}

// SetStatus replaces the current notification text.
func (d *DesktopNotify) SetStatus(message string) {
	d.show(message, 0)
}

// SetRecordingState records the boolean flag surfaced alongside the timer.
func (d *DesktopNotify) SetRecordingState(recording bool) {
	d.mu.Lock()
	d.recording = recording
	d.mu.Unlock()
}

// StartTimer begins the once-per-second elapsed-time refresh.
func (d *DesktopNotify) StartTimer() {
	d.mu.Lock()
	if d.timerStop != nil {
		d.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	d.timerStop = stopCh
	d.timerStart = time.Now()
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				d.show(d.timerLine(), 0)
			}
		}
	}()
}

// StopTimer halts the elapsed-time refresh.
func (d *DesktopNotify) StopTimer() {
	d.mu.Lock()
	stopCh := d.timerStop
	d.timerStop = nil
	d.mu.Unlock()
	if stopCh != nil {
		close(stopCh)
	}
}

// AttachStream drains the capture stream and tracks byte volume for the timer line.
func (d *DesktopNotify) AttachStream(stream <-chan []byte) {
	d.mu.Lock()
	if d.streamStop != nil {
		d.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	d.streamStop = stopCh
	d.streamBytes = 0
	d.mu.Unlock()

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case chunk, ok := <-stream:
				if !ok {
					return
				}
				d.mu.Lock()
				d.streamBytes += int64(len(chunk))
				d.mu.Unlock()
			}
		}
	}()
}

// DetachStream stops draining the attached capture stream.
func (d *DesktopNotify) DetachStream() {
	d.mu.Lock()
	stopCh := d.streamStop
	d.streamStop = nil
	d.mu.Unlock()
	if stopCh != nil {
		close(stopCh)
	}
}

// Linger shows a message for an explicit duration.
func (d *DesktopNotify) Linger(message string, duration time.Duration) {
	d.show(message, duration)
}

// CloseAfter dismisses the surface once the duration elapses.
func (d *DesktopNotify) CloseAfter(duration time.Duration) {
	go func() {
		time.Sleep(duration)
		d.Close()
	}()
}

// IsVisible reports whether the surface is currently open.
func (d *DesktopNotify) IsVisible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}

// timerLine renders the elapsed-time status text.
func (d *DesktopNotify) timerLine() string {
	d.mu.Lock()
	elapsed := time.Since(d.timerStart).Round(time.Second)
	bytes := d.streamBytes
	d.mu.Unlock()

	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	if bytes > 0 {
		return fmt.Sprintf("Recording %d:%02d (%d KiB)", minutes, seconds, bytes/1024)
	}
	return fmt.Sprintf("Recording %d:%02d", minutes, seconds)
}

// show dispatches a replaceable notification; zero duration means persistent.
func (d *DesktopNotify) show(message string, duration time.Duration) {
	if !d.cfg.Enable {
		return
	}

	d.mu.Lock()
	replaceID := d.notificationID
	appName := d.cfg.AppName
	d.mu.Unlock()

	timeoutMS := int(duration.Milliseconds())

	d.run(func(ctx context.Context) error {
		id, err := desktopNotify(ctx, appName, replaceID, message, timeoutMS)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.notificationID = id
		d.mu.Unlock()
		return nil
	})
}

// run executes a notification operation with a bounded timeout.
func (d *DesktopNotify) run(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	if err := fn(ctx); err != nil {
		d.log("surface dispatch failed", err)
	}
}

// log emits debug-only surface failures to the runtime logger.
func (d *DesktopNotify) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
