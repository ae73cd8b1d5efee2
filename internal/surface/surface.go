// Package surface renders recording status to the user and forwards stop actions.
package surface

import "time"

// Surface is the presentation contract consumed by the orchestrator. The
// orchestrator hands it read-only snapshots only; a surface never mutates
// orchestrator state directly.
type Surface interface {
	Open(stop func())
	Close()
	SetStatus(message string)
	SetRecordingState(recording bool)
	StartTimer()
	StopTimer()
	AttachStream(stream <-chan []byte)
	DetachStream()
	Linger(message string, duration time.Duration)
	CloseAfter(duration time.Duration)
	IsVisible() bool
}

// Noop preserves orchestrator flow when no surface is wired.
type Noop struct{}

func (Noop) Open(func())                  {}
func (Noop) Close()                       {}
func (Noop) SetStatus(string)             {}
func (Noop) SetRecordingState(bool)       {}
func (Noop) StartTimer()                  {}
func (Noop) StopTimer()                   {}
func (Noop) AttachStream(<-chan []byte)   {}
func (Noop) DetachStream()                {}
func (Noop) Linger(string, time.Duration) {}
func (Noop) CloseAfter(time.Duration)     {}
func (Noop) IsVisible() bool              { return false }
