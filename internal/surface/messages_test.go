package surface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageDurationsDifferByReason(t *testing.T) {
	require.Equal(t, 2400*time.Millisecond, SavedDuration)
	require.Equal(t, 4200*time.Millisecond, ForcedDuration)
	require.Greater(t, ForcedDuration, SavedDuration)
}

func TestSavedMessage(t *testing.T) {
	require.Equal(t, "Saved to note.wav", SavedMessage("note.wav"))
}

func TestForcedStopMessageMentionsForcedEnd(t *testing.T) {
	msg := ForcedStopMessage("note.wav")
	require.Contains(t, msg, "forcibly ended capture")
	require.Contains(t, msg, "note.wav")
}

func TestTranscribedMessageReflectsPostProcessing(t *testing.T) {
	require.Equal(t, "Transcription complete", TranscribedMessage(false))
	require.Contains(t, TranscribedMessage(true), "post-processed")
}

func TestNoopSurfaceIsInvisible(t *testing.T) {
	var s Surface = Noop{}
	s.Open(func() {})
	require.False(t, s.IsVisible())
}

func TestDesktopNotifyTriggerStop(t *testing.T) {
	d := NewDesktopNotify(Config{}, nil)

	fired := 0
	d.Open(func() { fired++ })
	require.True(t, d.IsVisible())

	d.TriggerStop()
	require.Equal(t, 1, fired)

	d.Close()
	require.False(t, d.IsVisible())

	// Stop callback is cleared on close.
	d.TriggerStop()
	require.Equal(t, 1, fired)
}

func TestDesktopNotifyTimerLine(t *testing.T) {
	d := NewDesktopNotify(Config{}, nil)
	d.mu.Lock()
	d.timerStart = time.Now().Add(-65 * time.Second)
	d.streamBytes = 4096
	d.mu.Unlock()

	line := d.timerLine()
	require.Contains(t, line, "Recording 1:05")
	require.Contains(t, line, "4 KiB")
}
