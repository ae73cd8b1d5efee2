package surface

import (
	"fmt"
	"time"
)

// Display durations differ by stop reason so an abnormal stop stays on screen
// long enough to be noticed.
const (
	SavedDuration  = 2400 * time.Millisecond
	ForcedDuration = 4200 * time.Millisecond
	ConfirmTimeout = 1600 * time.Millisecond
	ErrorTimeout   = 4200 * time.Millisecond
)

// SavedMessage is the short confirmation shown after a manual stop.
func SavedMessage(name string) string {
	return fmt.Sprintf("Saved to %s", name)
}

// ForcedStopMessage explains that the environment forcibly ended capture.
func ForcedStopMessage(name string) string {
	return fmt.Sprintf("Recording stopped: the environment forcibly ended capture. Saved to %s", name)
}

// TranscribedMessage confirms transcription completion.
func TranscribedMessage(postProcessed bool) string {
	if postProcessed {
		return "Transcription complete (post-processed)"
	}
	return "Transcription complete"
}

// OfflineQualifier is appended to error messages when the payload survived in memory.
const OfflineQualifier = "your recording is still available in memory"
