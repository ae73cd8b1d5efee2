// Package doctor runs runtime readiness diagnostics for config, storage, audio, and transcription.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/systemsculpt/scribe/internal/capture"
	"github.com/systemsculpt/scribe/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMsg = fmt.Sprintf("no file at %q, using defaults", cfg.Path)
	}
	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: configMsg,
	})

	checks = append(checks, checkRecordingsDir(cfg.Config.Recordings.Dir))
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Surface.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications require busctl"))
	}

	if cfg.Config.Transcription.Enable {
		checks = append(checks, checkAPIKey(cfg.Config.Transcription.APIKeyEnv))
	}

	return Report{Checks: checks}
}

// checkRecordingsDir verifies the recordings directory exists or can be created and written.
func checkRecordingsDir(dir string) Check {
	if strings.TrimSpace(dir) == "" {
		return Check{Name: "recordings.dir", Pass: false, Message: "recordings dir is empty"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: "recordings.dir", Pass: false, Message: fmt.Sprintf("create failed: %v", err)}
	}

	probe := filepath.Join(dir, ".scribe-doctor")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return Check{Name: "recordings.dir", Pass: false, Message: fmt.Sprintf("not writable: %v", err)}
	}
	_ = os.Remove(probe)

	return Check{Name: "recordings.dir", Pass: true, Message: fmt.Sprintf("writable at %s", dir)}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	device, err := capture.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", device.ID)
	if device.Muted {
		message = message + " (source is muted)"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkAPIKey verifies the configured API key environment variable is set.
func checkAPIKey(envName string) Check {
	if strings.TrimSpace(envName) == "" {
		return Check{Name: "transcription.api_key", Pass: false, Message: "api_key_env is empty"}
	}
	if strings.TrimSpace(os.Getenv(envName)) == "" {
		return Check{Name: "transcription.api_key", Pass: false, Message: fmt.Sprintf("%s is not set", envName)}
	}
	return Check{Name: "transcription.api_key", Pass: true, Message: fmt.Sprintf("%s is set", envName)}
}
