package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/systemsculpt/scribe/internal/capture"
	"github.com/systemsculpt/scribe/internal/cli"
	"github.com/systemsculpt/scribe/internal/config"
	"github.com/systemsculpt/scribe/internal/doctor"
	"github.com/systemsculpt/scribe/internal/ipc"
	"github.com/systemsculpt/scribe/internal/logging"
	"github.com/systemsculpt/scribe/internal/recorder"
	"github.com/systemsculpt/scribe/internal/store"
	"github.com/systemsculpt/scribe/internal/surface"
	"github.com/systemsculpt/scribe/internal/transcribe"
	"github.com/systemsculpt/scribe/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("scribe"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("scribe"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := capture.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	state, _, err := ipc.Status(ctx, socketPath, 220*time.Millisecond)
	if err != nil {
		if isSocketMissing(err) || isConnectionRefused(err) {
			fmt.Fprintln(r.Stdout, "idle")
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintln(r.Stdout, state)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active scribe session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandToggle either forwards the toggle to a running owner process or
// becomes the owner: it acquires the IPC socket, wires the orchestrator, and
// serves follow-up commands until the session fully settles.
func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "toggle")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, "toggle")
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	orchestrator, err := buildOrchestrator(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	unsubscribe := orchestrator.OnToggle(func(recording bool) {
		if recording {
			fmt.Fprintln(r.Stdout, "recording started")
			return
		}
		fmt.Fprintln(r.Stdout, "recording stopped")
	})
	defer unsubscribe()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, commandHandler(orchestrator), logger)
	}()

	exitCode := 0
	if err := orchestrator.ToggleRecording(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		exitCode = 1
	} else {
		for {
			if err := orchestrator.WaitForSessionSettled(ctx); err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				exitCode = 1
				break
			}
			if !orchestrator.IsRecording() {
				break
			}
		}
	}

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		exitCode = 1
	}

	unloadCtx, unloadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer unloadCancel()
	if err := orchestrator.Unload(unloadCtx); err != nil {
		logger.Warn("unload failed", "error", err.Error())
	}

	return exitCode
}

// buildOrchestrator assembles the capture, surface, storage, and transcription
// collaborators from config and returns the process-wide orchestrator.
func buildOrchestrator(cfg config.Config, logger *slog.Logger) (*recorder.Orchestrator, error) {
	recordings, err := store.New(cfg.Recordings.Dir, cfg.Recordings.NameTemplate)
	if err != nil {
		return nil, fmt.Errorf("recordings store: %w", err)
	}

	var surf surface.Surface = surface.Noop{}
	if cfg.Surface.Enable {
		surf = surface.NewDesktopNotify(surface.Config{
			Enable:  true,
			AppName: cfg.Surface.AppName,
		}, logger)
	}

	deps := recorder.Deps{
		Logger:  logger,
		Factory: capture.NewPulseFactory(capture.PulseConfig{
			Input:    cfg.Audio.Input,
			Fallback: cfg.Audio.Fallback,
		}),
		Surface: surf,
		Store:   recordings,
	}

	if cfg.Transcription.Enable {
		coordinator, err := transcribe.New(transcribe.Config{
			Backend:  cfg.Transcription.Backend,
			Endpoint: cfg.Transcription.Endpoint,
			APIKey:   os.Getenv(cfg.Transcription.APIKeyEnv),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("transcription backend: %w", err)
		}
		deps.Transcriber = coordinator
		deps.Transcription = recorder.Transcription{
			Enable: true,
			Options: transcribe.Options{
				Language:    cfg.Transcription.Language,
				Model:       cfg.Transcription.Model,
				PostProcess: cfg.Transcription.PostProcess,
			},
		}
	}

	return recorder.GetInstance(&deps)
}

// commandHandler serves forwarded toggle/stop/status requests against the
// owner process's orchestrator.
func commandHandler(orchestrator *recorder.Orchestrator) ipc.Handler {
	return ipc.HandlerFunc(func(ctx context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case "toggle":
			if err := orchestrator.ToggleRecording(ctx); err != nil {
				return ipc.Response{OK: false, Error: err.Error()}
			}
			return ipc.Response{
				OK:        true,
				State:     string(orchestrator.State()),
				Recording: orchestrator.IsRecording(),
				Message:   "toggled",
			}
		case "stop":
			if err := orchestrator.StopRecording(); err != nil {
				return ipc.Response{OK: false, Error: err.Error()}
			}
			return ipc.Response{
				OK:        true,
				State:     string(orchestrator.State()),
				Recording: orchestrator.IsRecording(),
				Message:   "stop requested",
			}
		case "status":
			return ipc.Response{
				OK:        true,
				State:     string(orchestrator.State()),
				Recording: orchestrator.IsRecording(),
			}
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
	})
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
